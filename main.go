package main

import "pseudoenzymes-backend/cmd"

func main() {
	cmd.Execute()
}
