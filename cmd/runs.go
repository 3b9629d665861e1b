package cmd

import (
	"github.com/spf13/cobra"
	"pseudoenzymes-backend/repository/biodb"
	"time"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "列出最近的导入步骤记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := biodb.NewRunRepo(a.db).Latest(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(runs))
		for _, run := range runs {
			status := "doing"
			switch run.Status {
			case biodb.RunStatusDone:
				status = "done"
			case biodb.RunStatusFail:
				status = "fail"
			}
			created, read := "", ""
			if stats, ok := run.StepStats(); ok {
				created, read = itoa(stats.Created), itoa(stats.Read)
			}
			rows = append(rows, []string{run.CreatedAt.Format(time.RFC3339), run.RunUUID, run.Step, status, read, created, run.Error})
		}
		renderKeyValues(cmd.OutOrStdout(), []string{"Started", "Run", "Step", "Status", "Read", "Created", "Error"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "最多列出的记录数")
}
