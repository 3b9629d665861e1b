package utils

import (
	"strconv"
	"strings"
)

// AtoiOr 解析失败或为空时返回 fallback
func AtoiOr(integer string, fallback int) int {
	ret, err := strconv.Atoi(strings.TrimSpace(integer))
	if err != nil {
		return fallback
	}
	return ret
}

func Int64ToPtr(v int64) *int64 {
	return &v
}
