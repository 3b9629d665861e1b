// Package cmd 提供 pseudoenzymes 命令行
package cmd

import (
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"pseudoenzymes-backend/config"
	"syscall"
)

const Version = "0.1.0"

var (
	// 全局配置
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "pseudoenzymes",
	Short: "生物数据库导入与关联",
	Long: `pseudoenzymes 把 UniProt、GO、ECO、EC、CATH、PDB 与 NCBI taxonomy 导入关系库并相互关联，
在此基础上计算酶判定集合、导出多序列比对与报表。`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML 配置文件路径")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func loadApp() (*app, error) {
	c, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return newApp(c)
}
