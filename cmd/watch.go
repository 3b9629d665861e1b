package cmd

import (
	"fmt"
	"github.com/spf13/cobra"
	"pseudoenzymes-backend/domain/notify"
	"time"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "订阅 ingest_events 队列，打印每个步骤的结束事件",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		return a.notifier.Watch(cmd.Context().Done(), func(event notify.StepEvent) {
			s := event.Stats
			fmt.Fprintf(out, "%s %s %-20s %-4s read=%d created=%d skipped=%d dropped=%d unresolved=%d %s\n",
				event.FinishedAt.Format(time.RFC3339), event.RunUUID, event.Step, event.Status,
				s.Read, s.Created, s.Skipped, s.Dropped, s.Unresolved, event.Error)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
