package cmd

import (
	"github.com/spf13/cobra"
	"pseudoenzymes-backend/server"
	"pseudoenzymes-backend/server/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动只读查询接口",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		handlers := handler.New(&handler.Handlers{
			GetDatabase: a.getDatabase,
			Classifier:  a.classifier,
			Logger:      a.logger,
		})
		s := server.New(&server.Config{
			Host:      a.config.Server.Host,
			Port:      a.config.Server.Port,
			DebugMode: a.config.Server.DebugMode,
		}, handlers)

		err = s.RunServer()
		if err != nil {
			a.logger.WithError(err).Errorf("run server error=\n%v", err)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
