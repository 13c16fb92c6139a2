package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/cookieauth/internal/session/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server until SIGINT or SIGTERM. The process refuses to start
without a signing secret (SESSION_TOKEN_SECRET or SESSION_TOKEN_SECRET_FILE).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		application, err := app.New(cfg)
		if err != nil {
			return err
		}
		return application.Run()
	},
}
