package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/cookieauth/internal/session/app"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "session",
	Short: "Cookie session service",
	Long: `session runs the cookie-based session service: username/password login that
sets a signed token cookie, and role-based authorization of every request.

Configuration comes from an optional session.yaml (see --config) and
SESSION_* environment variables, e.g. SESSION_TOKEN_SECRET.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (default: ./session.yaml or /etc/cookieauth/session.yaml)")
	rootCmd.AddCommand(serveCmd, userCmd, secretCmd, versionCmd)
}

func loadConfig() (app.Config, error) {
	return app.LoadConfig(app.NewViper(configFile))
}
