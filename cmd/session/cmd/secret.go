package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Print a random signing secret for SESSION_TOKEN_SECRET",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := cryptox.GenerateToken(cryptox.SecretSize)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	},
}
