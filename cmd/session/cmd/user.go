package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/cookieauth/internal/session/app"
)

var (
	userUsername string
	userPassword string
	userRoles    []string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts directly in the database",
	Long:  "Manage accounts directly in the database. USER is a username or a user id.",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	Example: `  session user add --username root --password 'change-me-now' --role ROLE_ADMIN
  session user add --username alice --password 'correct-pw'`,
	Args: cobra.NoArgs,
	RunE: withUserAdmin(func(cmd *cobra.Command, a *app.UserAdmin) error {
		u, err := a.Add(cmd.Context(), userUsername, userPassword, userRoles)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) roles=%s\n", u.Username, u.ID, strings.Join(u.Roles, ","))
		return nil
	}),
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: withUserAdmin(func(cmd *cobra.Command, a *app.UserAdmin) error {
		users, err := a.List(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tROLES\tSTATUS\tCREATED")
		for _, u := range users {
			status := "active"
			if !u.Active() {
				status = "disabled"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, strings.Join(u.Roles, ","), status, u.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	}),
}

var userDisableCmd = &cobra.Command{
	Use:   "disable USER",
	Short: "Disable a user; their cookies stop authenticating",
	Args:  cobra.ExactArgs(1),
	RunE: withUserAdmin(func(cmd *cobra.Command, a *app.UserAdmin) error {
		return a.SetDisabled(cmd.Context(), cmd.Flags().Arg(0), true)
	}),
}

var userEnableCmd = &cobra.Command{
	Use:   "enable USER",
	Short: "Re-enable a disabled user",
	Args:  cobra.ExactArgs(1),
	RunE: withUserAdmin(func(cmd *cobra.Command, a *app.UserAdmin) error {
		return a.SetDisabled(cmd.Context(), cmd.Flags().Arg(0), false)
	}),
}

var userRolesCmd = &cobra.Command{
	Use:   "roles USER",
	Short: "Replace the roles of a user",
	Args:  cobra.ExactArgs(1),
	RunE: withUserAdmin(func(cmd *cobra.Command, a *app.UserAdmin) error {
		return a.SetRoles(cmd.Context(), cmd.Flags().Arg(0), userRoles)
	}),
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd USER",
	Short: "Set a new password for a user",
	Args:  cobra.ExactArgs(1),
	RunE: withUserAdmin(func(cmd *cobra.Command, a *app.UserAdmin) error {
		if err := a.SetPassword(cmd.Context(), cmd.Flags().Arg(0), userPassword); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", cmd.Flags().Arg(0))
		return nil
	}),
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete USER",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: withUserAdmin(func(cmd *cobra.Command, a *app.UserAdmin) error {
		u, err := a.Delete(cmd.Context(), cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%s)\n", u.Username, u.ID)
		return nil
	}),
}

func withUserAdmin(fn func(*cobra.Command, *app.UserAdmin) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := app.OpenUserAdmin(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		return fn(cmd, a)
	}
}

func init() {
	userAddCmd.Flags().StringVar(&userUsername, "username", "", "username (3-64 chars: letters, digits, . _ -)")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "password (8-128 chars)")
	userAddCmd.Flags().StringSliceVar(&userRoles, "role", nil, "role to grant, repeatable (default ROLE_USER)")
	_ = userAddCmd.MarkFlagRequired("username")
	_ = userAddCmd.MarkFlagRequired("password")

	userRolesCmd.Flags().StringSliceVar(&userRoles, "role", nil, "role to grant, repeatable")
	_ = userRolesCmd.MarkFlagRequired("role")

	userPasswdCmd.Flags().StringVar(&userPassword, "password", "", "new password (8-128 chars)")
	_ = userPasswdCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userAddCmd, userListCmd, userDisableCmd, userEnableCmd, userRolesCmd, userPasswdCmd, userDeleteCmd)
}
