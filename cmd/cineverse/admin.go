package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/cineverse"
	"github.com/dmitrymomot/cineverse/pkg/auth"
)

func newAdminCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "admin <username|email>",
		Short: "Grant or revoke the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *cineverse.App) error {
				user, err := app.Auth().FindUserByIdentifier(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("find %q: %w", args[0], err)
				}
				role := auth.RoleAdmin
				if revoke {
					role = auth.RoleUser
				}
				if err := app.Auth().SetRole(cmd.Context(), user.ID, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Username, role)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "demote to a regular user")
	return cmd
}
