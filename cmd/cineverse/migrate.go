package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/cineverse"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *cineverse.App) error {
				applied, err := app.Migrate(cmd.Context())
				for _, name := range applied {
					fmt.Fprintln(cmd.OutOrStdout(), "migrated:", name)
				}
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to migrate")
				}
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and their batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *cineverse.App) error {
				status, err := app.MigrationStatus(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "MIGRATION\tBATCH\tAPPLIED")
				for _, s := range status {
					batch := "-"
					if s.Applied {
						batch = fmt.Sprint(s.Batch)
					}
					fmt.Fprintf(w, "%s\t%s\t%t\n", s.Name, batch, s.Applied)
				}
				return w.Flush()
			})
		},
	})
	return cmd
}
