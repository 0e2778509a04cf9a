package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/cineverse"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the HTTP server",
		Long: `Start the HTTP server on APP_ADDR.

With JOBS_ENABLED the River workers run in the same process, otherwise
expired sessions and cache entries are collected on SESSION_GC_SCHEDULE.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *cineverse.App) error {
				if migrate {
					applied, err := app.Migrate(cmd.Context())
					if err != nil {
						return err
					}
					if len(applied) > 0 {
						app.Logger().Info("migrations applied", "count", len(applied))
					}
				}
				return app.Run(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}
