package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/cineverse"
)

func newGCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Remove expired sessions, revoked tokens and cache entries once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *cineverse.App) error {
				return app.CollectGarbage(cmd.Context())
			})
		},
	}
}
