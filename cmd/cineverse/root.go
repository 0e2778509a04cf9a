package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/cineverse"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cineverse",
		Short:         "CineVerse movie streaming backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newRoutesCmd(),
		newGCCmd(),
		newAdminCmd(),
	)
	return root
}

// withApp loads the configuration, builds the application and closes it
// once fn returns.
func withApp(ctx context.Context, fn func(*cineverse.App) error) error {
	cfg, err := cineverse.LoadConfig()
	if err != nil {
		return err
	}
	app, err := cineverse.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}
