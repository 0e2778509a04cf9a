package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/cineverse"
)

func newRoutesCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:     "routes",
		Aliases: []string{"r"},
		Short:   "List registered routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *cineverse.App) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "METHOD\tPATH\tNAME\tMIDDLEWARE")
				for _, r := range app.Handler().Router().Routes() {
					if !strings.HasPrefix(r.Template(), prefix) {
						continue
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Method(), r.Template(), r.Name(), strings.Join(r.Middleware(), ","))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only list paths starting with prefix")
	return cmd
}
