// Package feed implements the feed command
package feed

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tphakala/faunagram-go/internal/app"
	"github.com/tphakala/faunagram-go/internal/conf"
	"github.com/tphakala/faunagram-go/internal/view"
)

// Command returns the command listing recent sightings
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Show the urban wildlife feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
				v := view.NewFeed(a.Deps())
				defer v.Close()
				if err := v.Mount(ctx); err != nil {
					return err
				}
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}
}
