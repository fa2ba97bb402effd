// Package animals implements the animal directory commands
package animals

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tphakala/faunagram-go/internal/app"
	"github.com/tphakala/faunagram-go/internal/conf"
	"github.com/tphakala/faunagram-go/internal/view"
)

// Command returns the animals command group
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "animals",
		Short: "Browse the urban wildlife directory",
	}

	cmd.AddCommand(listCommand(settings), showCommand(settings))
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known animals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
				v := view.NewAnimals(a.Deps())
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

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an animal with its taxonomy and image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.ParseID(args[0])
			if err != nil {
				return err
			}
			return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
				v := view.NewAnimal(a.Deps(), id)
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
