// Package sighting implements the sighting command group
package sighting

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/faunagram-go/internal/app"
	"github.com/tphakala/faunagram-go/internal/conf"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/view"
)

// Command returns the sighting command group
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sighting",
		Short: "Show, post and manage sightings",
	}

	cmd.AddCommand(
		showCommand(settings),
		postCommand(settings),
		likeCommand(settings),
		editCommand(settings),
		deleteCommand(settings),
	)
	return cmd
}

// withSighting mounts the sighting view of args[0] around fn
func withSighting(cmd *cobra.Command, settings *conf.Settings, args []string, fn func(v *view.SightingView) error) error {
	id, err := app.ParseID(args[0])
	if err != nil {
		return err
	}
	return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
		v := view.NewSighting(a.Deps(), id)
		defer v.Close()
		if err := v.Mount(ctx); err != nil {
			return err
		}
		return fn(v)
	})
}

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a sighting with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSighting(cmd, settings, args, func(v *view.SightingView) error {
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}
}

func postCommand(settings *conf.Settings) *cobra.Command {
	var in model.NewSighting

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Share a new sighting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
				v := view.NewPostSighting(a.Deps())
				defer v.Close()
				created, err := v.Submit(in)
				if err != nil {
					return app.Failure(v.Error(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posted sighting #%d %q\n", created.ID, created.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "Title")
	cmd.Flags().StringVarP(&in.Body, "body", "b", "", "Description of what you saw")
	cmd.Flags().IntVarP(&in.AnimalID, "animal", "a", 0, "Animal id, see 'faunagram animals list'")
	cmd.Flags().StringVarP(&in.ImagePath, "image", "i", "", "Optional photo to upload")
	return cmd
}

func likeCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like a sighting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSighting(cmd, settings, args, func(v *view.SightingView) error {
				if err := v.Like(); err != nil {
					return app.Failure(v.Error(), err)
				}
				s := v.Sighting()
				fmt.Fprintf(cmd.OutOrStdout(), "♥ %d\n", s.Likes)
				return nil
			})
		},
	}
}

func editCommand(settings *conf.Settings) *cobra.Command {
	var upd model.SightingUpdate

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit your sighting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSighting(cmd, settings, args, func(v *view.SightingView) error {
				if _, err := v.Update(upd); err != nil {
					return app.Failure(v.Error(), err)
				}
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&upd.Title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&upd.Body, "body", "b", "", "New description")
	cmd.Flags().IntVarP(&upd.AnimalID, "animal", "a", 0, "New animal id")
	cmd.Flags().StringVarP(&upd.ImagePath, "image", "i", "", "New photo to upload")
	return cmd
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete your sighting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSighting(cmd, settings, args, func(v *view.SightingView) error {
				if err := v.Delete(); err != nil {
					return app.Failure(v.Error(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted sighting #%s\n", args[0])
				return nil
			})
		},
	}
}
