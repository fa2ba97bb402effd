// Package users implements the user directory and profile commands
package users

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/faunagram-go/internal/app"
	"github.com/tphakala/faunagram-go/internal/conf"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/view"
)

// Command returns the users command group
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Browse community members and manage your profile",
	}

	cmd.AddCommand(
		listCommand(settings),
		showCommand(settings),
		editCommand(settings),
		deleteCommand(settings),
	)
	return cmd
}

// withProfile mounts the profile of args[0], or of the session user when
// no id is given.
func withProfile(cmd *cobra.Command, settings *conf.Settings, args []string, fn func(v *view.ProfileView) error) error {
	return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
		var id int
		if len(args) > 0 {
			parsed, err := app.ParseID(args[0])
			if err != nil {
				return err
			}
			id = parsed
		} else {
			u := a.Session.User()
			if u == nil {
				return fmt.Errorf("not signed in: pass a user id or run 'faunagram login'")
			}
			id = u.ID
		}

		v := view.NewProfile(a.Deps(), id)
		defer v.Close()
		if err := v.Mount(ctx); err != nil {
			return err
		}
		return fn(v)
	})
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List community members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
				v := view.NewUsers(a.Deps())
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
		Use:   "show [id]",
		Short: "Show a profile and its sightings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, settings, args, func(v *view.ProfileView) error {
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}
}

func editCommand(settings *conf.Settings) *cobra.Command {
	var upd model.UserUpdate

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, settings, args, func(v *view.ProfileView) error {
				if _, err := v.Update(upd); err != nil {
					return app.Failure(v.Error(), err)
				}
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&upd.Name, "name", "", "New display name")
	cmd.Flags().StringVarP(&upd.Username, "username", "u", "", "New username")
	cmd.Flags().StringVar(&upd.AvatarPath, "avatar", "", "Avatar image to upload")
	return cmd
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an account, your own when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete without --yes")
			}
			return withProfile(cmd, settings, args, func(v *view.ProfileView) error {
				own := v.IsOwnProfile()
				if err := v.Delete(); err != nil {
					return app.Failure(v.Error(), err)
				}
				if own {
					fmt.Fprintln(cmd.OutOrStdout(), "Account deleted, signed out")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Account deleted")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}
