// Package auth implements the login, signup, logout and whoami commands
package auth

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/faunagram-go/internal/app"
	"github.com/tphakala/faunagram-go/internal/conf"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/view"
)

// Commands returns the session commands
func Commands(settings *conf.Settings) []*cobra.Command {
	return []*cobra.Command{
		loginCommand(settings),
		signupCommand(settings),
		logoutCommand(settings),
		whoamiCommand(settings),
	}
}

func loginCommand(settings *conf.Settings) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
				v := view.NewLogin(a.Deps())
				if err := v.Submit(ctx, username, password); err != nil {
					return app.Failure(v.Error(), err)
				}
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	return cmd
}

func signupCommand(settings *conf.Settings) *cobra.Command {
	var data model.SignupData

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
				v := view.NewSignup(a.Deps())
				if err := v.Submit(ctx, data); err != nil {
					return app.Failure(v.Error(), err)
				}
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&data.Name, "name", "", "Display name")
	cmd.Flags().StringVarP(&data.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&data.Password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&data.PasswordConfirmation, "confirm", "", "Password confirmation")
	return cmd
}

func logoutCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
				a.Session.Logout()
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func whoamiCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
				u := a.Session.User()
				if u == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (@%s) #%d\n", u.DisplayName(), u.Username, u.ID)
				return nil
			})
		},
	}
}
