package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/faunagram-go/cmd/animals"
	"github.com/tphakala/faunagram-go/cmd/auth"
	"github.com/tphakala/faunagram-go/cmd/comments"
	"github.com/tphakala/faunagram-go/cmd/feed"
	"github.com/tphakala/faunagram-go/cmd/sighting"
	"github.com/tphakala/faunagram-go/cmd/users"
	"github.com/tphakala/faunagram-go/internal/conf"
	"github.com/tphakala/faunagram-go/internal/logger"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "faunagram",
		Short:         "Faunagram urban wildlife client",
		Version:       settings.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		logger.Global().Module("cmd").Warn("failed to bind flags", logger.Error(err))
	}

	rootCmd.AddCommand(auth.Commands(settings)...)
	rootCmd.AddCommand(
		feed.Command(settings),
		sighting.Command(settings),
		comments.Command(settings),
		users.Command(settings),
		animals.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if settings.Debug {
			settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
			if settings.Logging.Console != nil {
				settings.Logging.Console.Level = string(logger.LogLevelDebug)
			}
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.API.BaseURL, "api-url", settings.API.BaseURL, "Backend API base URL")
	rootCmd.PersistentFlags().StringVar(&settings.Session.TokenFile, "token-file", settings.Session.TokenFile, "Path of the persisted session token")
	rootCmd.PersistentFlags().BoolVar(&settings.ImageSearch.Enabled, "image-search", settings.ImageSearch.Enabled, "Search animal images on Unsplash and Pexels")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
