package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/faunagram-go/cmd"
	"github.com/tphakala/faunagram-go/internal/buildinfo"
	"github.com/tphakala/faunagram-go/internal/conf"
)

// buildDate and version are set at build time with -ldflags
var (
	buildDate string
	version   string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		return 1
	}
	info := buildinfo.New(version, buildDate)
	settings.Version = info.GetVersion()
	settings.BuildDate = info.GetBuildDate()
	if settings.API.UserAgent == conf.DefaultUserAgent {
		settings.API.UserAgent = info.UserAgent(conf.DefaultUserAgent)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cmd.RootCommand(settings)
	root.SetVersionTemplate("faunagram " + info.String() + "\n")
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
