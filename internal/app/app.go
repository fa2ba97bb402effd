// Package app wires the Faunagram client from settings: logging, telemetry,
// metrics, the API client, the query cache and the session.
package app

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/conf"
	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/httpclient"
	"github.com/tphakala/faunagram-go/internal/imagesearch"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/navigation"
	"github.com/tphakala/faunagram-go/internal/observability"
	"github.com/tphakala/faunagram-go/internal/observability/metrics"
	"github.com/tphakala/faunagram-go/internal/query"
	"github.com/tphakala/faunagram-go/internal/resources"
	"github.com/tphakala/faunagram-go/internal/session"
	"github.com/tphakala/faunagram-go/internal/telemetry"
	"github.com/tphakala/faunagram-go/internal/view"
)

// App holds the wired client components of one CLI invocation
type App struct {
	Settings *conf.Settings
	Log      logger.Logger
	Metrics  *observability.Metrics
	Client   *api.Client
	API      *resources.Resources
	Cache    *query.Client
	Session  *session.Store
	Images   *imagesearch.Searcher
	History  *navigation.History

	central *logger.CentralLogger
}

// New builds the client and restores a persisted session. Components opened
// before a failure are closed again.
func New(ctx context.Context, settings *conf.Settings) (_ *App, err error) {
	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, err
	}
	logger.SetGlobal(central)

	a := &App{
		Settings: settings,
		Log:      central.Module("app"),
		History:  navigation.NewHistory(navigation.RouteLogin),
		central:  central,
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := telemetry.Init(telemetry.Options{
		Settings: settings.Telemetry,
		Version:  settings.Version,
		Logger:   central.Module("telemetry"),
	}); err != nil {
		a.Log.Warn("telemetry disabled", logger.Error(err))
	}

	var (
		apiMetrics   *metrics.APIMetrics
		queryMetrics *metrics.QueryMetrics
		imageMetrics *metrics.ImageSearchMetrics
	)
	if settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return nil, err
		}
		a.Metrics = m
		apiMetrics, queryMetrics, imageMetrics = m.API, m.Query, m.ImageSearch
	}

	hc := httpclient.New(&httpclient.Config{
		DefaultTimeout: settings.API.Timeout,
		UserAgent:      settings.API.UserAgent,
	})
	a.Client, err = api.NewClient(api.Config{
		BaseURL:    settings.API.BaseURL,
		HTTPClient: hc,
		Logger:     central.Module("api"),
		Metrics:    apiMetrics,
	}, api.TokenFunc(func() string { return a.Session.Token() }))
	if err != nil {
		return nil, err
	}

	a.API = resources.New(a.Client)
	a.Cache = query.New(query.Config{
		TTL:             settings.Cache.TTL,
		CleanupInterval: settings.Cache.CleanupInterval,
		Logger:          central.Module("query"),
		Metrics:         queryMetrics,
	})
	a.Session = session.New(a.API.Auth, session.Config{
		Tokens:    session.NewFileTokenStore(settings.Session.TokenFile),
		Cache:     a.Cache,
		Navigator: a.History,
		Logger:    central.Module("session"),
	})
	a.Client.SetUnauthorizedHandler(a.Session.HandleUnauthorized)

	if settings.ImageSearch.Enabled {
		a.Images = imagesearch.New(imagesearch.Config{
			UnsplashAccessKey: settings.ImageSearch.UnsplashAccessKey,
			PexelsAPIKey:      settings.ImageSearch.PexelsAPIKey,
			HTTPClient:        httpclient.New(&httpclient.Config{DefaultTimeout: settings.ImageSearch.Timeout}),
			CacheTTL:          settings.ImageSearch.CacheTTL,
			RateLimit:         settings.ImageSearch.RateLimit,
			Burst:             settings.ImageSearch.Burst,
			Logger:            central.Module("imagesearch"),
			Metrics:           imageMetrics,
		})
	}

	navLog := central.Module("navigation")
	a.History.OnNavigate(func(from, to navigation.Route) {
		navLog.Debug("navigate", logger.String("from", string(from)), logger.String("to", string(to)))
	})

	if err := a.Session.Init(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Deps returns the view dependencies backed by this App
func (a *App) Deps() view.Deps {
	return view.Deps{
		Session:   a.Session,
		Cache:     a.Cache,
		API:       a.API,
		Navigator: a.History,
		Images:    a.Images,
		Logger:    a.central.Module("view"),
	}
}

// Close flushes telemetry, writes the metrics textfile and closes the logger
func (a *App) Close() {
	if a.Client != nil {
		a.Client.Close()
	}
	if a.Metrics != nil && a.Settings.Metrics.TextfilePath != "" {
		if err := a.Metrics.WriteTextfile(a.Settings.Metrics.TextfilePath); err != nil {
			a.Log.Warn("failed to write metrics textfile", logger.Error(err))
		}
	}
	telemetry.Shutdown(telemetry.DefaultFlushTimeout)
	if err := a.central.Close(); err != nil {
		a.Log.Debug("failed to close logger", logger.Error(err))
	}
}

// Run opens the App for a command, runs fn with the command context and
// closes the App afterwards.
func Run(cmd *cobra.Command, settings *conf.Settings, fn func(ctx context.Context, a *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	a, err := New(ctx, settings)
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(ctx, a)
	a.Log.Debug("command finished",
		logger.String("command", cmd.CommandPath()),
		logger.Duration("elapsed", time.Since(start)),
		logger.Bool("ok", err == nil))
	if err == nil {
		return nil
	}

	// view failures already carry their user-facing message
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return err
	}
	a.Log.Warn("command failed", logger.String("command", cmd.CommandPath()), logger.Error(err))
	return errors.NewStd(api.Message(err, ""))
}
