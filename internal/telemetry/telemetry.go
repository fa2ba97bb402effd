// Package telemetry provides opt-in Sentry error reporting for the client
package telemetry

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/faunagram-go/internal/conf"
	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/logger"
)

// DefaultFlushTimeout bounds the wait for pending events on exit
const DefaultFlushTimeout = 2 * time.Second

// Options configures Init
type Options struct {
	Settings conf.TelemetrySettings
	Version  string
	Logger   logger.Logger

	// Transport replaces the HTTP transport, used by tests
	Transport sentry.Transport
}

var (
	initMu      sync.Mutex
	initialized bool
)

// Init enables Sentry reporting of enhanced errors when the settings opt in.
// It is a no-op when telemetry is disabled.
func Init(opts Options) error {
	log := opts.Logger
	if log == nil {
		log = logger.Global().Module("telemetry")
	}

	initMu.Lock()
	defer initMu.Unlock()

	if !opts.Settings.Enabled {
		errors.SetTelemetryReporter(nil)
		initialized = false
		log.Debug("telemetry is disabled (opt-in required)")
		return nil
	}

	environment := opts.Settings.Environment
	if environment == "" {
		environment = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.Settings.DSN,
		Transport:        opts.Transport,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		Release:          "faunagram@" + opts.Version,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Component("telemetry").
			Context("operation", "sentry-init").
			Build()
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("go_version", runtime.Version())
	})

	errors.SetPrivacyScrubber(scrub)
	errors.SetTelemetryReporter(newReporter())
	initialized = true

	log.Info("telemetry enabled", logger.String("environment", environment))
	return nil
}

// Flush waits for queued events; it returns false on timeout
func Flush(ctx context.Context) bool {
	initMu.Lock()
	active := initialized
	initMu.Unlock()
	if !active {
		return true
	}
	return sentry.FlushWithContext(ctx)
}

// Shutdown detaches the reporter and drains pending events
func Shutdown(timeout time.Duration) {
	initMu.Lock()
	active := initialized
	initialized = false
	initMu.Unlock()

	errors.SetTelemetryReporter(nil)
	if active {
		sentry.Flush(timeout)
	}
}
