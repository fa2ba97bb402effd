// Package conf loads Faunagram client settings from config.yaml, environment
// variables and command line flags.
package conf

import (
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/logger"
)

// APISettings configures the backend API client
type APISettings struct {
	BaseURL   string        // backend base URL including the /api/v1 prefix
	Timeout   time.Duration // per-request timeout
	UserAgent string        // User-Agent header value
}

// SessionSettings configures token persistence
type SessionSettings struct {
	TokenFile string // path of the persisted session token
}

// CacheSettings configures the query cache
type CacheSettings struct {
	TTL             time.Duration // entry lifetime, invalidation still applies
	CleanupInterval time.Duration // expired entry sweep interval
}

// ImageSearchSettings configures the animal image lookup chain
type ImageSearchSettings struct {
	Enabled           bool
	UnsplashAccessKey string
	PexelsAPIKey      string
	Timeout           time.Duration
	CacheTTL          time.Duration
	RateLimit         float64 // requests per second per provider
	Burst             int
}

// TelemetrySettings configures Sentry error reporting
type TelemetrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// MetricsSettings configures Prometheus metrics export
type MetricsSettings struct {
	Enabled      bool
	TextfilePath string // node_exporter textfile written on exit
}

// Settings contains all configuration options for the client
type Settings struct {
	Debug bool // true to enable debug logging

	// Runtime values, not stored in config file
	Version   string `yaml:"-" mapstructure:"-"`
	BuildDate string `yaml:"-" mapstructure:"-"`

	API         APISettings
	Session     SessionSettings
	Cache       CacheSettings
	ImageSearch ImageSearchSettings
	Telemetry   TelemetrySettings
	Metrics     MetricsSettings
	Logging     logger.LoggingConfig
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file, environment and bound flags into Settings.
// A missing config file is not an error; defaults and environment apply.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "unmarshal-settings").
			Build()
	}

	applyLegacyEnv(settings)

	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, binds the environment and reads config.yaml.
func initViper() error {
	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "bind-env").
			Build()
	}

	if viper.ConfigFileUsed() == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		configPaths, err := GetDefaultConfigPaths()
		if err != nil {
			return err
		}
		for _, path := range configPaths {
			viper.AddConfigPath(path)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "read-config").
			Build()
	}
	return nil
}

// GetSettings returns the loaded settings, or nil before Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the loaded settings, loading them on first use.
func Setting() *Settings {
	if s := GetSettings(); s != nil {
		return s
	}
	s, err := Load()
	if err != nil {
		logger.Global().Module("conf").Error("failed to load settings", logger.Error(err))
		return nil
	}
	return s
}
