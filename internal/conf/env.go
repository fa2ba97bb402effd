package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "FAUNAGRAM_DEBUG", validateEnvBool},

		{"api.baseurl", "FAUNAGRAM_API_BASE_URL", validateEnvURL},
		{"api.timeout", "FAUNAGRAM_API_TIMEOUT", validateEnvDuration},

		{"session.tokenfile", "FAUNAGRAM_TOKEN_FILE", nil},

		{"cache.ttl", "FAUNAGRAM_CACHE_TTL", validateEnvDuration},

		{"imagesearch.enabled", "FAUNAGRAM_IMAGESEARCH_ENABLED", validateEnvBool},
		{"imagesearch.unsplashaccesskey", "FAUNAGRAM_UNSPLASH_ACCESS_KEY", nil},
		{"imagesearch.pexelsapikey", "FAUNAGRAM_PEXELS_API_KEY", nil},

		{"telemetry.enabled", "FAUNAGRAM_TELEMETRY_ENABLED", validateEnvBool},
		{"telemetry.dsn", "FAUNAGRAM_SENTRY_DSN", validateEnvURL},

		{"metrics.enabled", "FAUNAGRAM_METRICS_ENABLED", validateEnvBool},
		{"metrics.textfilepath", "FAUNAGRAM_METRICS_TEXTFILE", nil},

		{"logging.default_level", "FAUNAGRAM_LOG_LEVEL", validateEnvLogLevel},
	}
}

// legacyEnv maps the variable names of the web client to their settings.
// They apply only when the FAUNAGRAM_* variable is unset.
var legacyEnv = []struct {
	envVar  string
	primary string
	apply   func(*Settings, string)
}{
	{"VITE_API_BASE_URL", "FAUNAGRAM_API_BASE_URL", func(s *Settings, v string) { s.API.BaseURL = v }},
	{"VITE_UNSPLASH_ACCESS_KEY", "FAUNAGRAM_UNSPLASH_ACCESS_KEY", func(s *Settings, v string) { s.ImageSearch.UnsplashAccessKey = v }},
	{"VITE_PEXELS_API_KEY", "FAUNAGRAM_PEXELS_API_KEY", func(s *Settings, v string) { s.ImageSearch.PexelsAPIKey = v }},
}

// bindEnvVars sets up environment variable bindings with validation
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("invalid %s value: %v", binding.EnvVar, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func applyLegacyEnv(settings *Settings) {
	for _, le := range legacyEnv {
		if os.Getenv(le.primary) != "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(le.envVar)); v != "" {
			le.apply(settings, v)
		}
	}
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0", value)
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %w", value, err)
	}
	if d < 0 {
		return fmt.Errorf("duration must not be negative, got %s", value)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error, got '%s'", value)
	}
}
