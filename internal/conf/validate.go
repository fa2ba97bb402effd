package conf

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tphakala/faunagram-go/internal/errors"
)

// ValidationError collects every invalid setting found in one pass
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateAPISettings(&settings.API); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if settings.Session.TokenFile == "" {
		ve.Errors = append(ve.Errors, "session token file path must not be empty")
	}
	if settings.Cache.TTL < 0 {
		ve.Errors = append(ve.Errors, "cache TTL must not be negative")
	}
	if err := validateImageSearchSettings(&settings.ImageSearch); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if settings.Telemetry.Enabled && settings.Telemetry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry is enabled but no Sentry DSN is configured")
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Category(errors.CategoryValidation).
			Component("configuration").
			Build()
	}
	return nil
}

func validateAPISettings(s *APISettings) error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api base URL %q must be an absolute http(s) URL", s.BaseURL)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", s.Timeout)
	}
	return nil
}

func validateImageSearchSettings(s *ImageSearchSettings) error {
	if !s.Enabled {
		return nil
	}
	if s.RateLimit <= 0 {
		return fmt.Errorf("image search rate limit must be positive, got %g", s.RateLimit)
	}
	if s.Burst < 1 {
		return fmt.Errorf("image search burst must be at least 1, got %d", s.Burst)
	}
	return nil
}
