package telemetry

import (
	"github.com/getsentry/sentry-go"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/logger"
)

// quietCategories are expected outcomes of user actions and never sent
var quietCategories = map[errors.ErrorCategory]struct{}{
	errors.CategoryValidation:     {},
	errors.CategoryCancellation:   {},
	errors.CategoryNotFound:       {},
	errors.CategoryAuthentication: {},
}

// reporter filters user-facing errors before handing them to Sentry
type reporter struct {
	sentry *errors.SentryReporter
}

func newReporter() *reporter {
	return &reporter{sentry: errors.NewSentryReporter(true)}
}

func (r *reporter) IsEnabled() bool {
	return r.sentry.IsEnabled()
}

func (r *reporter) ReportError(ee *errors.EnhancedError) {
	if _, quiet := quietCategories[ee.Category]; quiet {
		return
	}
	r.sentry.ReportError(ee)
}

// scrub removes secrets and URLs from outgoing messages
func scrub(message string) string {
	return logger.RedactSensitiveData(errors.ScrubURLs(message))
}

// applyPrivacyFilters strips identifying data from an event
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Request = nil

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = scrub(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = scrub(event.Exception[i].Value)
	}
	return event
}
