package errors

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter interface allows the errors package to report to telemetry without circular dependencies
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

// PrivacyScrubber scrubs sensitive values from messages before they leave the process
type PrivacyScrubber func(string) string

var (
	telemetryReporter TelemetryReporter
	reporterMu        sync.RWMutex
	privacyScrubber   PrivacyScrubber = basicURLScrub
)

// SentryReporter reports enhanced errors to Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter creates a new Sentry reporter
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// IsEnabled returns whether Sentry reporting is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError reports an enhanced error to Sentry
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		scope.SetTag("error_type", fmt.Sprintf("%T", ee.Err))

		for key, value := range ee.GetContext() {
			scope.SetContext(key, sentry.Context{"value": value})
		}

		scope.SetFingerprint([]string{ee.GetComponent(), string(ee.Category)})

		event := sentry.NewEvent()
		event.Level = getErrorLevel(ee)
		event.Message = generateErrorTitle(ee)
		event.Exception = []sentry.Exception{{
			Type:  generateErrorTitle(ee),
			Value: scrubMessage(ee.Error()),
		}}

		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

// generateErrorTitle builds a stable title from component and category
func generateErrorTitle(ee *EnhancedError) string {
	component := ee.GetComponent()
	if component == "" || component == ComponentUnknown {
		component = "Faunagram"
	}
	return fmt.Sprintf("%s %s error", titleCase(component), titleCase(string(ee.Category)))
}

func titleCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// getErrorLevel maps the priority or category to a Sentry level
func getErrorLevel(ee *EnhancedError) sentry.Level {
	switch ee.GetPriority() {
	case PriorityCritical:
		return sentry.LevelFatal
	case PriorityHigh:
		return sentry.LevelError
	case PriorityMedium:
		return sentry.LevelWarning
	case PriorityLow:
		return sentry.LevelInfo
	}

	switch ee.Category {
	case CategoryConfiguration, CategoryState:
		return sentry.LevelError
	case CategoryValidation, CategoryNotFound, CategoryCancellation, CategoryAuthentication:
		return sentry.LevelInfo
	default:
		return sentry.LevelWarning
	}
}

// SetTelemetryReporter installs the reporter used for new errors
func SetTelemetryReporter(reporter TelemetryReporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	telemetryReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// SetPrivacyScrubber replaces the message scrubber
func SetPrivacyScrubber(scrubber PrivacyScrubber) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	if scrubber == nil {
		scrubber = basicURLScrub
	}
	privacyScrubber = scrubber
}

func reportToTelemetry(ee *EnhancedError) {
	reporterMu.RLock()
	reporter := telemetryReporter
	reporterMu.RUnlock()

	if reporter == nil || !reporter.IsEnabled() {
		return
	}
	reporter.ReportError(ee)
}

func scrubMessage(msg string) string {
	reporterMu.RLock()
	scrubber := privacyScrubber
	reporterMu.RUnlock()
	return scrubber(msg)
}

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s"']+`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`)
)

// basicURLScrub removes URLs and bearer tokens from messages
func basicURLScrub(message string) string {
	message = bearerPattern.ReplaceAllString(message, "Bearer [TOKEN]")
	return urlPattern.ReplaceAllString(message, "[URL]")
}

// ScrubURLs applies the default URL and bearer token scrubbing
func ScrubURLs(message string) string {
	return basicURLScrub(message)
}
