package logger

import (
	"regexp"
	"strings"
)

const redactedValue = "[REDACTED]"

// SensitiveDataPatterns match secrets embedded in free-form strings such as
// URLs and error messages.
var SensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-._~+/]+=*)`),
	regexp.MustCompile(`(?i)(client_id=)([^&\s"]+)`),
	regexp.MustCompile(`(?i)((?:token|password|api_key|access_key)["']?\s*[:=]\s*["']?)([^"'&,\s]{3,})`),
}

// SensitiveKeywords mark field keys whose values are never logged
var SensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "authorization", "api_key", "apikey", "access_key",
}

// IsSensitiveKey reports whether a field key names a secret
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range SensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// RedactSensitiveData replaces embedded secrets with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	for _, pattern := range SensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "${1}"+redactedValue)
	}
	return input
}
