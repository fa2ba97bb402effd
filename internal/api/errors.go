package api

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/antonholmquist/jason"

	"github.com/tphakala/faunagram-go/internal/errors"
)

const (
	ctxStatusCode    = "status_code"
	ctxServerMessage = "server_message"
)

// GenericErrorMessage is shown when neither the server nor validation supplied a message.
const GenericErrorMessage = "Something went wrong. Please try again."

// newStatusError builds the error for a non-2xx response.
func newStatusError(req *http.Request, status int, body []byte) error {
	msg := extractServerMessage(body)

	text := msg
	if text == "" {
		text = fmt.Sprintf("%s %s: %d %s", req.Method, req.URL.Path, status, http.StatusText(status))
	}

	eb := errors.New(errors.NewStd(text)).
		Category(categoryForStatus(status)).
		Component("api").
		NetworkContext(req.Method, req.URL.String()).
		Context(ctxStatusCode, status)
	if msg != "" {
		eb = eb.Context(ctxServerMessage, msg)
	}
	return eb.Build()
}

func categoryForStatus(status int) errors.ErrorCategory {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.CategoryAuthentication
	case status == http.StatusNotFound:
		return errors.CategoryNotFound
	case status == http.StatusConflict:
		return errors.CategoryConflict
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return errors.CategoryValidation
	case status == http.StatusTooManyRequests:
		return errors.CategoryLimit
	default:
		return errors.CategoryHTTP
	}
}

// extractServerMessage reads the error payload in the order errors, error, message.
// errors may be a string, a list of strings or a map of field to messages.
func extractServerMessage(body []byte) string {
	obj, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return strings.TrimSpace(plainTextMessage(body))
	}

	if v, err := obj.GetValue("errors"); err == nil {
		if msg := flattenErrors(v); msg != "" {
			return msg
		}
	}
	if s, err := obj.GetString("error"); err == nil && s != "" {
		return s
	}
	if s, err := obj.GetString("message"); err == nil && s != "" {
		return s
	}
	return ""
}

func flattenErrors(v *jason.Value) string {
	if s, err := v.String(); err == nil {
		return s
	}
	if arr, err := v.Array(); err == nil {
		parts := make([]string, 0, len(arr))
		for _, item := range arr {
			if s := flattenErrors(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	if obj, err := v.Object(); err == nil {
		fields := obj.Map()
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := flattenErrors(fields[k]); s != "" {
				parts = append(parts, k+" "+s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// plainTextMessage accepts short non-JSON bodies, ignoring HTML error pages.
func plainTextMessage(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" || strings.HasPrefix(s, "<") || len(s) > 200 {
		return ""
	}
	return s
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none
func StatusCode(err error) int {
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return 0
	}
	if v, ok := ee.ContextValue(ctxStatusCode); ok {
		if code, ok := v.(int); ok {
			return code
		}
	}
	return 0
}

// ServerMessage returns the message supplied by the backend, if any
func ServerMessage(err error) string {
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return ""
	}
	if v, ok := ee.ContextValue(ctxServerMessage); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IsUnauthorized reports whether err is a 401 response
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// Message picks the text shown to the user for err: the server's message,
// then a client-side validation message, then fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := ServerMessage(err); msg != "" {
		return msg
	}
	if errors.IsValidation(err) && StatusCode(err) == 0 {
		return err.Error()
	}
	if fallback == "" {
		return GenericErrorMessage
	}
	return fallback
}
