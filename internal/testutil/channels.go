// Package testutil provides shared test helpers for the Faunagram client.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Common test timeouts.
const (
	// DefaultTestTimeout bounds waits for asynchronous work in tests.
	DefaultTestTimeout = 5 * time.Second

	// QuietPeriod is how long a test watches a channel that must stay silent.
	QuietPeriod = 20 * time.Millisecond
)

// WaitForChannel waits for a signal on ch or fails after timeout.
// A context's Done channel works as well.
func WaitForChannel(t *testing.T, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		require.Fail(t, msg)
	}
}

// AssertNoSignal fails when ch fires within wait.
func AssertNoSignal(t *testing.T, ch <-chan struct{}, wait time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
		require.Fail(t, msg)
	case <-time.After(wait):
	}
}
