package httpclient

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		client := New(nil)
		assert.Equal(t, DefaultTimeout, client.defaultTimeout)
		assert.Equal(t, defaultUserAgent, client.userAgent)
	})

	t.Run("custom config", func(t *testing.T) {
		cfg := Config{DefaultTimeout: 5 * time.Second, UserAgent: "faunagram-test/1.0"}
		client := New(&cfg)

		assert.Equal(t, 5*time.Second, client.defaultTimeout)
		assert.Equal(t, "faunagram-test/1.0", client.userAgent)
		assert.Equal(t, 0, cfg.MaxIdleConns, "caller config must not be mutated")
	})
}

func TestDo_BodyReadableAfterReturn(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"id":1}]`))
	})

	client := newTestClientWithConfig(t, &Config{DefaultTimeout: time.Second})

	resp, err := client.Get(t.Context(), server.URL)
	require.NoError(t, err)
	defer closeResponseBody(t, resp)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(body))
}

func TestDo_UserAgent(t *testing.T) {
	var receivedUA atomic.Value
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		receivedUA.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	})

	client := newTestClientWithConfig(t, &Config{UserAgent: "faunagram-cli/2.0"})

	resp, err := client.Get(t.Context(), server.URL)
	require.NoError(t, err)
	closeResponseBody(t, resp)

	assert.Equal(t, "faunagram-cli/2.0", receivedUA.Load())
}

func TestDo_ContextCancellation(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	resp, err := client.Get(ctx, server.URL)
	closeResponseBody(t, resp)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_DefaultTimeout(t *testing.T) {
	release := make(chan struct{})
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	client := newTestClientWithConfig(t, &Config{DefaultTimeout: 50 * time.Millisecond})

	resp, err := client.Get(t.Context(), server.URL)
	closeResponseBody(t, resp)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_Hooks(t *testing.T) {
	client := newTestClient(t)
	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodGet, "https://api.example.com/animals",
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	var before, after atomic.Int32
	var gotStatus atomic.Int32
	client.SetBeforeRequestHook(func(r *http.Request) {
		before.Add(1)
		r.Header.Set("X-Request-ID", "req-1")
	})
	client.SetAfterResponseHook(func(r *http.Request, resp *http.Response, err error, elapsed time.Duration) {
		after.Add(1)
		if resp != nil {
			gotStatus.Store(int32(resp.StatusCode))
		}
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	})

	resp, err := client.Get(t.Context(), "https://api.example.com/animals")
	require.NoError(t, err)
	closeResponseBody(t, resp)

	assert.Equal(t, int32(1), before.Load())
	assert.Equal(t, int32(1), after.Load())
	assert.Equal(t, int32(http.StatusOK), gotStatus.Load())
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestDo_NilRequest(t *testing.T) {
	client := newTestClient(t)
	resp, err := client.Do(t.Context(), nil)
	closeResponseBody(t, resp)
	require.Error(t, err)
}
