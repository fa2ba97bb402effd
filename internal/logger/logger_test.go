package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleLoggerWritesModuleAndFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelDebug, time.UTC).Module("query").Module("cache")

	log.Debug("cache miss", String("key", "sightings"), Int("subscribers", 2))

	out := buf.String()
	assert.Contains(t, out, "module=query.cache")
	assert.Contains(t, out, "key=sightings")
	assert.Contains(t, out, "subscribers=2")
	assert.NotContains(t, out, "time=")
}

func TestModuleLoggerLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelWarn, time.UTC)

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := NewSlogLogger(buf, LogLevelInfo, time.UTC)
	child := parent.With(String("request_id", "abc"))

	parent.Info("parent")
	child.Info("child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "request_id")
	assert.Contains(t, lines[1], "request_id=abc")
}

func TestWithContextAddsTraceID(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	log.WithContext(WithTraceID(t.Context(), "trace-1")).Info("hello")

	assert.Contains(t, buf.String(), "trace_id=trace-1")
}

func TestSensitiveFieldsAreRedacted(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	log.Info("login", String("token", "eyJhbGciOi"), String("url", "https://api.unsplash.com/search/photos?client_id=secret123&query=fox"))

	out := buf.String()
	assert.NotContains(t, out, "eyJhbGciOi")
	assert.NotContains(t, out, "secret123")
	assert.Contains(t, out, "query=fox")
}

func TestCentralLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	console := &bytes.Buffer{}

	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: true, Level: "error"},
		FileOutput:   &FileOutput{Enabled: true, Path: path, Level: "info"},
		ModuleLevels: map[string]string{"api": "debug"},
	}, console)
	require.NoError(t, err)

	cl.Module("api").Info("request sent", String("method", "GET"))
	require.NoError(t, cl.Flush())
	require.NoError(t, cl.Close())

	assert.Empty(t, console.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "request sent", entry["msg"])
	assert.Equal(t, "api", entry["module"])
	assert.Equal(t, "GET", entry["method"])
}

func TestCentralLoggerRejectsBadTimezone(t *testing.T) {
	_, err := newCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, traceLevelValue, parseLogLevel("trace"))
	assert.Equal(t, parseLogLevel("info"), parseLogLevel("bogus"))
}
