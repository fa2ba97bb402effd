package observability

import (
	"os"
	"path/filepath"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/faunagram-go/internal/errors"
)

func findMetric(t *testing.T, m *Metrics, name string) *dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestMetricsRecordAndGather(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.API.RecordRequest("GET", "sightings", 200, 0.12)
	m.API.RecordRequest("GET", "sightings", 0, 0.5)
	m.API.RecordUnauthorized()
	m.Query.RecordLookup("sightings", true)
	m.Query.RecordFetch("comments", errors.NewStd("boom"))
	m.ImageSearch.RecordCache(false)

	requests := findMetric(t, m, "faunagram_api_requests_total")
	require.NotNil(t, requests)
	assert.Len(t, requests.GetMetric(), 2)

	unauthorized := findMetric(t, m, "faunagram_api_unauthorized_total")
	require.NotNil(t, unauthorized)
	assert.InDelta(t, 1.0, unauthorized.GetMetric()[0].GetCounter().GetValue(), 0.0001)

	fetches := findMetric(t, m, "faunagram_query_fetches_total")
	require.NotNil(t, fetches)
	labels := fetches.GetMetric()[0].GetLabel()
	assert.Contains(t, []string{labels[0].GetValue(), labels[1].GetValue()}, "error")
}

func TestWriteTextfile(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.Query.SubscriptionAdded()

	path := filepath.Join(t.TempDir(), "faunagram.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "faunagram_query_subscriptions 1")
}
