package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// QueryMetrics tracks the query cache. A nil *QueryMetrics records nothing.
type QueryMetrics struct {
	lookupsTotal       *prometheus.CounterVec
	fetchesTotal       *prometheus.CounterVec
	dedupedTotal       *prometheus.CounterVec
	invalidationsTotal *prometheus.CounterVec
	subscriptions      prometheus.Gauge
	registry           *prometheus.Registry
}

// NewQueryMetrics creates and registers query cache metrics
func NewQueryMetrics(registry *prometheus.Registry) (*QueryMetrics, error) {
	m := &QueryMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register query metrics: %w", err)
	}
	return m, nil
}

func (m *QueryMetrics) initMetrics() {
	m.lookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "faunagram_query_cache_lookups_total",
		Help: "Cache lookups by resource and result",
	}, []string{"resource", "result"})

	m.fetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "faunagram_query_fetches_total",
		Help: "Fetch functions executed by resource and status",
	}, []string{"resource", "status"})

	m.dedupedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "faunagram_query_deduplicated_total",
		Help: "Callers that joined an in-flight fetch instead of issuing one",
	}, []string{"resource"})

	m.invalidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "faunagram_query_invalidations_total",
		Help: "Cache keys invalidated by resource",
	}, []string{"resource"})

	m.subscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "faunagram_query_subscriptions",
		Help: "Active query subscriptions",
	})
}

func (m *QueryMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.lookupsTotal, m.fetchesTotal, m.dedupedTotal, m.invalidationsTotal, m.subscriptions}
}

// Describe implements the Collector interface
func (m *QueryMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *QueryMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordLookup records a cache hit or miss
func (m *QueryMetrics) RecordLookup(resource string, hit bool) {
	if m == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.lookupsTotal.WithLabelValues(resource, result).Inc()
}

// RecordFetch records an executed fetch
func (m *QueryMetrics) RecordFetch(resource string, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.fetchesTotal.WithLabelValues(resource, status).Inc()
}

// RecordDeduplicated records a caller sharing an in-flight fetch
func (m *QueryMetrics) RecordDeduplicated(resource string) {
	if m == nil {
		return
	}
	m.dedupedTotal.WithLabelValues(resource).Inc()
}

// RecordInvalidation records an invalidated key
func (m *QueryMetrics) RecordInvalidation(resource string) {
	if m == nil {
		return
	}
	m.invalidationsTotal.WithLabelValues(resource).Inc()
}

// SubscriptionAdded increments the active subscription gauge
func (m *QueryMetrics) SubscriptionAdded() {
	if m == nil {
		return
	}
	m.subscriptions.Inc()
}

// SubscriptionRemoved decrements the active subscription gauge
func (m *QueryMetrics) SubscriptionRemoved() {
	if m == nil {
		return
	}
	m.subscriptions.Dec()
}
