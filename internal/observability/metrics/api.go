package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics tracks backend API calls. A nil *APIMetrics records nothing.
type APIMetrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	unauthorizedTotal prometheus.Counter
	registry          *prometheus.Registry
}

// NewAPIMetrics creates and registers API client metrics
func NewAPIMetrics(registry *prometheus.Registry) (*APIMetrics, error) {
	m := &APIMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register API metrics: %w", err)
	}
	return m, nil
}

func (m *APIMetrics) initMetrics() {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faunagram_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"method", "resource", "status_code"}, // resource: sightings, comments, users, animals, login, current_user
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "faunagram_api_request_duration_seconds",
			Help:    "Time taken for backend API requests",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~20s
		},
		[]string{"method", "resource"},
	)

	m.unauthorizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "faunagram_api_unauthorized_total",
		Help: "Total number of 401 responses that ended the session",
	})
}

// Describe implements the Collector interface
func (m *APIMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.unauthorizedTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *APIMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.unauthorizedTotal.Collect(ch)
}

// RecordRequest records a finished request. statusCode 0 means no response.
func (m *APIMetrics) RecordRequest(method, resource string, statusCode int, seconds float64) {
	if m == nil {
		return
	}
	status := StatusNetworkError
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.requestsTotal.WithLabelValues(method, resource, status).Inc()
	m.requestDuration.WithLabelValues(method, resource).Observe(seconds)
}

// RecordUnauthorized counts a session-ending 401
func (m *APIMetrics) RecordUnauthorized() {
	if m == nil {
		return
	}
	m.unauthorizedTotal.Inc()
}
