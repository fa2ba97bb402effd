// Package observability wires the Prometheus collectors of the Faunagram client
// into one registry and exports them.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry    *prometheus.Registry
	API         *metrics.APIMetrics
	Query       *metrics.QueryMetrics
	ImageSearch *metrics.ImageSearchMetrics
}

// NewMetrics creates a registry with every client collector registered.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	apiMetrics, err := metrics.NewAPIMetrics(registry)
	if err != nil {
		return nil, err
	}

	queryMetrics, err := metrics.NewQueryMetrics(registry)
	if err != nil {
		return nil, err
	}

	imageMetrics, err := metrics.NewImageSearchMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry:    registry,
		API:         apiMetrics,
		Query:       queryMetrics,
		ImageSearch: imageMetrics,
	}, nil
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
// The CLI is short-lived, so this replaces a scrape endpoint.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write-metrics-textfile").
			Build()
	}
	return nil
}
