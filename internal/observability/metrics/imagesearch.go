package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ImageSearchMetrics contains metrics for the animal image lookup chain.
// A nil *ImageSearchMetrics records nothing.
type ImageSearchMetrics struct {
	LookupsTotal   *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	LookupDuration *prometheus.HistogramVec
	registry       *prometheus.Registry
}

// NewImageSearchMetrics creates and registers image search metrics
func NewImageSearchMetrics(registry *prometheus.Registry) (*ImageSearchMetrics, error) {
	m := &ImageSearchMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register image search metrics: %w", err)
	}
	return m, nil
}

func (m *ImageSearchMetrics) initMetrics() {
	m.LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "faunagram_image_search_lookups_total",
		Help: "Image lookups by provider and status",
	}, []string{"provider", "status"}) // provider: unsplash, pexels, placeholder

	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "faunagram_image_search_cache_hits_total",
		Help: "Total number of image search cache hits.",
	})

	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "faunagram_image_search_cache_misses_total",
		Help: "Total number of image search cache misses.",
	})

	m.LookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "faunagram_image_search_duration_seconds",
		Help:    "Time taken by image search providers",
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount13), // 1ms to ~8s
	}, []string{"provider"})
}

// Describe implements the Collector interface
func (m *ImageSearchMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.LookupsTotal.Describe(ch)
	m.CacheHits.Describe(ch)
	m.CacheMisses.Describe(ch)
	m.LookupDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *ImageSearchMetrics) Collect(ch chan<- prometheus.Metric) {
	m.LookupsTotal.Collect(ch)
	m.CacheHits.Collect(ch)
	m.CacheMisses.Collect(ch)
	m.LookupDuration.Collect(ch)
}

// RecordLookup records a provider attempt
func (m *ImageSearchMetrics) RecordLookup(provider string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.LookupsTotal.WithLabelValues(provider, status).Inc()
	m.LookupDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordCache records an image cache lookup
func (m *ImageSearchMetrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}
