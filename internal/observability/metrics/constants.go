// Package metrics provides Prometheus collectors for the Faunagram client components.
package metrics

// Label value constants used for metric labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	ResultHit  = "hit"
	ResultMiss = "miss"

	// StatusNetworkError marks requests that never produced an HTTP status.
	StatusNetworkError = "network_error"
)

// Histogram bucket configuration constants.
const (
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001

	BucketFactor2 = 2

	BucketCount12 = 12
	BucketCount13 = 13
)
