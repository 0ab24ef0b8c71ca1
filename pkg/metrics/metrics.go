// Package metrics provides Prometheus instrumentation for colschema.
//
// # Overview
//
// Schema derivation and the columnar writer report into process-wide
// collectors registered with the default Prometheus registry:
//
//	timer := metrics.NewTimer()
//	node, err := builder.Build(rootType)
//	metrics.ObserveBuild("three_level", err, timer.Stop())
//
// Counter: monotonically increasing values (builds, rows, bytes)
// Histogram: distribution of values (build latency)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/colschema/pkg/errors"
)

const (
	// OutcomeSuccess labels a build that produced a schema
	OutcomeSuccess = "success"
)

var (
	// SchemaBuilds counts schema derivations.
	// Labels: encoding (one_level/two_level/three_level), outcome (success or the error type)
	//
	// Example:
	//	metrics.SchemaBuilds.WithLabelValues("three_level", "recursive_type").Inc()
	SchemaBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colschema_schema_builds_total",
			Help: "Total number of schema derivations",
		},
		[]string{"encoding", "outcome"},
	)

	// SchemaBuildDuration tracks how long one derivation takes.
	// Derivation is pure CPU work over a type graph, so buckets start in the microseconds.
	SchemaBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "colschema_schema_build_duration_seconds",
			Help: "Schema derivation latency in seconds",
			Buckets: []float64{
				1e-6, // 1μs
				1e-5, // 10μs
				1e-4, // 100μs
				1e-3, // 1ms
				1e-2, // 10ms
				1e-1, // 100ms
			},
		},
		[]string{"encoding"},
	)

	// SchemaCacheHits counts derivations served from a schemagen.Cache
	SchemaCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "colschema_schema_cache_hits_total",
			Help: "Number of schema lookups served from cache",
		},
	)

	// RowsWritten tracks rows shredded into parquet files
	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colschema_rows_written_total",
			Help: "Total number of rows written",
		},
		[]string{"root_type"},
	)

	// BytesWritten tracks bytes emitted to the underlying output stream
	BytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colschema_bytes_written_total",
			Help: "Total number of bytes written",
		},
		[]string{"root_type"},
	)

	// RowsRead tracks rows decoded by readers
	RowsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "colschema_rows_read_total",
			Help: "Total number of rows read",
		},
	)
)

// ObserveBuild records the outcome and latency of one schema derivation.
func ObserveBuild(encoding string, err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = string(errors.TypeOf(err))
		if outcome == "" {
			outcome = string(errors.ErrorTypeInternal)
		}
	}
	SchemaBuilds.WithLabelValues(encoding, outcome).Inc()
	SchemaBuildDuration.WithLabelValues(encoding).Observe(elapsed.Seconds())
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
