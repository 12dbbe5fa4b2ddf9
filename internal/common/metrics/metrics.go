// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded for store operations.
const (
	OutcomeSuccess  = "success"
	OutcomeNoop     = "noop"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobvault_store_operations_total",
			Help: "Total number of job store operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobvault_store_operation_duration_seconds",
			Help:    "Duration of job store operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"operation"},
	)

	StoredJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobvault_jobs_listed",
			Help: "Number of job applications returned by the last list",
		},
	)
)

// ObserveStoreOperation counts one operation and records its duration.
func ObserveStoreOperation(operation, outcome string, started time.Time) {
	StoreOperations.WithLabelValues(operation, outcome).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
