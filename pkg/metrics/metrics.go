// Package metrics provides Prometheus observability for attrflow data
// connectors: retrieval counts and latency, validation failures and
// connection pool utilization, all labeled by connector instance.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionsTotal counts attribute retrievals by outcome.
	// Labels: connector (instance ID), backend, status (success, empty,
	// or the error type)
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attrflow_resolutions_total",
			Help: "Total number of attribute retrievals",
		},
		[]string{"connector", "backend", "status"},
	)

	// ResolutionLatency tracks retrieval latency per connector
	ResolutionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "attrflow_resolution_latency_seconds",
			Help: "Attribute retrieval latency in seconds",
			Buckets: []float64{
				0.001, // 1ms - warm pool, local store
				0.005,
				0.01,
				0.05,
				0.1,
				0.5,
				1,
				5, // slow directory referrals, pool waits
			},
		},
		[]string{"connector", "backend"},
	)

	// ValidationFailures counts failed health checks per connector
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attrflow_validation_failures_total",
			Help: "Total number of failed connector validations",
		},
		[]string{"connector", "backend"},
	)

	// PoolConnections tracks connection pool utilization.
	// Labels: connector, state (active or idle)
	PoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "attrflow_pool_connections",
			Help: "Current connection pool utilization",
		},
		[]string{"connector", "state"},
	)

	// PoolAcquireTimeouts counts lease waits that exceeded the acquire
	// timeout
	PoolAcquireTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attrflow_pool_acquire_timeouts_total",
			Help: "Total number of timed-out connection acquisitions",
		},
		[]string{"connector"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. Can be called more than
// once; each call returns the total elapsed time.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveResolution records one retrieval outcome and its latency
func ObserveResolution(connector, backend, status string, elapsed time.Duration) {
	ResolutionsTotal.WithLabelValues(connector, backend, status).Inc()
	ResolutionLatency.WithLabelValues(connector, backend).Observe(elapsed.Seconds())
}
