// Package metrics holds the prometheus decorators injected into the session
// engine, the dispatcher, the relay client and the history pruner.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	engineOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walletbridge",
		Subsystem: "session_engine",
		Name:      "operations_total",
		Help:      "Count of session engine operations.",
	}, []string{"network", "operation", "status"})

	engineOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "walletbridge",
		Subsystem: "session_engine",
		Name:      "operation_duration_seconds",
		Help:      "Duration of session engine operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "operation", "status"})
)

// Engine tracks metrics for the session lifecycle engine.
type Engine struct {
	network string
}

// NewEngine constructs an Engine with defaults.
func NewEngine(network string) *Engine {
	if network == "" {
		network = "unknown"
	}
	return &Engine{network: network}
}

// Observe records an engine operation outcome and duration.
func (m Engine) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	engineOperationsTotal.WithLabelValues(m.network, operation, status).Inc()
	engineOperationDuration.WithLabelValues(m.network, operation, status).
		Observe(time.Since(started).Seconds())
}
