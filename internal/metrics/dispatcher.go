package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatcherRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walletbridge",
		Subsystem: "dispatcher",
		Name:      "requests_total",
		Help:      "Count of dApp requests dispatched, by method.",
	}, []string{"network", "method", "status"})

	dispatcherRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "walletbridge",
		Subsystem: "dispatcher",
		Name:      "request_duration_seconds",
		Help:      "Duration of dispatching a dApp request end to end.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 3, 10),
	}, []string{"network", "method", "status"})
)

// Dispatcher tracks metrics for the request dispatcher. Durations include the
// time a request waits on the approval UI.
type Dispatcher struct {
	network string
}

// NewDispatcher constructs a Dispatcher with defaults.
func NewDispatcher(network string) *Dispatcher {
	if network == "" {
		network = "unknown"
	}
	return &Dispatcher{network: network}
}

// Observe records one dispatched request outcome and duration.
func (m Dispatcher) Observe(method string, err error, started time.Time) {
	if method == "" {
		method = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	dispatcherRequestsTotal.WithLabelValues(m.network, method, status).Inc()
	dispatcherRequestDuration.WithLabelValues(m.network, method, status).
		Observe(time.Since(started).Seconds())
}
