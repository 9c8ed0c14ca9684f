package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prunerPassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walletbridge",
		Subsystem: "pruner",
		Name:      "passes_total",
		Help:      "Count of history pruning passes.",
	}, []string{"network", "pass", "status"})

	prunerPassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "walletbridge",
		Subsystem: "pruner",
		Name:      "pass_duration_seconds",
		Help:      "Duration of history pruning passes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "pass", "status"})
)

// Pruner tracks metrics for the bounded history pruner.
type Pruner struct {
	network string
}

// NewPruner constructs a Pruner with defaults.
func NewPruner(network string) *Pruner {
	if network == "" {
		network = "unknown"
	}
	return &Pruner{network: network}
}

// Observe records a pruning pass outcome and duration. Partial failures count
// as errors even though the pass still writes back what it could.
func (m Pruner) Observe(pass string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	prunerPassesTotal.WithLabelValues(m.network, pass, status).Inc()
	prunerPassDuration.WithLabelValues(m.network, pass, status).
		Observe(time.Since(started).Seconds())
}
