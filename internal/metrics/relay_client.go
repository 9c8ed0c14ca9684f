package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walletbridge",
		Subsystem: "relay_client",
		Name:      "operations_total",
		Help:      "Count of relay wire operations (dial, publish, subscribe).",
	}, []string{"network", "operation", "status"})

	relayOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "walletbridge",
		Subsystem: "relay_client",
		Name:      "operation_duration_seconds",
		Help:      "Duration of relay wire operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "operation", "status"})
)

// RelayClient tracks metrics for the relay websocket client.
type RelayClient struct {
	network string
}

// NewRelayClient constructs a RelayClient with defaults.
func NewRelayClient(network string) *RelayClient {
	if network == "" {
		network = "unknown"
	}
	return &RelayClient{network: network}
}

// Observe records a relay operation outcome and duration.
func (m RelayClient) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	relayOperationsTotal.WithLabelValues(m.network, operation, status).Inc()
	relayOperationDuration.WithLabelValues(m.network, operation, status).
		Observe(time.Since(started).Seconds())
}
