package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PolicyDecisions counts access policy evaluations by role tag and outcome (allow|deny|error).
	PolicyDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibeplanner_policy_decisions_total",
			Help: "Total number of access policy evaluations",
		},
		[]string{"role", "result"},
	)

	// DeniedWrites counts mutations rejected by the access policy, by resource kind.
	DeniedWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibeplanner_denied_writes_total",
			Help: "Total number of write operations rejected by the access policy",
		},
		[]string{"resource"},
	)

	// RealtimeConnections tracks currently connected websocket clients.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibeplanner_realtime_connections",
			Help: "Number of open realtime connections",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibeplanner_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
