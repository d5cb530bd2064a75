package metrics

import "github.com/prometheus/client_golang/prometheus"

// Breaker Prometheus metrics.
var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendgate",
			Name:      "commands_total",
			Help:      "Total number of parsed breaker commands",
		},
		[]string{"command"}, // "status" / "unknown"
	)

	ConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendgate",
			Name:      "connections_total",
			Help:      "Total number of breaker connections by outcome",
		},
		[]string{"result"}, // "replied" / "read_error" / "write_error" / "panic"
	)

	ConnectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "spendgate",
			Name:      "connection_duration_seconds",
			Help:      "Time from accept to close of a breaker connection",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendgate",
			Name:      "upstream_requests_total",
			Help:      "Total number of billing usage requests",
		},
		[]string{"status"}, // "success" / "error"
	)

	UpstreamRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "spendgate",
			Name:      "upstream_request_duration_seconds",
			Help:      "Billing usage request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendgate",
			Name:      "upstream_errors_total",
			Help:      "Billing usage failures treated as zero cost",
		},
		[]string{"error_type"},
	)

	VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendgate",
			Name:      "verdicts_total",
			Help:      "Recent-cost verdicts returned",
		},
		[]string{"verdict"}, // "true" / "false"
	)
)

var breakerMetricsRegistered bool

// RegisterBreakerMetrics registers the breaker metrics. Must be called once from main (and TestMain).
func RegisterBreakerMetrics() {
	if breakerMetricsRegistered {
		return
	}
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(ConnectionsTotal)
	prometheus.MustRegister(ConnectionDuration)
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(UpstreamErrorsTotal)
	prometheus.MustRegister(VerdictsTotal)
	breakerMetricsRegistered = true
}
