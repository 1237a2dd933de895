package metrics

import "github.com/prometheus/client_golang/prometheus"

// ResilienceMetrics tracks retries and circuit breaker transitions of outbound calls.
type ResilienceMetrics struct {
	service      string
	retriesTotal *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

func newResilienceMetrics(registry *prometheus.Registry, service string) *ResilienceMetrics {
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbound",
			Name:      "retries_total",
			Help:      "Retry attempts of outbound calls by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbound",
			Name:      "breaker_state",
			Help:      "Circuit breaker state by operation: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"service", "operation"},
	)
	registry.MustRegister(retriesTotal, breakerState)
	return &ResilienceMetrics{service: service, retriesTotal: retriesTotal, breakerState: breakerState}
}

func (m *ResilienceMetrics) RetryAttempted(operation string) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *ResilienceMetrics) BreakerStateChanged(operation, state string) {
	m.breakerState.WithLabelValues(m.service, operation).Set(breakerStateValue(state))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
