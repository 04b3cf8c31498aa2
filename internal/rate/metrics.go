package rate

import "github.com/prometheus/client_golang/prometheus"

var (
	remainingGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "botvac_rate_limit_remaining",
			Help: "Remaining calls for the provider rate-limit window",
		},
		[]string{"provider", "window"},
	)
	retryAfterGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "botvac_rate_limit_retry_after_seconds",
			Help: "Cooldown seconds imposed on the provider",
		},
		[]string{"provider"},
	)
	rejectedCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botvac_rate_limit_rejected_total",
			Help: "Calls refused by the rate guard",
		},
		[]string{"provider", "reason"},
	)
)

// MetricsCollectors exposes shared rate-limit collectors.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		remainingGauge,
		retryAfterGauge,
		rejectedCalls,
	}
}
