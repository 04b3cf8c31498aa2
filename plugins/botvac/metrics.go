package botvac

import "github.com/prometheus/client_golang/prometheus"

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botvac_operations_total",
			Help: "Sequencer operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "botvac_operation_duration_seconds",
			Help:    "Wall time of sequencer operations",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)
	dockPollAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "botvac_dock_poll_attempts",
			Help:    "State polls needed before the robot accepted goToBase",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 40, 50},
		},
	)
	remoteCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botvac_remote_calls_total",
			Help: "Cloud API calls by method and result",
		},
		[]string{"method", "result"},
	)
	sessionValid = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "botvac_session_valid",
			Help: "Cached session validity (1=valid, 0=invalid)",
		},
	)
)

// MetricsCollectors returns the sequencer collectors.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		operationsTotal,
		operationDuration,
		dockPollAttempts,
		remoteCalls,
		sessionValid,
	}
}

func observeRemote(method string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	remoteCalls.WithLabelValues(method, result).Inc()
}
