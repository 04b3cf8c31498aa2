package core

import "github.com/prometheus/client_golang/prometheus"

// MetricsRegistry builds a registry from plugin collectors plus any extra
// process-level collectors.
func MetricsRegistry(plugins []Plugin, extra ...prometheus.Collector) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	for _, plugin := range plugins {
		for _, collector := range plugin.Collectors() {
			registry.MustRegister(collector)
		}
	}
	for _, collector := range extra {
		registry.MustRegister(collector)
	}

	return registry
}

// BuildInfo is a constant gauge labelled with the daemon version.
func BuildInfo(version string) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "botvac_build_info",
		Help:        "Build information",
		ConstLabels: prometheus.Labels{"version": version},
	}, func() float64 { return 1 })
}
