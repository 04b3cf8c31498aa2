package core

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
)

// HealthStatus represents plugin health states for registry reporting.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthDegraded HealthStatus = "DEGRADED"
	HealthError    HealthStatus = "ERROR"
)

// Manifest describes a plugin for discovery and registry metadata.
type Manifest struct {
	PluginID    string   `json:"plugin_id"`
	DisplayName string   `json:"display_name"`
	Version     string   `json:"version"`
	Services    []string `json:"services"`
}

// Plugin is the compile-time contract for all botvac daemon plugins.
type Plugin interface {
	ID() string
	Manifest() Manifest
	AgentsMD() string
	RegisterGRPC(*grpc.Server)
	Collectors() []prometheus.Collector
	Health() HealthStatus
	HealthMessage() string
}

// HTTPRegistrant allows plugins to expose HTTP handlers.
type HTTPRegistrant interface {
	RegisterHTTP(*http.ServeMux)
}

// Closer is implemented by plugins holding resources released on shutdown.
type Closer interface {
	Close() error
}

// Starter is implemented by plugins with background work that needs the
// daemon context.
type Starter interface {
	Start(ctx context.Context) error
}
