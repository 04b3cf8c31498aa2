package server

import (
	"encoding/json"
	"net/http"

	"github.com/joshp123/botvac/internal/core"
)

// HealthHandler answers 200 unless a plugin is in the error state.
func HealthHandler(registry *core.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if registry != nil && !registry.Healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unhealthy"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// PluginsHandler lists plugins, or describes one with ?id=.
func PluginsHandler(registry *core.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if id := r.URL.Query().Get("id"); id != "" {
			desc, ok := registry.DescribePlugin(id)
			if !ok {
				http.Error(w, `{"error":"plugin not found"}`, http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(desc)
			return
		}
		_ = json.NewEncoder(w).Encode(registry.ListPlugins())
	})
}
