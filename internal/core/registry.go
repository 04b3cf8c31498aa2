package core

import (
	"sync"
)

// PluginSummary is the list view of a registered plugin.
type PluginSummary struct {
	PluginID    string `json:"plugin_id"`
	DisplayName string `json:"display_name"`
	Version     string `json:"version"`
	Status      string `json:"status"`
}

// PluginDescriptor is the detailed view of a registered plugin.
type PluginDescriptor struct {
	Manifest
	AgentsMD      string `json:"agents_md"`
	Status        string `json:"status"`
	HealthMessage string `json:"health_message,omitempty"`
}

// Registry provides plugin discovery to the HTTP surface.
type Registry struct {
	plugins []Plugin
	mu      sync.RWMutex
}

func NewRegistry(plugins []Plugin) *Registry {
	return &Registry{plugins: plugins}
}

func (r *Registry) ListPlugins() []PluginSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PluginSummary, 0, len(r.plugins))
	for _, p := range r.plugins {
		manifest := p.Manifest()
		out = append(out, PluginSummary{
			PluginID:    manifest.PluginID,
			DisplayName: manifest.DisplayName,
			Version:     manifest.Version,
			Status:      string(p.Health()),
		})
	}
	return out
}

// DescribePlugin returns the descriptor for id, or false when unknown.
func (r *Registry) DescribePlugin(id string) (PluginDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		manifest := p.Manifest()
		if manifest.PluginID != id {
			continue
		}
		return PluginDescriptor{
			Manifest:      manifest,
			AgentsMD:      p.AgentsMD(),
			Status:        string(p.Health()),
			HealthMessage: p.HealthMessage(),
		}, true
	}
	return PluginDescriptor{}, false
}

// Healthy reports whether no plugin is in the error state.
func (r *Registry) Healthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Health() == HealthError {
			return false
		}
	}
	return true
}
