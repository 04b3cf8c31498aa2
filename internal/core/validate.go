package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var pluginIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]+$`)

// ValidatePlugins enforces basic plugin contract invariants at startup.
func ValidatePlugins(plugins []Plugin) error {
	seen := make(map[string]bool)
	for _, plugin := range plugins {
		id := plugin.ID()
		manifest := plugin.Manifest()
		if id == "" {
			return fmt.Errorf("plugin id is empty")
		}
		if !pluginIDPattern.MatchString(id) {
			return fmt.Errorf("plugin id %q does not match %s", id, pluginIDPattern.String())
		}
		if manifest.PluginID != id {
			return fmt.Errorf("plugin id mismatch: id=%q manifest=%q", id, manifest.PluginID)
		}
		if seen[id] {
			return fmt.Errorf("duplicate plugin id: %s", id)
		}
		seen[id] = true
	}
	return nil
}

// FilterPlugins keeps the compiled plugins enabled by config. With all set
// every compiled plugin is returned.
func FilterPlugins(compiled []Plugin, enabled map[string]bool, all bool) []Plugin {
	if all {
		return compiled
	}
	out := make([]Plugin, 0, len(compiled))
	for _, p := range compiled {
		if enabled[p.ID()] {
			out = append(out, p)
		}
	}
	return out
}

// ValidateEnabledPlugins fails when config enables a plugin this build
// does not include.
func ValidateEnabledPlugins(compiled []Plugin, enabled map[string]bool, all bool) error {
	if all {
		return nil
	}
	known := make(map[string]bool, len(compiled))
	for _, p := range compiled {
		known[p.ID()] = true
	}
	var missing []string
	for id, on := range enabled {
		if on && !known[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("enabled plugins not compiled in: %s", strings.Join(missing, ", "))
	}
	return nil
}
