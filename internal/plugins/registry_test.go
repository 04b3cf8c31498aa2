package plugins

import (
	"testing"

	"github.com/joshp123/botvac/internal/config"
	"github.com/joshp123/botvac/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompiledBotvacWithSimulator(t *testing.T) {
	cfg := &config.Config{
		SchemaVersion: config.SchemaVersion,
		Botvac: &config.BotvacConfig{
			Remote:    config.DefaultRemote,
			Username:  "user",
			Password:  "pass",
			Dock:      &config.DockConfig{MaxAttempts: 3, StopStrategy: "poll"},
			RateLimit: &config.RateConfig{},
			Simulator: &config.SimulatorConfig{Name: "Hall"},
		},
	}

	active := Compiled(cfg, nil)
	require.Len(t, active, 1)
	assert.Equal(t, "botvac", active[0].ID())
	assert.Equal(t, core.HealthHealthy, active[0].Health())
	assert.NoError(t, core.ValidatePlugins(active))
}

func TestCompiledUnknownRemote(t *testing.T) {
	cfg := &config.Config{
		Botvac: &config.BotvacConfig{Remote: "cloud", Username: "user", Password: "pass"},
	}

	active := Compiled(cfg, nil)
	require.Len(t, active, 1)
	assert.Equal(t, core.HealthError, active[0].Health())
}

func TestCompiledSkipsMissingSection(t *testing.T) {
	assert.Empty(t, Compiled(&config.Config{}, nil))
	assert.Nil(t, Compiled(nil, nil))
}
