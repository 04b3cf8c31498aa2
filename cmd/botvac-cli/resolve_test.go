package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialable(t *testing.T) {
	assert.Equal(t, "localhost:9000", dialable("0.0.0.0:9000"))
	assert.Equal(t, "localhost:9000", dialable(":9000"))
	assert.Equal(t, "botvac:9000", dialable("botvac:9000"))
	assert.Equal(t, "", dialable(""))
}

func TestResolveAddrPrefersEnv(t *testing.T) {
	t.Setenv("BOTVAC_GRPC_ADDR", "robot-host:7000")
	assert.Equal(t, "robot-host:7000", resolveAddr())
}

func TestAddrFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("core:\n  grpc_addr: 0.0.0.0:9100\n"), 0o600))

	assert.Equal(t, "localhost:9100", addrFromConfig(path))
	assert.Equal(t, "", addrFromConfig(filepath.Join(t.TempDir(), "missing.yaml")))

	t.Setenv("BOTVAC_GRPC_ADDR", "")
	t.Setenv("BOTVAC_CONFIG", path)
	assert.Equal(t, "localhost:9100", resolveAddr())
}
