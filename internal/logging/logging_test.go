package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "json", "debug")
	require.NoError(t, err)

	logger.WithField("module", "botvac").Debug("polling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "polling", entry["message"])
	assert.Equal(t, "debug", entry["level"])
	fields, ok := entry["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "botvac", fields["module"])
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "text", "warn")
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New(nil, "syslog", "info")
	assert.Error(t, err)

	_, err = New(nil, "text", "loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() { logger.Error("nothing") })
}
