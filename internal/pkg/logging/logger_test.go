package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "checkout.log")
	logger, err := NewLogger(Options{Service: "checkout", Env: "test", LogFile: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("ready")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "ready", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "checkout", entry["service"])
	assert.Equal(t, "test", entry["env"])
}

func TestNewLoggerDebug(t *testing.T) {
	logger, err := NewLogger(Options{Debug: true, OTelScope: "checkout-test"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
