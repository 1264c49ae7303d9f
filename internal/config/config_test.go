package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"STORE", "NOTIFY_TRANSPORT", "HTTP_ADDR", "OTEL_ENDPOINT", "DEBUG"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, TransportLog, cfg.NotifyTransport)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.OtelEndpoint)
	assert.False(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE", StorePostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/checkout")
	t.Setenv("NOTIFY_TRANSPORT", TransportKafka)
	t.Setenv("KAFKA_BROKER", "localhost:9092")
	t.Setenv("DEBUG", "true")
	t.Setenv("OTEL_INSECURE", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "localhost:9092", cfg.KafkaBroker)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.OtelInsecure)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORE": StorePostgres, "DATABASE_URL": ""}},
		{"unknown store", map[string]string{"STORE": "redis"}},
		{"kafka without broker", map[string]string{"NOTIFY_TRANSPORT": TransportKafka, "KAFKA_BROKER": ""}},
		{"unknown transport", map[string]string{"NOTIFY_TRANSPORT": "smtp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE", "")
			t.Setenv("NOTIFY_TRANSPORT", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
