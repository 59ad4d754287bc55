package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("disabled config needs nothing", func(t *testing.T) {
		assert.NoError(t, (&Config{}).Validate())
	})

	t.Run("defaults are valid when enabled", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects empty endpoint", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		cfg.Endpoint = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects insecure remote endpoint", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		cfg.Endpoint = "collector.example.com:4317"
		assert.Error(t, cfg.Validate())
	})

	t.Run("allows secure remote endpoint", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		cfg.Endpoint = "collector.example.com:4317"
		cfg.Insecure = false
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects non-positive export interval", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		cfg.ExportInterval = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestIsLocalEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		local    bool
	}{
		{"localhost:4317", true},
		{"127.0.0.1:4317", true},
		{"[::1]:4317", true},
		{"collector.example.com:4317", false},
		{"10.0.0.5:4317", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.local, isLocalEndpoint(tt.endpoint), tt.endpoint)
	}
}

func TestNew(t *testing.T) {
	t.Run("disabled returns no-op instance", func(t *testing.T) {
		tel, err := New(context.Background(), &Config{})
		require.NoError(t, err)
		assert.NoError(t, tel.Shutdown(context.Background()))
	})

	t.Run("nil config behaves like defaults", func(t *testing.T) {
		tel, err := New(context.Background(), nil)
		require.NoError(t, err)
		assert.NoError(t, tel.Shutdown(context.Background()))
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		_, err := New(context.Background(), &Config{
			Enabled:        true,
			ExportInterval: time.Second,
		})
		require.Error(t, err)
	})
}
