package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfigValidate(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		assert.NoError(t, NewDefaultConfig().Validate())
	})

	t.Run("accepts console format", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Format = "console"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Format = "xml"
		assert.Error(t, cfg.Validate())
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		logger, err := NewLogger(nil)
		require.NoError(t, err)
		require.NotNil(t, logger.Zap())
	})

	t.Run("static fields are attached", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Fields = map[string]string{"service": "simbench"}
		logger, err := NewLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		_, err := NewLogger(&Config{Level: zapcore.InfoLevel, Format: "bogus"})
		require.Error(t, err)
	})
}

func TestContextFields(t *testing.T) {
	t.Run("empty context yields no fields", func(t *testing.T) {
		assert.Empty(t, ContextFields(context.Background()))
	})

	t.Run("simulation scope", func(t *testing.T) {
		ctx := WithSimulation(context.Background(), SimulationScope{
			ProjectID:    "proj-1",
			SimulationID: "sim-1",
		})
		fields := ContextFields(ctx)
		assert.Equal(t, []zap.Field{
			zap.String("project.id", "proj-1"),
			zap.String("simulation.id", "sim-1"),
		}, fields)
	})

	t.Run("request id", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-42")
		fields := ContextFields(ctx)
		assert.Equal(t, []zap.Field{zap.String("request.id", "req-42")}, fields)
	})

	t.Run("simulation and request combine", func(t *testing.T) {
		ctx := WithSimulation(context.Background(), SimulationScope{ProjectID: "p", SimulationID: "s"})
		ctx = WithRequestID(ctx, "r")
		assert.Len(t, ContextFields(ctx), 3)
	})

	t.Run("blank request id is dropped", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "")
		assert.Empty(t, ContextFields(ctx))
	})
}
