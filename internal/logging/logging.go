// Package logging provides a context-aware Zap wrapper for simbench.
//
// Log calls carry a context.Context so correlation identifiers (project,
// simulation, request) attached upstream flow into every line without each
// call site repeating them.
package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level  zapcore.Level     `koanf:"level"`
	Format string            `koanf:"format"`
	Fields map[string]string `koanf:"fields"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
	}
}

// Validate checks the config for unsupported values.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unsupported format %q (want json or console)", c.Format)
	}
	return nil
}

// Logger wraps Zap with context-aware methods.
type Logger struct {
	zap *zap.Logger
}

// NewLogger creates a logger from config.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.Level)
	zapCfg.Encoding = cfg.Format
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building zap logger: %w", err)
	}

	if len(cfg.Fields) > 0 {
		fields := make([]zap.Field, 0, len(cfg.Fields))
		for k, v := range cfg.Fields {
			fields = append(fields, zap.String(k, v))
		}
		zapLogger = zapLogger.With(fields...)
	}

	return &Logger{zap: zapLogger}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Zap exposes the underlying zap logger for collaborators that take one.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap.Debug(msg, append(ContextFields(ctx), fields...)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap.Info(msg, append(ContextFields(ctx), fields...)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap.Warn(msg, append(ContextFields(ctx), fields...)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap.Error(msg, append(ContextFields(ctx), fields...)...)
}
