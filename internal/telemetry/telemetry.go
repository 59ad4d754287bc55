// Package telemetry provides OpenTelemetry metrics export for simbench.
//
// It manages the global MeterProvider and its graceful shutdown. Telemetry
// failures never take a process down; the instance degrades to no-op.
package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool          `koanf:"enabled"`
	Endpoint       string        `koanf:"endpoint"`
	ServiceName    string        `koanf:"service_name"`
	ServiceVersion string        `koanf:"service_version"`
	Insecure       bool          `koanf:"insecure"`
	ExportInterval time.Duration `koanf:"export_interval"`
}

// NewDefaultConfig returns telemetry defaults. Export is disabled by default
// so processes without an OTLP collector run clean; instruments still work
// against the no-op global provider.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		Endpoint:       "localhost:4317",
		ServiceName:    "simbench",
		ServiceVersion: "0.1.0",
		Insecure:       true,
		ExportInterval: 15 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when telemetry is enabled")
	}
	if c.ExportInterval <= 0 {
		return fmt.Errorf("export_interval must be positive")
	}
	if c.Insecure && !isLocalEndpoint(c.Endpoint) {
		return fmt.Errorf("insecure connections to remote endpoints are not allowed")
	}
	return nil
}

func isLocalEndpoint(endpoint string) bool {
	host := endpoint
	if idx := strings.LastIndex(host, ":"); idx != -1 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	host = strings.Trim(host, "[]")
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// Telemetry owns the metrics pipeline for one process.
type Telemetry struct {
	meterProvider *sdkmetric.MeterProvider
}

// New initializes the metrics pipeline and installs it as the global
// MeterProvider. With export disabled it returns a no-op instance and the
// global provider stays untouched.
func New(ctx context.Context, cfg *Config) (*Telemetry, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	t := &Telemetry{}
	if !cfg.Enabled {
		return t, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.ExportInterval))),
	)
	otel.SetMeterProvider(t.meterProvider)

	return t, nil
}

// Shutdown flushes and stops the metrics pipeline.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.meterProvider == nil {
		return nil
	}
	return t.meterProvider.Shutdown(ctx)
}
