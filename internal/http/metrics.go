package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/simbench/internal/http"

// HTTPMetrics holds the per-request instruments.
type HTTPMetrics struct {
	meter          metric.Meter
	logger         *zap.Logger
	requestsTotal  metric.Int64Counter
	requestDur     metric.Float64Histogram
	activeRequests metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP metrics instruments. Instrument creation
// failures are logged and the affected instrument skipped; metrics never take
// the API down.
func NewHTTPMetrics(logger *zap.Logger) *HTTPMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &HTTPMetrics{
		meter:  otel.Meter(httpInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *HTTPMetrics) init() {
	var err error

	m.requestsTotal, err = m.meter.Int64Counter(
		"simbench.http.requests_total",
		metric.WithDescription("Total HTTP requests labeled by method, route and status code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create requests counter", zap.Error(err))
	}

	m.requestDur, err = m.meter.Float64Histogram(
		"simbench.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds, labeled by method, route and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.activeRequests, err = m.meter.Int64UpDownCounter(
		"simbench.http.active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create active requests gauge", zap.Error(err))
	}
}

// MetricsMiddleware returns an Echo middleware that records HTTP metrics.
// Routes are labeled by their registered pattern (path parameters stay as
// placeholders), which keeps label cardinality bounded.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			ctx := req.Context()

			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, 1)
			}

			err := next(c)

			attrs := []attribute.KeyValue{
				attribute.String("method", req.Method),
				attribute.String("route", c.Path()),
				attribute.Int("status", c.Response().Status),
			}

			if m.requestsTotal != nil {
				m.requestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if m.requestDur != nil {
				m.requestDur.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
			}
			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, -1)
			}

			return err
		}
	}
}
