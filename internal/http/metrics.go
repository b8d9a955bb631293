package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/pland/internal/http"

// HTTPMetrics records request counts, latencies, and in-flight requests.
type HTTPMetrics struct {
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP instrumentation set. Instrument creation
// errors are logged and leave the corresponding instrument nil.
func NewHTTPMetrics(logger *zap.Logger) *HTTPMetrics {
	meter := otel.Meter(instrumentationName)
	m := &HTTPMetrics{}

	var err error
	m.requestsTotal, err = meter.Int64Counter(
		"pland.http.requests_total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		logger.Warn("failed to create requests_total counter", zap.Error(err))
	}

	m.requestDuration, err = meter.Float64Histogram(
		"pland.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create request_duration histogram", zap.Error(err))
	}

	m.activeRequests, err = meter.Int64UpDownCounter(
		"pland.http.active_requests",
		metric.WithDescription("In-flight HTTP requests"),
	)
	if err != nil {
		logger.Warn("failed to create active_requests counter", zap.Error(err))
	}

	return m
}

// Middleware returns an echo middleware that records per-request metrics.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()

			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, 1)
				defer m.activeRequests.Add(ctx, -1)
			}

			err := next(c)

			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("route", c.Path()),
				attribute.Int("status", c.Response().Status),
			)
			if m.requestsTotal != nil {
				m.requestsTotal.Add(ctx, 1, attrs)
			}
			if m.requestDuration != nil {
				m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
			}

			return err
		}
	}
}
