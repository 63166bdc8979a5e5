package http

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fyrsmithlabs/agentd/internal/http"

// serverMetrics holds the request-level instruments.
type serverMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics() (*serverMetrics, error) {
	meter := otel.Meter(instrumentationName)

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests served"))
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}

	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &serverMetrics{requests: requests, duration: duration}, nil
}

func (m *serverMetrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			attrs := metric.WithAttributes(
				attribute.String("http.method", c.Request().Method),
				attribute.String("http.route", c.Path()),
				attribute.Int("http.status_code", c.Response().Status),
			)
			ctx := c.Request().Context()
			m.requests.Add(ctx, 1, attrs)
			m.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

			return err
		}
	}
}
