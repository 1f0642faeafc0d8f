package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/observability"
)

// ErrorLogSink persists server error records. Writes are best effort.
type ErrorLogSink interface {
	Create(ctx context.Context, entry *models.ErrorLog) error
}

// Observability attaches Prometheus metrics, structured latency/error logging
// and best-effort error log persistence for API endpoints.
func Observability(logger zerolog.Logger, errorSink ErrorLogSink) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		if !strings.HasPrefix(c.Path(), "/api") {
			return err
		}

		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()
		statusLabel := fmt.Sprintf("%d", status)

		observability.Requests().WithLabelValues(method, route, statusLabel).Inc()
		observability.Latency().WithLabelValues(method, route).Observe(duration.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.Errors().WithLabelValues(method, route, statusLabel).Inc()
		}

		requestLogger := logger.With().
			Str("correlation_id", GetCorrelationID(c)).
			Str("route", route).
			Str("method", method).
			Int("status", status).
			Float64("latency_ms", float64(duration)/float64(time.Millisecond)).
			Logger()

		switch {
		case status >= fiber.StatusInternalServerError:
			requestLogger.Error().Msg("request failed")
			recordServerError(c, errorSink, method, route, status)
		case status >= fiber.StatusBadRequest:
			requestLogger.Warn().Msg("request completed with client error")
		default:
			requestLogger.Info().Msg("request completed")
		}

		return err
	}
}

// recordServerError persists the failure for operational visibility. A failed
// insert is swallowed; error logging must never take the request down.
func recordServerError(c *fiber.Ctx, sink ErrorLogSink, method, route string, status int) {
	if sink == nil {
		return
	}

	entry := models.ErrorLog{
		Method:        method,
		Route:         route,
		Status:        status,
		Message:       string(c.Response().Body()),
		CorrelationID: GetCorrelationID(c),
	}
	_ = sink.Create(c.Context(), &entry)
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}
