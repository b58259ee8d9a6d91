// Package middleware provides HTTP middleware for the procurement panel.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backoffice/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps incoming request IDs so large headers never reach traces or logs
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "procurement-panel",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig returns the otelgin server middleware.
// Spans are named "METHOD route" (e.g. "GET /admin/:resource/:id").
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector adds request_id, actor_id, locale and panel route
// parameters to the current span. Place it after the JWT and locale middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
		c.Next()
	}
}

func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if id := requestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if actorID := c.GetString(logger.GinActorIDKey); actorID != "" {
		span.SetAttributes(attribute.String("actor_id", actorID))
	}
	if locale := GetLocale(c); locale != "" {
		span.SetAttributes(attribute.String("locale", locale))
	}
	if resource := c.Param("resource"); resource != "" {
		span.SetAttributes(attribute.String("panel.resource", resource))
	}
}

// SpanErrorMarker marks the span as failed for 4xx and 5xx responses.
// Place it after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, statusDescription(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

func statusDescription(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "Internal Server Error"
	case status == http.StatusUnauthorized:
		return "Unauthorized"
	case status == http.StatusForbidden:
		return "Forbidden"
	case status == http.StatusNotFound:
		return "Not Found"
	case status == http.StatusConflict:
		return "Conflict"
	case status == http.StatusTooManyRequests:
		return "Too Many Requests"
	default:
		return "Client Error"
	}
}
