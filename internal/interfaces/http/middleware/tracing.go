// Package middleware provides the gin middleware of the admin API and the
// webhook receivers.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "marketplace-sync",
		Enabled:     true,
	}
}

// TracingWithConfig wraps otelgin. Span names follow "METHOD route_pattern";
// TracingAttributeInjector adds the request attributes.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector adds request attributes to the active span. Place
// it after Tracing, RequestID and, on the admin group, JWT.
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
	if requestID := c.GetString(RequestIDKey); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if merchantID := GetJWTMerchantID(c); merchantID != "" {
		span.SetAttributes(attribute.String(telemetry.SpanAttrMerchantID, merchantID))
	}
	if connectionID := routeConnectionID(c); connectionID != "" {
		span.SetAttributes(attribute.String(telemetry.SpanAttrConnectionID, connectionID))
	}
	if platform, err := integration.ParsePlatformType(c.Param("platform")); err == nil {
		span.SetAttributes(attribute.String(telemetry.SpanAttrPlatform, platform.String()))
	}
}

// routeConnectionID returns the connection path parameter when it is a UUID.
// Anything else is caller input and stays out of the trace.
func routeConnectionID(c *gin.Context) string {
	for _, name := range []string{"connection_id", "id"} {
		if raw := c.Param(name); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				return id.String()
			}
		}
	}
	return ""
}

// SpanErrorMarker marks the span as failed on 5xx responses. Client errors
// stay unset so rejected webhook probes do not flood error views.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
