package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the request logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// MerchantIDKey is the context key for the merchant owning the request
	MerchantIDKey contextKey = "merchant_id"
	// ConnectionIDKey is the context key for the platform connection
	ConnectionIDKey contextKey = "connection_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID tags ctx with the request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithMerchantID tags ctx with the merchant the work is done for
func WithMerchantID(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, MerchantIDKey, merchantID)
}

// WithConnectionID tags ctx with the platform connection the work touches
func WithConnectionID(ctx context.Context, connectionID string) context.Context {
	return context.WithValue(ctx, ConnectionIDKey, connectionID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}

// GetMerchantID retrieves merchant ID from context
func GetMerchantID(ctx context.Context) string {
	merchantID, _ := ctx.Value(MerchantIDKey).(string)
	return merchantID
}

// GetConnectionID retrieves connection ID from context
func GetConnectionID(ctx context.Context) string {
	connectionID, _ := ctx.Value(ConnectionIDKey).(string)
	return connectionID
}

// L returns the request logger from ctx with trace and ID fields attached.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich attaches the trace_id, span_id, request_id, merchant_id and
// connection_id found in ctx to base. Services that own a named logger use it
// so their entries correlate with the request or run that caused them.
func Enrich(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ContextFields returns the correlation fields present in ctx
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if merchantID := GetMerchantID(ctx); merchantID != "" {
		fields = append(fields, zap.String("merchant_id", merchantID))
	}
	if connectionID := GetConnectionID(ctx); connectionID != "" {
		fields = append(fields, zap.String("connection_id", connectionID))
	}
	return fields
}
