package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/marketplace/backend/internal/infrastructure/auth"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.FailNow(t, "span not found", name)
	return nil
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	w := httptest.NewRecorder()
	okRouter(TracingWithConfig(TracingConfig{Enabled: false})).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_RouteAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(RequestID(), TracingWithConfig(DefaultTracingConfig()))
	router.Use(func(c *gin.Context) {
		c.Set(JWTClaimsKey, &auth.Claims{MerchantID: "merchant-1"})
		c.Set(JWTMerchantIDKey, "merchant-1")
		c.Next()
	})
	router.Use(TracingAttributeInjector())
	router.GET("/api/v1/sync/:connection_id/status", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/webhooks/:platform", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("admin route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/2b1c1e0a-9f7c-4a55-8d6e-3c7a1f0b2d4e/status", nil)
		req.Header.Set(HeaderRequestID, "req-trace")
		router.ServeHTTP(httptest.NewRecorder(), req)

		attrs := spanAttrs(findSpan(t, sr, "GET /api/v1/sync/:connection_id/status"))
		assert.Equal(t, "req-trace", attrs["request_id"].AsString())
		assert.Equal(t, "merchant-1", attrs["merchant_id"].AsString())
		assert.Equal(t, "2b1c1e0a-9f7c-4a55-8d6e-3c7a1f0b2d4e", attrs["connection_id"].AsString())
	})

	t.Run("webhook route", func(t *testing.T) {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/webhooks/shopify", nil))

		attrs := spanAttrs(findSpan(t, sr, "POST /webhooks/:platform"))
		assert.Equal(t, "SHOPIFY", attrs["platform"].AsString())
	})
}

func TestRouteConnectionID_IgnoresNonUUID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "<script>"}}
	assert.Empty(t, routeConnectionID(c))

	c.Params = gin.Params{{Key: "id", Value: "2B1C1E0A-9F7C-4A55-8D6E-3C7A1F0B2D4E"}}
	assert.Equal(t, "2b1c1e0a-9f7c-4a55-8d6e-3c7a1f0b2d4e", routeConnectionID(c))
}

func TestSpanErrorMarker(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(DefaultTracingConfig()), SpanErrorMarker())
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	router.GET("/reject", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reject", nil))

	failed := findSpan(t, sr, "GET /fail")
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Equal(t, int64(http.StatusBadGateway), spanAttrs(failed)["http.status_code"].AsInt64())

	rejected := findSpan(t, sr, "GET /reject")
	assert.NotEqual(t, codes.Error, rejected.Status().Code)
}
