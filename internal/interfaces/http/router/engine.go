package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

// Handlers are the endpoints the engine routes to
type Handlers struct {
	Connections *handler.ConnectionHandler
	Sync        *handler.SyncHandler
	Webhooks    *handler.WebhookHandler
	System      *handler.SystemHandler
}

// MetricsProvider serves Prometheus metrics and observes requests
type MetricsProvider interface {
	middleware.HTTPObserver
	Handler() http.Handler
}

// EngineConfig configures the middleware stack
type EngineConfig struct {
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	TrustedProxies []string
	CORS           middleware.CORSConfig
	HSTS           bool
	MaxBodySize    int64
	RequestTimeout time.Duration

	// AdminLimiter is keyed by merchant, WebhookLimiter by client IP; nil disables
	AdminLimiter   *middleware.RateLimiter
	WebhookLimiter *middleware.RateLimiter

	// Metrics is nil when the Prometheus endpoint is off
	Metrics     MetricsProvider
	MetricsPath string

	Tracing   middleware.TracingConfig
	Profiling middleware.ProfilingConfig

	Swagger        middleware.SwaggerConfig
	SwaggerHandler gin.HandlerFunc
}

// NewEngine builds the gin engine with every route registered
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters:
	// 1. RequestID before the logger so every line carries it
	// 2. Tracing before anything that reads the span
	// 3. Metrics ahead of auth and rate limiting so rejections are counted
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(cfg.Metrics, metricsPath, "/health"))
	}
	engine.Use(middleware.ProfilingWithConfig(cfg.Profiling))
	engine.Use(middleware.Secure(cfg.HSTS))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	// System endpoints, outside API versioning
	engine.GET("/health", h.System.Health)
	if cfg.Metrics != nil {
		engine.GET(metricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}
	jwt := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Validator: cfg.Tokens,
		Logger:    log,
	})
	if cfg.Swagger.Enabled && cfg.SwaggerHandler != nil {
		engine.GET("/swagger/*any", middleware.SwaggerProtection(cfg.Swagger, jwt), cfg.SwaggerHandler)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))

	// Webhooks authenticate by HMAC; no JWT and no request timeout beyond the server's
	webhooks := engine.Group(r.BasePath() + "/webhooks")
	if cfg.WebhookLimiter != nil {
		webhooks.Use(middleware.RateLimitByKey(cfg.WebhookLimiter, middleware.ClientIPKey))
	}
	webhooks.Use(middleware.TracingAttributeInjector())
	webhooks.POST("/:platform", h.Webhooks.Receive)

	r.Use(jwt, middleware.TracingAttributeInjector())
	if cfg.AdminLimiter != nil {
		r.Use(middleware.RateLimitByKey(cfg.AdminLimiter, middleware.MerchantKey))
	}
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	connections := NewDomainGroup("connections", "/connections").
		Use(middleware.RequireScope(auth.ScopeConnections))
	connections.PUT("/:platform", h.Connections.Save)
	connections.GET("/:id", h.Connections.Get)
	connections.DELETE("/:id", h.Connections.Disconnect)
	connections.POST("/:id/products", h.Connections.PushProduct)
	connections.DELETE("/:id/products/:product_id", h.Connections.RemoveProduct)

	sync := NewDomainGroup("sync", "/sync").
		Use(middleware.RequireScope(auth.ScopeSync))
	sync.POST("", h.Sync.Trigger)
	sync.GET("/:connection_id/status", h.Sync.Status)
	sync.POST("/:connection_id/sweep", h.Sync.Sweep)
	sync.POST("/:connection_id/orders", h.Sync.ImportOrders)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	r.Register(connections).
		Register(sync).
		Register(system)
	r.Setup()

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.RequestIDKey)))
	})

	return engine
}
