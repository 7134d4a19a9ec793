package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/marketplace/backend/docs"
	integrationapp "github.com/marketplace/backend/internal/application/integration"
	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/awsconfig"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/crypto"
	"github.com/marketplace/backend/internal/infrastructure/ecommerce"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/queue"
	"github.com/marketplace/backend/internal/infrastructure/scheduler"
	"github.com/marketplace/backend/internal/infrastructure/storage"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/marketplace/backend/internal/interfaces/http/router"
)

//	@title			Marketplace Sync API
//	@version		1.0
//	@description	Connects merchants to Shopify and WooCommerce, reconciles catalogs and receives platform webhooks.

//	@contact.name	API Support

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry: traces, logs over OTLP, continuous profiling
	otelCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, otelCfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	logsCfg := otelCfg
	logsCfg.Enabled = cfg.Telemetry.LogsEnabled
	logProvider, err := telemetry.NewLoggerProvider(ctx, logsCfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log := telemetry.BridgeLogger(baseLog, logProvider, cfg.Telemetry.ServiceName)
	defer func() {
		_ = logger.Sync(log)
	}()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:              cfg.Profiling.Enabled,
		ServerAddress:        cfg.Profiling.ServerAddress,
		ApplicationName:      cfg.Profiling.ApplicationName,
		BasicAuthUser:        cfg.Profiling.BasicAuthUser,
		BasicAuthPassword:    cfg.Profiling.BasicAuthPassword,
		ProfileTypes:         cfg.Profiling.ProfileTypes,
		MutexProfileFraction: cfg.Profiling.MutexProfileFraction,
		BlockProfileRate:     cfg.Profiling.BlockProfileRate,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting marketplace sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with zap-backed GORM logger and otelgorm spans
	dbOpts := []persistence.DatabaseOption{
		persistence.WithGormLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))),
	}
	if cfg.Telemetry.DBTraceEnabled {
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}, log)))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Credentials are sealed at rest
	cipher, err := crypto.NewCredentialCipher(cfg.Security.CredentialKey)
	if err != nil {
		log.Fatal("Invalid credential key", zap.Error(err))
	}

	// Repositories
	connectionRepo := persistence.NewGormConnectionRepository(db.DB, cipher)
	statusRepo := persistence.NewGormSyncStatusRepository(db.DB)
	catalogRepo := persistence.NewGormCatalogRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	metrics := telemetry.NewIntegrationMetrics(telemetry.MetricsConfig{
		Enabled:           cfg.Metrics.Enabled,
		Path:              cfg.Metrics.Path,
		RuntimeCollectors: cfg.Metrics.RuntimeCollectors,
	})
	meterProvider, err := telemetry.NewMeterProvider(ctx, otelCfg, cfg.Metrics.OTLPEnabled, cfg.Metrics.ExportInterval, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics export", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		if err := metrics.ExportTo(meterProvider.Meter(cfg.Telemetry.ServiceName)); err != nil {
			log.Fatal("Failed to register OTel instruments", zap.Error(err))
		}
	}

	// Platform clients
	clients, err := newPlatformRegistry(cfg, metrics)
	if err != nil {
		log.Fatal("Failed to create platform clients", zap.Error(err))
	}

	// Integration events: in-process bus, optionally forwarded to SQS
	eventBus := event.NewInMemoryEventBus(log)
	if cfg.Events.Enabled {
		awsCfg, err := awsconfig.Load(ctx, awsconfig.Options{Region: cfg.Events.Region})
		if err != nil {
			log.Fatal("Failed to load AWS config for events", zap.Error(err))
		}
		serializer := event.NewEventSerializer()
		event.RegisterIntegrationEvents(serializer)
		forwarder := event.NewSQSForwarder(event.NewSQSClient(awsCfg), cfg.Events.QueueURL, serializer, log)
		eventBus.Subscribe(forwarder, forwarder.EventTypes()...)
		log.Info("Integration events forwarded to SQS", zap.String("queue_url", cfg.Events.QueueURL))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	tracker := integrationapp.NewSyncStatusTracker(statusRepo, connectionRepo, cfg.Sync.StaleAfter, log)
	credentialService := integrationapp.NewCredentialService(connectionRepo, tracker, clients, log)
	syncService := integrationapp.NewSyncService(
		connectionRepo, clients, catalogRepo, orderRepo, tracker, eventBus, log,
		integrationapp.WithRunBudget(cfg.Sync.RunBudget),
		integrationapp.WithSyncObserver(metrics),
	)

	// Webhooks
	archive, err := newWebhookArchive(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create webhook archive", zap.Error(err))
	}
	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Webhook, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create webhook idempotency store", zap.Error(err))
	}
	dispatcher := integrationapp.NewWebhookDispatcher(connectionRepo, clients, eventBus, log,
		integrationapp.WithWebhookArchive(archive),
		integrationapp.WithWebhookObserver(metrics),
	)
	webhookHandlers := integrationapp.NewWebhookHandlers(syncService, credentialService, clients, log)
	if err := integrationapp.RegisterDefaultHandlers(dispatcher, webhookHandlers, idempotency, cfg.Webhook.IdempotencyTTL, log); err != nil {
		log.Fatal("Failed to register webhook handlers", zap.Error(err))
	}

	if cfg.EventBridge.Enabled {
		awsCfg, err := awsconfig.Load(ctx, awsconfig.Options{Region: cfg.EventBridge.Region})
		if err != nil {
			log.Fatal("Failed to load AWS config for EventBridge", zap.Error(err))
		}
		consumer := queue.NewShopifyEventBridgeConsumer(event.NewSQSClient(awsCfg), dispatcher, queue.ConsumerConfig{
			QueueURL:    cfg.EventBridge.QueueURL,
			WaitSeconds: cfg.EventBridge.WaitSeconds,
			MaxMessages: cfg.EventBridge.MaxMessages,
		}, log)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error("EventBridge consumer exited", zap.Error(err))
			}
		}()
	}

	// Periodic sync trigger
	if cfg.Scheduler.Enabled {
		jobTimeout := cfg.Scheduler.JobTimeout
		if jobTimeout <= 0 {
			jobTimeout = cfg.Sync.RunBudget + time.Minute
		}
		schedulerConfig := scheduler.DefaultSyncSchedulerConfig()
		schedulerConfig.Interval = cfg.Scheduler.Interval
		schedulerConfig.Workers = cfg.Scheduler.Workers
		schedulerConfig.JobTimeout = jobTimeout
		syncScheduler, err := scheduler.NewSyncScheduler(schedulerConfig, connectionRepo, syncService, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := syncScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("interval", cfg.Scheduler.Interval),
			zap.Int("workers", cfg.Scheduler.Workers),
			zap.Duration("job_timeout", jobTimeout),
		)
	}

	// HTTP
	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		log.Fatal("Failed to create token service", zap.Error(err))
	}

	engineCfg := router.EngineConfig{
		Logger:         log,
		Tokens:         tokens,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS: middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
			MaxAge:       12 * time.Hour,
		},
		HSTS:           cfg.App.IsProduction(),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MetricsPath:    cfg.Metrics.Path,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Profiling: middleware.ProfilingConfig{
			Enabled:   profiler.IsEnabled(),
			SkipPaths: []string{"/health", cfg.Metrics.Path},
		},
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
		SwaggerHandler: ginSwagger.WrapHandler(swaggerFiles.Handler),
	}
	if cfg.Metrics.Enabled {
		engineCfg.Metrics = metrics
	}
	if cfg.HTTP.RateLimit > 0 {
		engineCfg.AdminLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		engineCfg.WebhookLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		defer engineCfg.AdminLimiter.Stop()
		defer engineCfg.WebhookLimiter.Stop()
	}

	engine := router.NewEngine(engineCfg, router.Handlers{
		Connections: handler.NewConnectionHandler(credentialService, syncService),
		Sync:        handler.NewSyncHandler(credentialService, syncService, tracker),
		Webhooks:    handler.NewWebhookHandler(dispatcher, cfg.HTTP.WebhookMaxPayload),
		System: handler.NewSystemHandler(handler.SystemHandlerConfig{
			Name:    cfg.App.Name,
			Version: cfg.App.Version,
			DB:      sqlDB,
			Scheduler: handler.SchedulerStatusData{
				Enabled:  cfg.Scheduler.Enabled,
				Interval: cfg.Scheduler.Interval.String(),
			},
		}),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newPlatformRegistry builds one client per supported platform, sharing the
// retry policy from the sync configuration
func newPlatformRegistry(cfg *config.Config, metrics *telemetry.IntegrationMetrics) (*ecommerce.PlatformRegistry, error) {
	retry := ecommerce.RetryPolicy{
		MaxRetries:       cfg.Sync.MaxRetries,
		BaseBackoff:      cfg.Sync.BaseBackoff,
		MaxBackoff:       cfg.Sync.MaxBackoff,
		RequestTimeout:   cfg.Sync.RequestTimeout,
		MaxRateLimitWait: cfg.Sync.MaxRateLimitWait,
	}

	shopifyCfg := ecommerce.NewShopifyConfig()
	shopifyCfg.APIVersion = cfg.Shopify.APIVersion
	shopifyCfg.PageSize = cfg.Sync.PageSize
	shopifyCfg.Retry = retry
	shopify, err := ecommerce.NewShopifyAdapter(shopifyCfg, ecommerce.WithRequestObserver(metrics))
	if err != nil {
		return nil, err
	}

	wooCfg := ecommerce.NewWooCommerceConfig()
	wooCfg.PageSize = cfg.Sync.PageSize
	wooCfg.Retry = retry
	woo, err := ecommerce.NewWooCommerceAdapter(wooCfg, ecommerce.WithRequestObserver(metrics))
	if err != nil {
		return nil, err
	}

	return ecommerce.NewPlatformRegistry(shopify, woo), nil
}

// newWebhookArchive returns the S3 archive when enabled, otherwise a no-op
func newWebhookArchive(ctx context.Context, cfg *config.Config, log *zap.Logger) (integration.WebhookArchive, error) {
	if !cfg.Archive.Enabled {
		return storage.NewNoopWebhookArchive(), nil
	}
	archive, err := storage.NewS3WebhookArchive(ctx, &cfg.Archive, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		log.Warn("Webhook archive bucket check failed", zap.String("bucket", archive.Bucket()), zap.Error(err))
	}
	log.Info("Webhook payloads archived to S3", zap.String("bucket", archive.Bucket()))
	return archive, nil
}
