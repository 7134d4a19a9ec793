package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	JWT         JWTConfig
	Security    SecurityConfig
	Sync        SyncConfig
	Shopify     ShopifyConfig
	Webhook     WebhookConfig
	Archive     ArchiveConfig
	Events      EventsConfig
	EventBridge EventBridgeConfig
	Scheduler   SchedulerConfig
	Telemetry   TelemetryConfig
	Profiling   ProfilingConfig
	Metrics     MetricsConfig
	Swagger     SwaggerConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// IsProduction reports whether the service runs with production safeguards
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds settings for admin API bearer tokens
type JWTConfig struct {
	Secret                string
	Issuer                string
	AccessTokenExpiration time.Duration
}

// SecurityConfig holds the credential encryption key
type SecurityConfig struct {
	// CredentialKey is a base64 encoded 32-byte key for credentials at rest
	CredentialKey string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	WebhookMaxPayload int64
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
	// RateLimit is requests per RateLimitWindow; admin calls are keyed by
	// merchant, webhook deliveries by client IP. 0 disables limiting.
	RateLimit       int
	RateLimitWindow time.Duration
	// RequestTimeout bounds admin API requests; webhooks are not bounded
	RequestTimeout time.Duration
}

// SyncConfig holds reconciliation run and platform call settings
type SyncConfig struct {
	PageSize         int
	RunBudget        time.Duration
	StaleAfter       time.Duration // 0 means twice RunBudget
	RequestTimeout   time.Duration
	MaxRetries       int
	BaseBackoff      time.Duration
	MaxBackoff       time.Duration
	MaxRateLimitWait time.Duration
}

// ShopifyConfig holds Shopify Admin API settings
type ShopifyConfig struct {
	APIVersion string
}

// WebhookConfig holds webhook delivery deduplication settings
type WebhookConfig struct {
	IdempotencyStore string // memory, redis
	IdempotencyTTL   time.Duration
}

// ArchiveConfig holds the S3 webhook archive settings
type ArchiveConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint for S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Prefix          string
}

// EventsConfig holds the SQS integration event publisher settings
type EventsConfig struct {
	Enabled  bool
	QueueURL string
	Region   string
}

// EventBridgeConfig holds the Shopify EventBridge (SQS) consumer settings
type EventBridgeConfig struct {
	Enabled     bool
	QueueURL    string
	Region      string
	WaitSeconds int32
	MaxMessages int32
}

// SchedulerConfig holds the periodic catalog sync trigger settings
type SchedulerConfig struct {
	Enabled    bool
	Interval   time.Duration
	Workers    int
	JobTimeout time.Duration // 0 means the sync run budget
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs restricts the docs to these IPs or CIDRs; empty allows all
	AllowedIPs []string
}

// MetricsConfig holds Prometheus endpoint and OTLP metrics export configuration
type MetricsConfig struct {
	Enabled           bool
	Path              string
	RuntimeCollectors bool
	// OTLPEnabled pushes the same instruments to telemetry.collector_endpoint
	OTLPEnabled    bool
	ExportInterval time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to export traces
	LogsEnabled       bool    // Whether to export logs over OTLP
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection (development only)
	// Database tracing options
	DBTraceEnabled    bool
	DBLogFullSQL      bool // Keep bound variables in spans (dev only)
	DBSlowQueryThresh time.Duration
}

// ProfilingConfig holds Pyroscope settings
type ProfilingConfig struct {
	Enabled              bool
	ServerAddress        string
	ApplicationName      string
	BasicAuthUser        string
	BasicAuthPassword    string
	ProfileTypes         []string
	MutexProfileFraction int
	BlockProfileRate     int
	SpanProfiles         bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MKT_ prefix (e.g., MKT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("MKT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			WebhookMaxPayload: v.GetInt64("http.webhook_max_payload"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			RateLimit:         v.GetInt("http.rate_limit"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			RequestTimeout:    v.GetDuration("http.request_timeout"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			Issuer:                v.GetString("jwt.issuer"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
		},
		Security: SecurityConfig{
			CredentialKey: v.GetString("security.credential_key"),
		},
		Sync: SyncConfig{
			PageSize:         v.GetInt("sync.page_size"),
			RunBudget:        v.GetDuration("sync.run_budget"),
			StaleAfter:       v.GetDuration("sync.stale_after"),
			RequestTimeout:   v.GetDuration("sync.request_timeout"),
			MaxRetries:       v.GetInt("sync.max_retries"),
			BaseBackoff:      v.GetDuration("sync.base_backoff"),
			MaxBackoff:       v.GetDuration("sync.max_backoff"),
			MaxRateLimitWait: v.GetDuration("sync.max_rate_limit_wait"),
		},
		Shopify: ShopifyConfig{
			APIVersion: v.GetString("shopify.api_version"),
		},
		Webhook: WebhookConfig{
			IdempotencyStore: v.GetString("webhook.idempotency_store"),
			IdempotencyTTL:   v.GetDuration("webhook.idempotency_ttl"),
		},
		Archive: ArchiveConfig{
			Enabled:         v.GetBool("archive.enabled"),
			Bucket:          v.GetString("archive.bucket"),
			Region:          v.GetString("archive.region"),
			Endpoint:        v.GetString("archive.endpoint"),
			AccessKeyID:     v.GetString("archive.access_key_id"),
			SecretAccessKey: v.GetString("archive.secret_access_key"),
			UsePathStyle:    v.GetBool("archive.use_path_style"),
			Prefix:          v.GetString("archive.prefix"),
		},
		Events: EventsConfig{
			Enabled:  v.GetBool("events.enabled"),
			QueueURL: v.GetString("events.queue_url"),
			Region:   v.GetString("events.region"),
		},
		EventBridge: EventBridgeConfig{
			Enabled:     v.GetBool("eventbridge.enabled"),
			QueueURL:    v.GetString("eventbridge.queue_url"),
			Region:      v.GetString("eventbridge.region"),
			WaitSeconds: v.GetInt32("eventbridge.wait_seconds"),
			MaxMessages: v.GetInt32("eventbridge.max_messages"),
		},
		Scheduler: SchedulerConfig{
			Enabled:    v.GetBool("scheduler.enabled"),
			Interval:   v.GetDuration("scheduler.interval"),
			Workers:    v.GetInt("scheduler.workers"),
			JobTimeout: v.GetDuration("scheduler.job_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Profiling: ProfilingConfig{
			Enabled:              v.GetBool("profiling.enabled"),
			ServerAddress:        v.GetString("profiling.server_address"),
			ApplicationName:      v.GetString("profiling.application_name"),
			BasicAuthUser:        v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword:    v.GetString("profiling.basic_auth_password"),
			ProfileTypes:         v.GetStringSlice("profiling.profile_types"),
			MutexProfileFraction: v.GetInt("profiling.mutex_profile_fraction"),
			BlockProfileRate:     v.GetInt("profiling.block_profile_rate"),
			SpanProfiles:         v.GetBool("profiling.span_profiles"),
		},
		Metrics: MetricsConfig{
			Enabled:           v.GetBool("metrics.enabled"),
			Path:              v.GetString("metrics.path"),
			RuntimeCollectors: v.GetBool("metrics.runtime_collectors"),
			OTLPEnabled:       v.GetBool("metrics.otlp_enabled"),
			ExportInterval:    v.GetDuration("metrics.export_interval"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketplace-sync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "marketplace"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// a synchronous sync request can run for the whole budget
		cfg.HTTP.WriteTimeout = 6 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.WebhookMaxPayload == 0 {
		cfg.HTTP.WebhookMaxPayload = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = cfg.HTTP.WriteTimeout
	}
	// CORS origins have no wildcard fallback; an empty list allows none
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "marketplace-sync"
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 100
	}
	if cfg.Sync.RunBudget == 0 {
		cfg.Sync.RunBudget = 5 * time.Minute
	}
	if cfg.Sync.StaleAfter == 0 {
		cfg.Sync.StaleAfter = 2 * cfg.Sync.RunBudget
	}
	if cfg.Sync.RequestTimeout == 0 {
		cfg.Sync.RequestTimeout = 30 * time.Second
	}
	if cfg.Sync.MaxRetries == 0 {
		cfg.Sync.MaxRetries = 3
	}
	if cfg.Sync.BaseBackoff == 0 {
		cfg.Sync.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.Sync.MaxBackoff == 0 {
		cfg.Sync.MaxBackoff = 5 * time.Second
	}
	if cfg.Sync.MaxRateLimitWait == 0 {
		cfg.Sync.MaxRateLimitWait = 10 * time.Second
	}
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2024-10"
	}
	if cfg.Webhook.IdempotencyStore == "" {
		cfg.Webhook.IdempotencyStore = "memory"
	}
	if cfg.Webhook.IdempotencyTTL == 0 {
		cfg.Webhook.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "webhooks"
	}
	if cfg.Events.Region == "" {
		cfg.Events.Region = cfg.Archive.Region
	}
	if cfg.EventBridge.Region == "" {
		cfg.EventBridge.Region = cfg.Archive.Region
	}
	if cfg.EventBridge.WaitSeconds == 0 {
		cfg.EventBridge.WaitSeconds = 20
	}
	if cfg.EventBridge.MaxMessages == 0 {
		cfg.EventBridge.MaxMessages = 10
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = time.Hour
	}
	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 2
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = cfg.Sync.RunBudget + time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Profiling.ServerAddress == "" {
		cfg.Profiling.ServerAddress = "http://localhost:4040"
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.App.Name
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.ExportInterval == 0 {
		cfg.Metrics.ExportInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Sync.PageSize < 1 || c.Sync.PageSize > 250 {
		return fmt.Errorf("sync.page_size must be between 1 and 250, got %d", c.Sync.PageSize)
	}
	if c.Sync.MaxRetries < 0 {
		return fmt.Errorf("sync.max_retries cannot be negative")
	}
	if c.Sync.MaxBackoff < c.Sync.BaseBackoff {
		return fmt.Errorf("sync.max_backoff (%s) cannot be shorter than sync.base_backoff (%s)",
			c.Sync.MaxBackoff, c.Sync.BaseBackoff)
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit must not be negative, got %d", c.HTTP.RateLimit)
	}
	if c.Sync.StaleAfter <= c.Sync.RunBudget {
		return fmt.Errorf("sync.stale_after (%s) must exceed sync.run_budget (%s)",
			c.Sync.StaleAfter, c.Sync.RunBudget)
	}

	switch c.Webhook.IdempotencyStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("webhook.idempotency_store must be memory or redis, got %q", c.Webhook.IdempotencyStore)
	}

	if c.Security.CredentialKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.Security.CredentialKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("security.credential_key must be 32 bytes, base64 encoded")
		}
	}

	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when the archive is enabled")
	}
	if c.Events.Enabled && c.Events.QueueURL == "" {
		return fmt.Errorf("events.queue_url is required when event publishing is enabled")
	}
	if c.EventBridge.Enabled && c.EventBridge.QueueURL == "" {
		return fmt.Errorf("eventbridge.queue_url is required when the EventBridge consumer is enabled")
	}
	if c.EventBridge.WaitSeconds < 0 || c.EventBridge.WaitSeconds > 20 {
		return fmt.Errorf("eventbridge.wait_seconds must be between 0 and 20")
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval < time.Minute {
		return fmt.Errorf("scheduler.interval must be at least 1m, got %s", c.Scheduler.Interval)
	}
	if c.Scheduler.Workers < 1 {
		return fmt.Errorf("scheduler.workers must be at least 1")
	}

	if c.App.IsProduction() {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Security.CredentialKey == "" {
			return fmt.Errorf("security.credential_key is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		// bound variables include credential ciphertext
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
