package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const defaultExportInterval = 60 * time.Second

// MeterProvider owns the OTLP metrics pipeline. The Prometheus registry keeps
// serving /metrics; this pushes the same instruments to the collector.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	interval time.Duration
}

// NewMeterProvider exports metrics over OTLP gRPC every interval and installs
// the provider globally. cfg supplies the collector and resource settings;
// cfg.Enabled is ignored in favour of enabled.
func NewMeterProvider(ctx context.Context, cfg Config, enabled bool, interval time.Duration, logger *zap.Logger) (*MeterProvider, error) {
	if interval <= 0 {
		interval = defaultExportInterval
	}
	mp := &MeterProvider{logger: logger, interval: interval}
	if !enabled {
		logger.Info("OTLP metrics export disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OTLP metrics export initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
		zap.String("service_name", cfg.ServiceName),
	)
	return mp, nil
}

// Meter returns a named meter; the global no-op meter when export is off
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled reports whether metrics are pushed over OTLP
func (mp *MeterProvider) IsEnabled() bool {
	return mp.provider != nil
}

// ForceFlush exports everything recorded so far
func (mp *MeterProvider) ForceFlush(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	return mp.provider.ForceFlush(ctx)
}

// Shutdown flushes pending metrics and stops the exporter
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := mp.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	mp.logger.Info("OTLP metrics export shut down")
	return nil
}

// otelInstruments mirrors the Prometheus collectors on an OTel meter
type otelInstruments struct {
	syncRuns         metric.Int64Counter
	syncDuration     metric.Float64Histogram
	syncItems        metric.Int64Counter
	webhookTotal     metric.Int64Counter
	platformRequests metric.Int64Counter
	platformLatency  metric.Float64Histogram
	platformRetries  metric.Int64Counter
	httpRequests     metric.Int64Counter
	httpDuration     metric.Float64Histogram
	syncsInProgress  metric.Int64UpDownCounter
}

func newOtelInstruments(meter metric.Meter) (*otelInstruments, error) {
	var (
		in   otelInstruments
		errs []error
	)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	histogram := func(name, desc string, bounds ...float64) metric.Float64Histogram {
		opts := []metric.Float64HistogramOption{metric.WithDescription(desc), metric.WithUnit("s")}
		if len(bounds) > 0 {
			opts = append(opts, metric.WithExplicitBucketBoundaries(bounds...))
		}
		h, err := meter.Float64Histogram(name, opts...)
		errs = append(errs, err)
		return h
	}

	in.syncRuns = counter("marketplace.sync.runs", "Sync runs by platform and final status.")
	in.syncDuration = histogram("marketplace.sync.run.duration", "Wall-clock duration of sync runs.",
		0.5, 1, 5, 15, 30, 60, 120, 300, 600)
	in.syncItems = counter("marketplace.sync.items", "Reconciled products by platform and outcome.")
	in.webhookTotal = counter("marketplace.webhook.deliveries", "Webhook deliveries by platform, topic and terminal state.")
	in.platformRequests = counter("marketplace.platform.requests", "Outbound platform API attempts by status class.")
	in.platformLatency = histogram("marketplace.platform.request.duration", "Outbound platform API attempt latency.")
	in.platformRetries = counter("marketplace.platform.retries", "Retries of platform API calls by reason.")
	in.httpRequests = counter("marketplace.http.requests", "Inbound HTTP requests.")
	in.httpDuration = histogram("marketplace.http.request.duration", "Inbound HTTP request latency.")

	upDown, err := meter.Int64UpDownCounter("marketplace.sync.in_progress",
		metric.WithDescription("Sync runs currently executing in this process."))
	errs = append(errs, err)
	in.syncsInProgress = upDown

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to create OTel instrument: %w", err)
		}
	}
	return &in, nil
}
