package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const metricsNamespace = "marketplace"

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Path    string
	// RuntimeCollectors adds Go runtime and process collectors to the registry
	RuntimeCollectors bool
}

// IntegrationMetrics holds every Prometheus collector the service exports.
// It is registered on its own registry so tests can create as many as they like.
type IntegrationMetrics struct {
	registry *prometheus.Registry

	syncRuns         *prometheus.CounterVec
	syncDuration     *prometheus.HistogramVec
	syncItems        *prometheus.CounterVec
	webhookTotal     *prometheus.CounterVec
	platformRequests *prometheus.CounterVec
	platformLatency  *prometheus.HistogramVec
	platformRetries  *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	syncsInProgress  prometheus.Gauge

	// otel is set by ExportTo; nil means Prometheus only
	otel *otelInstruments
}

// NewIntegrationMetrics creates and registers all collectors
func NewIntegrationMetrics(cfg MetricsConfig) *IntegrationMetrics {
	m := &IntegrationMetrics{
		registry: prometheus.NewRegistry(),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "sync", Name: "runs_total",
			Help: "Sync runs by platform and final status.",
		}, []string{"platform", "status"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "sync", Name: "run_duration_seconds",
			Help:    "Wall-clock duration of sync runs.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"platform"}),
		syncItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "sync", Name: "items_total",
			Help: "Reconciled products by platform and outcome (added, updated, skipped, failed).",
		}, []string{"platform", "outcome"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "webhook", Name: "deliveries_total",
			Help: "Webhook deliveries by platform, topic and terminal state.",
		}, []string{"platform", "topic", "state"}),
		platformRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "platform", Name: "requests_total",
			Help: "Outbound platform API attempts by status class (0 is a transport failure).",
		}, []string{"platform", "method", "status"}),
		platformLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "platform", Name: "request_duration_seconds",
			Help:    "Outbound platform API attempt latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform", "method"}),
		platformRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "platform", Name: "retries_total",
			Help: "Retries of platform API calls by reason.",
		}, []string{"platform", "reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "http", Name: "requests_total",
			Help: "Inbound HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Inbound HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		syncsInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Subsystem: "sync", Name: "in_progress",
			Help: "Sync runs currently executing in this process.",
		}),
	}

	m.registry.MustRegister(
		m.syncRuns, m.syncDuration, m.syncItems, m.webhookTotal,
		m.platformRequests, m.platformLatency, m.platformRetries,
		m.httpRequests, m.httpDuration, m.syncsInProgress,
	)
	if cfg.RuntimeCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry exposes the underlying registry for tests and custom collectors
func (m *IntegrationMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *IntegrationMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ExportTo records every observation on meter as well, so the OTLP pipeline
// carries the same series as /metrics. Call it once before serving.
func (m *IntegrationMetrics) ExportTo(meter metric.Meter) error {
	in, err := newOtelInstruments(meter)
	if err != nil {
		return err
	}
	m.otel = in
	return nil
}

// SyncStarted increments the in-progress gauge
func (m *IntegrationMetrics) SyncStarted() {
	m.syncsInProgress.Inc()
	if m.otel != nil {
		m.otel.syncsInProgress.Add(context.Background(), 1)
	}
}

// ObserveSyncRun records a finished run and its per-item outcomes
func (m *IntegrationMetrics) ObserveSyncRun(platform, status string, duration time.Duration, added, updated, skipped, failed int) {
	m.syncsInProgress.Dec()
	m.syncRuns.WithLabelValues(platform, status).Inc()
	m.syncDuration.WithLabelValues(platform).Observe(duration.Seconds())
	m.syncItems.WithLabelValues(platform, "added").Add(float64(added))
	m.syncItems.WithLabelValues(platform, "updated").Add(float64(updated))
	m.syncItems.WithLabelValues(platform, "skipped").Add(float64(skipped))
	m.syncItems.WithLabelValues(platform, "failed").Add(float64(failed))

	if m.otel == nil {
		return
	}
	ctx := context.Background()
	platformAttr := attribute.String("platform", platform)
	m.otel.syncsInProgress.Add(ctx, -1)
	m.otel.syncRuns.Add(ctx, 1, metric.WithAttributes(platformAttr, attribute.String("status", status)))
	m.otel.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(platformAttr))
	for outcome, n := range map[string]int{"added": added, "updated": updated, "skipped": skipped, "failed": failed} {
		m.otel.syncItems.Add(ctx, int64(n), metric.WithAttributes(platformAttr, attribute.String("outcome", outcome)))
	}
}

// ObserveWebhook records the terminal state of one delivery
func (m *IntegrationMetrics) ObserveWebhook(platform, topic, state string) {
	m.webhookTotal.WithLabelValues(platform, topic, state).Inc()
	if m.otel != nil {
		m.otel.webhookTotal.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("platform", platform),
			attribute.String("topic", topic),
			attribute.String("state", state),
		))
	}
}

// ObservePlatformRequest records one outbound attempt
func (m *IntegrationMetrics) ObservePlatformRequest(platform, method string, statusCode int, duration time.Duration) {
	m.platformRequests.WithLabelValues(platform, method, statusClass(statusCode)).Inc()
	m.platformLatency.WithLabelValues(platform, method).Observe(duration.Seconds())
	if m.otel != nil {
		ctx := context.Background()
		attrs := []attribute.KeyValue{attribute.String("platform", platform), attribute.String("method", method)}
		m.otel.platformRequests.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("status", statusClass(statusCode)))...))
		m.otel.platformLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
}

// ObservePlatformRetry records one retry decision
func (m *IntegrationMetrics) ObservePlatformRetry(platform, reason string) {
	m.platformRetries.WithLabelValues(platform, reason).Inc()
	if m.otel != nil {
		m.otel.platformRetries.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("platform", platform),
			attribute.String("reason", reason),
		))
	}
}

// ObserveHTTPRequest records one inbound request; route is the matched pattern
func (m *IntegrationMetrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if m.otel != nil {
		ctx := context.Background()
		attrs := []attribute.KeyValue{attribute.String("method", method), attribute.String("route", route)}
		m.otel.httpRequests.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.Int("status", status))...))
		m.otel.httpDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
}

// statusClass collapses status codes to 2xx/4xx/5xx, keeping 429 distinct
func statusClass(code int) string {
	switch {
	case code == 0:
		return "0"
	case code == http.StatusTooManyRequests:
		return "429"
	default:
		return strconv.Itoa(code/100) + "xx"
	}
}
