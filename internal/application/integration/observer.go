package integration

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// tracer scopes the spans started by sync runs and webhook dispatch
var tracer = otel.Tracer("integration/sync")

// SyncObserver receives run-level measurements
type SyncObserver interface {
	SyncStarted()
	ObserveSyncRun(platform, status string, duration time.Duration, added, updated, skipped, failed int)
}

// WebhookObserver receives the terminal state of each delivery
type WebhookObserver interface {
	ObserveWebhook(platform, topic, state string)
}

var (
	_ SyncObserver    = (*telemetry.IntegrationMetrics)(nil)
	_ WebhookObserver = (*telemetry.IntegrationMetrics)(nil)
)

type nopObserver struct{}

func (nopObserver) SyncStarted()                                                     {}
func (nopObserver) ObserveSyncRun(string, string, time.Duration, int, int, int, int) {}
func (nopObserver) ObserveWebhook(string, string, string)                            {}

// publishEvents sends events and logs a failure; delivery never fails the caller
func publishEvents(ctx context.Context, publisher shared.EventPublisher, log *zap.Logger, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Enrich(ctx, log).Warn("Failed to publish integration events",
			zap.Int("count", len(events)),
			zap.String("event_type", events[0].EventType()),
			zap.Error(err),
		)
	}
}
