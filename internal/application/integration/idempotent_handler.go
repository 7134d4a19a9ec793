package integration

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/domain/shared"
)

// DefaultIdempotencyTTL is how long a delivery ID is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotentWebhookHandler runs the wrapped handler at most once per delivery.
// A redelivery is acknowledged without side effects; a failed delivery
// releases its key so the platform's retry is processed.
type IdempotentWebhookHandler struct {
	inner  WebhookHandler
	store  shared.IdempotencyStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewIdempotentWebhookHandler wraps inner. A non-positive ttl uses DefaultIdempotencyTTL.
func NewIdempotentWebhookHandler(inner WebhookHandler, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentWebhookHandler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotentWebhookHandler{inner: inner, store: store, ttl: ttl, logger: logger}
}

// Handle implements WebhookHandler
func (h *IdempotentWebhookHandler) Handle(ctx context.Context, conn *integration.Connection, event *integration.WebhookEvent) error {
	key := event.IdempotencyKey()
	if key == "" {
		return h.inner.Handle(ctx, conn, event)
	}

	claimed, err := h.store.MarkProcessed(ctx, key, h.ttl)
	if err != nil {
		// handlers are upserts; a second run is harmless
		h.logger.Warn("Idempotency store unavailable, processing delivery",
			zap.String("delivery_id", event.DeliveryID),
			zap.Error(err),
		)
		return h.inner.Handle(ctx, conn, event)
	}
	if !claimed {
		h.logger.Info("Duplicate webhook delivery acknowledged",
			zap.String("delivery_id", event.DeliveryID),
			zap.String("topic", event.Topic),
			zap.String("connection_id", conn.ID.String()),
		)
		return nil
	}

	if err := h.inner.Handle(ctx, conn, event); err != nil {
		if rerr := h.store.Release(context.WithoutCancel(ctx), key); rerr != nil {
			h.logger.Warn("Failed to release idempotency key",
				zap.String("delivery_id", event.DeliveryID),
				zap.Error(rerr),
			)
		}
		return err
	}
	return nil
}
