package storage

import (
	"context"

	"github.com/marketplace/backend/internal/domain/integration"
)

// NoopWebhookArchive discards payloads. It is used when archiving is disabled.
type NoopWebhookArchive struct{}

// NewNoopWebhookArchive creates a NoopWebhookArchive
func NewNoopWebhookArchive() *NoopWebhookArchive {
	return &NoopWebhookArchive{}
}

var _ integration.WebhookArchive = (*NoopWebhookArchive)(nil)

// Archive does nothing
func (NoopWebhookArchive) Archive(context.Context, *integration.WebhookEvent) error {
	return nil
}
