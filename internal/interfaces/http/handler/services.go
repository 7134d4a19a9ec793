package handler

import (
	"context"

	"github.com/google/uuid"

	integrationapp "github.com/marketplace/backend/internal/application/integration"
	"github.com/marketplace/backend/internal/domain/integration"
)

// ConnectionService is the credential store surface the admin API uses
type ConnectionService interface {
	GetConnection(ctx context.Context, connectionID uuid.UUID) (*integration.Connection, error)
	SaveCredentials(ctx context.Context, merchantID string, platform integration.PlatformType, creds integration.PlatformCredentials) (*integration.Connection, error)
	Reauthorize(ctx context.Context, merchantID string, platform integration.PlatformType, creds integration.PlatformCredentials) (*integration.Connection, error)
	Disconnect(ctx context.Context, connectionID uuid.UUID) (*integration.Connection, error)
}

// SyncRunner runs reconciliation work for one connection
type SyncRunner interface {
	SyncProducts(ctx context.Context, connectionID uuid.UUID) (*integration.SyncResult, error)
	SyncByMerchant(ctx context.Context, merchantID string, platform integration.PlatformType) (*integration.SyncResult, error)
	SweepDeletions(ctx context.Context, connectionID uuid.UUID, opts integrationapp.SweepOptions) (*integrationapp.SweepResult, error)
	ImportOrders(ctx context.Context, connectionID uuid.UUID) (*integration.SyncResult, error)
	PushProduct(ctx context.Context, connectionID uuid.UUID, product *integration.PlatformProduct) (*integration.PlatformProduct, error)
	RemoveRemoteProduct(ctx context.Context, connectionID uuid.UUID, productID string) error
}

// SyncStatusReader reads the per-connection sync record
type SyncStatusReader interface {
	GetStatus(ctx context.Context, connectionID uuid.UUID) (*integration.SyncStatusRecord, error)
}

// WebhookReceiver verifies and dispatches one inbound delivery
type WebhookReceiver interface {
	Handle(ctx context.Context, event *integration.WebhookEvent) (integrationapp.WebhookOutcome, error)
}

var (
	_ ConnectionService = (*integrationapp.CredentialService)(nil)
	_ SyncRunner        = (*integrationapp.SyncService)(nil)
	_ SyncStatusReader  = (*integrationapp.SyncStatusTracker)(nil)
	_ WebhookReceiver   = (*integrationapp.WebhookDispatcher)(nil)
)
