package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// PlatformClient Port Interface
// ---------------------------------------------------------------------------

// PlatformClient is the port for one storefront platform. Credentials are
// passed on every call; adapters hold no per-merchant state.
type PlatformClient interface {
	// Platform returns the platform this adapter handles
	Platform() PlatformType

	// Authenticate checks the credentials against the platform.
	// A rejection (401/403) is reported as false with a nil error.
	Authenticate(ctx context.Context, creds PlatformCredentials) (bool, error)

	// FetchProducts returns one page of the remote catalog. An empty cursor starts from the beginning.
	FetchProducts(ctx context.Context, creds PlatformCredentials, cursor string) (*ProductPage, error)

	// CountProducts returns the total number of products the platform reports
	CountProducts(ctx context.Context, creds PlatformCredentials) (int, error)

	// FetchOrders returns one page of remote orders
	FetchOrders(ctx context.Context, creds PlatformCredentials, cursor string) (*OrderPage, error)

	CreateProduct(ctx context.Context, creds PlatformCredentials, product *PlatformProduct) (*PlatformProduct, error)
	UpdateProduct(ctx context.Context, creds PlatformCredentials, product *PlatformProduct) (*PlatformProduct, error)
	DeleteProduct(ctx context.Context, creds PlatformCredentials, productID string) error

	// VerifyWebhookSignature checks the signature over the raw payload in constant time
	VerifyWebhookSignature(creds PlatformCredentials, payload []byte, signature string) bool

	WebhookDecoder
}

// WebhookDecoder turns platform webhook bodies into domain values
type WebhookDecoder interface {
	DecodeProductWebhook(payload []byte) (*PlatformProduct, error)
	// DecodeProductDeletion extracts the ID of a deleted product
	DecodeProductDeletion(payload []byte) (string, error)
	DecodeOrderWebhook(payload []byte) (*PlatformOrder, error)
}

// PlatformClientResolver selects the adapter for a platform type
type PlatformClientResolver interface {
	Client(platform PlatformType) (PlatformClient, error)
	Platforms() []PlatformType
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// ConnectionRepository stores connections and their credentials.
// Lookups that find nothing return *CredentialsNotFoundError.
type ConnectionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Connection, error)
	FindByMerchant(ctx context.Context, merchantID string, platform PlatformType) (*Connection, error)
	FindByIdentity(ctx context.Context, platform PlatformType, identity string) (*Connection, error)
	Save(ctx context.Context, conn *Connection) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SyncStatusRepository persists sync lifecycle records
type SyncStatusRepository interface {
	// Get returns ErrSyncStatusNotFound when no record exists
	Get(ctx context.Context, connectionID uuid.UUID) (*SyncStatusRecord, error)
	// Create inserts the record. It reports false when a record already exists.
	Create(ctx context.Context, record *SyncStatusRecord) (bool, error)
	// TryBegin atomically claims the connection for record.RunID. It returns
	// false when another run holds a claim that started at or after staleCutoff.
	TryBegin(ctx context.Context, record *SyncStatusRecord, now, staleCutoff time.Time) (bool, error)
	// Finish writes the outcome fields of a released record. Only the run
	// holding the claim may finish; any other gets ErrSyncSuperseded.
	Finish(ctx context.Context, record *SyncStatusRecord) error
	// MarkPending sets PENDING unless a run is in progress
	MarkPending(ctx context.Context, connectionID uuid.UUID, now time.Time) (bool, error)
}

// CatalogReader reads the local catalog scoped to a connection
type CatalogReader interface {
	// FindByPlatformIDs returns linked products keyed by platform product ID
	FindByPlatformIDs(ctx context.Context, connectionID uuid.UUID, platformIDs []string) (map[string]*CatalogProduct, error)
	FindByPlatformID(ctx context.Context, connectionID uuid.UUID, platformID string) (*CatalogProduct, error)
	ListPlatformIDs(ctx context.Context, connectionID uuid.UUID) ([]string, error)
}

// CatalogWriter applies reconciled changes to the local catalog
type CatalogWriter interface {
	Create(ctx context.Context, product *CatalogProduct) error
	Update(ctx context.Context, product *CatalogProduct) error
	// Delete returns ErrProductNotFound if nothing was linked
	Delete(ctx context.Context, connectionID uuid.UUID, platformID string) error
}

// CatalogRepository combines catalog reads and writes
type CatalogRepository interface {
	CatalogReader
	CatalogWriter
}

// OrderWriter upserts imported orders keyed by (connection, platform order ID)
type OrderWriter interface {
	Upsert(ctx context.Context, conn *Connection, order *PlatformOrder) (created bool, err error)
}

// WebhookArchive keeps verified webhook payloads for audit and replay
type WebhookArchive interface {
	Archive(ctx context.Context, event *WebhookEvent) error
}
