package integration

import (
	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/shared"
)

// AggregateTypeConnection is the aggregate type for integration events
const AggregateTypeConnection = "IntegrationConnection"

// Event types published by the integration context
const (
	EventTypeSyncStarted     = "SYNC_STARTED"
	EventTypeSyncCompleted   = "SYNC_COMPLETED"
	EventTypeProductImported = "PRODUCT_IMPORTED"
	EventTypeProductRemoved  = "PRODUCT_REMOVED"
	EventTypeOrderImported   = "ORDER_IMPORTED"
	EventTypeWebhookReceived = "WEBHOOK_RECEIVED"
)

// ProductChange describes what a reconcile did to a local product
type ProductChange string

const (
	ProductChangeCreated ProductChange = "created"
	ProductChangeUpdated ProductChange = "updated"
)

// SyncStartedEvent is published when a run claims a connection
type SyncStartedEvent struct {
	shared.BaseDomainEvent
	ConnectionID uuid.UUID    `json:"connection_id"`
	Platform     PlatformType `json:"platform"`
}

// NewSyncStartedEvent creates a SyncStartedEvent
func NewSyncStartedEvent(conn *Connection) *SyncStartedEvent {
	return &SyncStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSyncStarted, AggregateTypeConnection, conn.ID, conn.MerchantID),
		ConnectionID:    conn.ID,
		Platform:        conn.Platform,
	}
}

// SyncCompletedEvent is published when a run releases a connection
type SyncCompletedEvent struct {
	shared.BaseDomainEvent
	ConnectionID uuid.UUID    `json:"connection_id"`
	Platform     PlatformType `json:"platform"`
	Status       SyncStatus   `json:"status"`
	Result       SyncResult   `json:"result"`
}

// NewSyncCompletedEvent creates a SyncCompletedEvent
func NewSyncCompletedEvent(conn *Connection, result SyncResult) *SyncCompletedEvent {
	return &SyncCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSyncCompleted, AggregateTypeConnection, conn.ID, conn.MerchantID),
		ConnectionID:    conn.ID,
		Platform:        conn.Platform,
		Status:          result.Status(),
		Result:          result,
	}
}

// ProductImportedEvent is published for each local create or update
type ProductImportedEvent struct {
	shared.BaseDomainEvent
	ConnectionID      uuid.UUID     `json:"connection_id"`
	CatalogProductID  uuid.UUID     `json:"catalog_product_id"`
	PlatformProductID string        `json:"platform_product_id"`
	Change            ProductChange `json:"change"`
}

// NewProductImportedEvent creates a ProductImportedEvent
func NewProductImportedEvent(conn *Connection, product *CatalogProduct, change ProductChange) *ProductImportedEvent {
	return &ProductImportedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeProductImported, AggregateTypeConnection, conn.ID, conn.MerchantID),
		ConnectionID:      conn.ID,
		CatalogProductID:  product.ID,
		PlatformProductID: product.PlatformProductID,
		Change:            change,
	}
}

// ProductRemovedEvent is published when a linked local product is deleted
type ProductRemovedEvent struct {
	shared.BaseDomainEvent
	ConnectionID      uuid.UUID `json:"connection_id"`
	PlatformProductID string    `json:"platform_product_id"`
}

// NewProductRemovedEvent creates a ProductRemovedEvent
func NewProductRemovedEvent(conn *Connection, platformProductID string) *ProductRemovedEvent {
	return &ProductRemovedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeProductRemoved, AggregateTypeConnection, conn.ID, conn.MerchantID),
		ConnectionID:      conn.ID,
		PlatformProductID: platformProductID,
	}
}

// OrderImportedEvent is published when an order is written to the ledger
type OrderImportedEvent struct {
	shared.BaseDomainEvent
	ConnectionID    uuid.UUID `json:"connection_id"`
	PlatformOrderID string    `json:"platform_order_id"`
	Created         bool      `json:"created"`
}

// NewOrderImportedEvent creates an OrderImportedEvent
func NewOrderImportedEvent(conn *Connection, orderID string, created bool) *OrderImportedEvent {
	return &OrderImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderImported, AggregateTypeConnection, conn.ID, conn.MerchantID),
		ConnectionID:    conn.ID,
		PlatformOrderID: orderID,
		Created:         created,
	}
}

// WebhookReceivedEvent is published after a verified webhook has been dispatched
type WebhookReceivedEvent struct {
	shared.BaseDomainEvent
	ConnectionID uuid.UUID    `json:"connection_id"`
	Topic        string       `json:"topic"`
	State        WebhookState `json:"state"`
}

// NewWebhookReceivedEvent creates a WebhookReceivedEvent
func NewWebhookReceivedEvent(conn *Connection, topic string, state WebhookState) *WebhookReceivedEvent {
	return &WebhookReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWebhookReceived, AggregateTypeConnection, conn.ID, conn.MerchantID),
		ConnectionID:    conn.ID,
		Topic:           topic,
		State:           state,
	}
}
