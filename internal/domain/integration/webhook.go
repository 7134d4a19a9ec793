package integration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Webhook topics
// ---------------------------------------------------------------------------

// Shopify topics (X-Shopify-Topic)
const (
	ShopifyTopicProductsCreate = "products/create"
	ShopifyTopicProductsUpdate = "products/update"
	ShopifyTopicProductsDelete = "products/delete"
	ShopifyTopicOrdersCreate   = "orders/create"
	ShopifyTopicOrdersUpdated  = "orders/updated"
	ShopifyTopicAppUninstalled = "app/uninstalled"
)

// WooCommerce topics (X-WC-Webhook-Topic)
const (
	WooTopicProductCreated = "product.created"
	WooTopicProductUpdated = "product.updated"
	WooTopicProductDeleted = "product.deleted"
	WooTopicOrderCreated   = "order.created"
	WooTopicOrderUpdated   = "order.updated"
)

// ---------------------------------------------------------------------------
// WebhookState
// ---------------------------------------------------------------------------

// WebhookState tracks an inbound webhook through verification and dispatch
type WebhookState string

const (
	WebhookStateReceived      WebhookState = "RECEIVED"
	WebhookStateVerified      WebhookState = "VERIFIED"
	WebhookStateRejected      WebhookState = "REJECTED"
	WebhookStateDispatched    WebhookState = "DISPATCHED"
	WebhookStateHandled       WebhookState = "HANDLED"
	WebhookStateHandlerFailed WebhookState = "HANDLER_FAILED"
	// WebhookStateUnhandled means the topic has no handler; it is acknowledged
	WebhookStateUnhandled WebhookState = "UNHANDLED"
)

// String returns the string representation of WebhookState
func (s WebhookState) String() string {
	return string(s)
}

// IsAcknowledged returns true if the platform should be told the delivery succeeded
func (s WebhookState) IsAcknowledged() bool {
	return s == WebhookStateHandled || s == WebhookStateUnhandled
}

// ---------------------------------------------------------------------------
// WebhookEvent
// ---------------------------------------------------------------------------

// WebhookEvent is an inbound platform notification. Payload holds the raw
// body exactly as received, which is what the signature covers.
type WebhookEvent struct {
	Platform     PlatformType
	Topic        string
	ShopIdentity string
	DeliveryID   string
	Signature    string
	Payload      []byte
	ReceivedAt   time.Time

	// Set once the shop identity is resolved to a connection
	ConnectionID uuid.UUID
	MerchantID   string
}

// IdempotencyKey scopes the platform delivery ID to the shop.
// It is empty when the platform sent no delivery ID.
func (e *WebhookEvent) IdempotencyKey() string {
	if e.DeliveryID == "" {
		return ""
	}
	return e.Platform.String() + ":" + e.ShopIdentity + ":" + e.DeliveryID
}

// Bind attaches the resolved connection to the event
func (e *WebhookEvent) Bind(conn *Connection) {
	e.ConnectionID = conn.ID
	e.MerchantID = conn.MerchantID
}
