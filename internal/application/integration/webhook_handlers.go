package integration

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/domain/shared"
)

// WebhookHandlers implements the built-in topic handlers
type WebhookHandlers struct {
	sync        *SyncService
	credentials *CredentialService
	clients     integration.PlatformClientResolver
	logger      *zap.Logger
}

// NewWebhookHandlers creates the built-in handlers
func NewWebhookHandlers(
	sync *SyncService,
	credentials *CredentialService,
	clients integration.PlatformClientResolver,
	logger *zap.Logger,
) *WebhookHandlers {
	return &WebhookHandlers{sync: sync, credentials: credentials, clients: clients, logger: logger}
}

// ProductUpsert reconciles the product carried by a create or update webhook
func (h *WebhookHandlers) ProductUpsert(ctx context.Context, conn *integration.Connection, event *integration.WebhookEvent) error {
	client, err := h.clients.Client(conn.Platform)
	if err != nil {
		return err
	}
	product, err := client.DecodeProductWebhook(event.Payload)
	if err != nil {
		return err
	}
	kind, err := h.sync.reconcileWith(ctx, conn, product)
	if err != nil {
		return err
	}
	h.logger.Debug("Product webhook reconciled",
		zap.String("connection_id", conn.ID.String()),
		zap.String("platform_product_id", product.ID),
		zap.String("change", string(kind)),
	)
	return nil
}

// ProductDelete removes the local product named by an explicit remote delete
func (h *WebhookHandlers) ProductDelete(ctx context.Context, conn *integration.Connection, event *integration.WebhookEvent) error {
	client, err := h.clients.Client(conn.Platform)
	if err != nil {
		return err
	}
	productID, err := client.DecodeProductDeletion(event.Payload)
	if err != nil {
		return err
	}
	return h.sync.RemoveLocalProduct(ctx, conn, productID)
}

// OrderUpsert writes the order carried by the webhook into the ledger
func (h *WebhookHandlers) OrderUpsert(ctx context.Context, conn *integration.Connection, event *integration.WebhookEvent) error {
	client, err := h.clients.Client(conn.Platform)
	if err != nil {
		return err
	}
	order, err := client.DecodeOrderWebhook(event.Payload)
	if err != nil {
		return err
	}
	_, err = h.sync.ImportOrder(ctx, conn, order)
	return err
}

// AppUninstalled disconnects the store; its tokens are no longer valid
func (h *WebhookHandlers) AppUninstalled(ctx context.Context, conn *integration.Connection, _ *integration.WebhookEvent) error {
	_, err := h.credentials.Disconnect(ctx, conn.ID)
	if errors.Is(err, integration.ErrCredentialsNotFound) {
		return nil
	}
	return err
}

// RegisterDefaultHandlers routes every built-in topic of both platforms.
// Each handler runs at most once per delivery ID.
func RegisterDefaultHandlers(
	d *WebhookDispatcher,
	h *WebhookHandlers,
	store shared.IdempotencyStore,
	ttl time.Duration,
	logger *zap.Logger,
) error {
	once := func(fn WebhookHandlerFunc) WebhookHandler {
		if store == nil {
			return fn
		}
		return NewIdempotentWebhookHandler(fn, store, ttl, logger)
	}

	routes := []struct {
		platform integration.PlatformType
		topic    string
		handler  WebhookHandlerFunc
	}{
		{integration.PlatformShopify, integration.ShopifyTopicProductsCreate, h.ProductUpsert},
		{integration.PlatformShopify, integration.ShopifyTopicProductsUpdate, h.ProductUpsert},
		{integration.PlatformShopify, integration.ShopifyTopicProductsDelete, h.ProductDelete},
		{integration.PlatformShopify, integration.ShopifyTopicOrdersCreate, h.OrderUpsert},
		{integration.PlatformShopify, integration.ShopifyTopicOrdersUpdated, h.OrderUpsert},
		{integration.PlatformShopify, integration.ShopifyTopicAppUninstalled, h.AppUninstalled},
		{integration.PlatformWooCommerce, integration.WooTopicProductCreated, h.ProductUpsert},
		{integration.PlatformWooCommerce, integration.WooTopicProductUpdated, h.ProductUpsert},
		{integration.PlatformWooCommerce, integration.WooTopicProductDeleted, h.ProductDelete},
		{integration.PlatformWooCommerce, integration.WooTopicOrderCreated, h.OrderUpsert},
		{integration.PlatformWooCommerce, integration.WooTopicOrderUpdated, h.OrderUpsert},
	}
	for _, r := range routes {
		if err := d.Register(r.platform, r.topic, once(r.handler)); err != nil {
			return err
		}
	}
	return nil
}
