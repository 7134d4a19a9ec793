package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketplace/backend/internal/domain/integration"
)

// Webhook headers
const (
	HeaderShopifyTopic     = "X-Shopify-Topic"
	HeaderShopifyHmac      = "X-Shopify-Hmac-Sha256"
	HeaderShopifyShop      = "X-Shopify-Shop-Domain"
	HeaderShopifyEventID   = "X-Shopify-Event-Id"
	HeaderShopifyWebhookID = "X-Shopify-Webhook-Id"

	HeaderWooTopic      = "X-WC-Webhook-Topic"
	HeaderWooSignature  = "X-WC-Webhook-Signature"
	HeaderWooSource     = "X-WC-Webhook-Source"
	HeaderWooDeliveryID = "X-WC-Webhook-Delivery-ID"
)

// DefaultWebhookBodyLimit caps a webhook body at 1 MiB
const DefaultWebhookBodyLimit int64 = 1 << 20

// WebhookHandler receives platform webhooks. It answers with a status code
// and a one-field body; the HMAC is the only authentication.
type WebhookHandler struct {
	receiver  WebhookReceiver
	bodyLimit int64
	now       func() time.Time
}

// NewWebhookHandler creates a WebhookHandler. A non-positive limit uses
// DefaultWebhookBodyLimit.
func NewWebhookHandler(receiver WebhookReceiver, bodyLimit int64) *WebhookHandler {
	if bodyLimit <= 0 {
		bodyLimit = DefaultWebhookBodyLimit
	}
	return &WebhookHandler{receiver: receiver, bodyLimit: bodyLimit, now: time.Now}
}

// Receive godoc
// @ID           receiveWebhook
// @Summary      Receive a platform webhook
// @Description  Verifies the HMAC signature and dispatches the delivery by topic
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        platform  path      string  true  "Platform"  Enums(shopify, woocommerce)
// @Success      200       {object}  WebhookAck
// @Failure      401       {object}  WebhookAck
// @Failure      404       {object}  WebhookAck
// @Failure      413       {object}  WebhookAck
// @Failure      500       {object}  WebhookAck
// @Router       /webhooks/{platform} [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	platform, err := integration.ParsePlatformType(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusNotFound, WebhookAck{Status: "UNKNOWN_PLATFORM"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.bodyLimit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, WebhookAck{Status: "TOO_LARGE"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, WebhookAck{Status: "UNREADABLE"})
		return
	}

	event := h.eventFromRequest(c.Request, platform, body)
	if platform == integration.PlatformWooCommerce && isWooPing(event, body) {
		c.JSON(http.StatusOK, WebhookAck{Status: "PING"})
		return
	}

	outcome, err := h.receiver.Handle(c.Request.Context(), event)
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(webhookStatusCode(outcome.State), WebhookAck{Status: outcome.State.String()})
}

func (h *WebhookHandler) eventFromRequest(r *http.Request, platform integration.PlatformType, body []byte) *integration.WebhookEvent {
	event := &integration.WebhookEvent{
		Platform:   platform,
		Payload:    body,
		ReceivedAt: h.now(),
	}
	switch platform {
	case integration.PlatformShopify:
		event.Topic = r.Header.Get(HeaderShopifyTopic)
		event.Signature = r.Header.Get(HeaderShopifyHmac)
		event.ShopIdentity = r.Header.Get(HeaderShopifyShop)
		event.DeliveryID = r.Header.Get(HeaderShopifyEventID)
		if event.DeliveryID == "" {
			event.DeliveryID = r.Header.Get(HeaderShopifyWebhookID)
		}
	case integration.PlatformWooCommerce:
		event.Topic = r.Header.Get(HeaderWooTopic)
		event.Signature = r.Header.Get(HeaderWooSignature)
		event.ShopIdentity = r.Header.Get(HeaderWooSource)
		event.DeliveryID = r.Header.Get(HeaderWooDeliveryID)
	}
	return event
}

// isWooPing matches the form-encoded ping WooCommerce sends when a webhook
// is saved
func isWooPing(event *integration.WebhookEvent, body []byte) bool {
	return event.Topic == "" && bytes.HasPrefix(body, []byte("webhook_id="))
}

func webhookStatusCode(state integration.WebhookState) int {
	switch state {
	case integration.WebhookStateHandled, integration.WebhookStateUnhandled:
		return http.StatusOK
	case integration.WebhookStateRejected:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
