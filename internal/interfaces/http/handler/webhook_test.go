package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	integrationapp "github.com/marketplace/backend/internal/application/integration"
	"github.com/marketplace/backend/internal/domain/integration"
)

func setupWebhookRouter(receiver WebhookReceiver, limit int64) *gin.Engine {
	h := NewWebhookHandler(receiver, limit)
	h.now = func() time.Time { return time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.POST("/webhooks/:platform", h.Receive)
	return r
}

func postWebhook(r http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ackStatus(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var ack WebhookAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	return ack.Status
}

func TestWebhookHandler_ShopifyHeaders(t *testing.T) {
	receiver := new(MockWebhookReceiver)
	body := `{"id":632910392,"title":"Linen shirt"}`
	receiver.On("Handle", mock.Anything, mock.MatchedBy(func(e *integration.WebhookEvent) bool {
		return e.Platform == integration.PlatformShopify &&
			e.Topic == integration.ShopifyTopicProductsUpdate &&
			e.Signature == "c2lnbmF0dXJl" &&
			e.ShopIdentity == "demo.myshopify.com" &&
			e.DeliveryID == "evt-1" &&
			bytes.Equal(e.Payload, []byte(body)) &&
			!e.ReceivedAt.IsZero()
	})).Return(integrationapp.WebhookOutcome{State: integration.WebhookStateHandled}, nil)

	w := postWebhook(setupWebhookRouter(receiver, 0), "/webhooks/shopify", body, map[string]string{
		HeaderShopifyTopic:     integration.ShopifyTopicProductsUpdate,
		HeaderShopifyHmac:      "c2lnbmF0dXJl",
		HeaderShopifyShop:      "demo.myshopify.com",
		HeaderShopifyEventID:   "evt-1",
		HeaderShopifyWebhookID: "wh-1",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HANDLED", ackStatus(t, w))
	receiver.AssertExpectations(t)
}

func TestWebhookHandler_ShopifyDeliveryIDFallback(t *testing.T) {
	receiver := new(MockWebhookReceiver)
	receiver.On("Handle", mock.Anything, mock.MatchedBy(func(e *integration.WebhookEvent) bool {
		return e.DeliveryID == "wh-1"
	})).Return(integrationapp.WebhookOutcome{State: integration.WebhookStateUnhandled}, nil)

	w := postWebhook(setupWebhookRouter(receiver, 0), "/webhooks/shopify", `{}`, map[string]string{
		HeaderShopifyTopic:     "shop/update",
		HeaderShopifyWebhookID: "wh-1",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UNHANDLED", ackStatus(t, w))
}

func TestWebhookHandler_WooCommerceHeaders(t *testing.T) {
	receiver := new(MockWebhookReceiver)
	receiver.On("Handle", mock.Anything, mock.MatchedBy(func(e *integration.WebhookEvent) bool {
		return e.Platform == integration.PlatformWooCommerce &&
			e.Topic == integration.WooTopicOrderCreated &&
			e.Signature == "d29vc2ln" &&
			e.ShopIdentity == "https://shop.example.com/" &&
			e.DeliveryID == "42"
	})).Return(integrationapp.WebhookOutcome{State: integration.WebhookStateHandled}, nil)

	w := postWebhook(setupWebhookRouter(receiver, 0), "/webhooks/woocommerce", `{"id":1}`, map[string]string{
		HeaderWooTopic:      integration.WooTopicOrderCreated,
		HeaderWooSignature:  "d29vc2ln",
		HeaderWooSource:     "https://shop.example.com/",
		HeaderWooDeliveryID: "42",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	receiver.AssertExpectations(t)
}

func TestWebhookHandler_WooCommercePing(t *testing.T) {
	receiver := new(MockWebhookReceiver)

	w := postWebhook(setupWebhookRouter(receiver, 0), "/webhooks/woocommerce", "webhook_id=17", map[string]string{
		"Content-Type":  "application/x-www-form-urlencoded",
		HeaderWooSource: "https://shop.example.com/",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	receiver.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestWebhookHandler_OutcomeStatusCodes(t *testing.T) {
	tests := []struct {
		state      integration.WebhookState
		err        error
		wantStatus int
	}{
		{integration.WebhookStateHandled, nil, http.StatusOK},
		{integration.WebhookStateUnhandled, nil, http.StatusOK},
		{integration.WebhookStateRejected, &integration.InvalidSignatureError{Platform: integration.PlatformShopify, Reason: "signature mismatch"}, http.StatusUnauthorized},
		{integration.WebhookStateHandlerFailed, errors.New("catalog unavailable"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			receiver := new(MockWebhookReceiver)
			receiver.On("Handle", mock.Anything, mock.Anything).Return(integrationapp.WebhookOutcome{State: tt.state}, tt.err)

			w := postWebhook(setupWebhookRouter(receiver, 0), "/webhooks/shopify", `{}`, map[string]string{
				HeaderShopifyTopic: integration.ShopifyTopicProductsCreate,
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.state.String(), ackStatus(t, w))
			if tt.err != nil {
				assert.NotContains(t, w.Body.String(), tt.err.Error())
			}
		})
	}
}

func TestWebhookHandler_BodyLimit(t *testing.T) {
	receiver := new(MockWebhookReceiver)

	w := postWebhook(setupWebhookRouter(receiver, 16), "/webhooks/shopify", strings.Repeat("x", 64), map[string]string{
		HeaderShopifyTopic: integration.ShopifyTopicProductsCreate,
	})

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	receiver.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestWebhookHandler_UnknownPlatform(t *testing.T) {
	receiver := new(MockWebhookReceiver)

	w := postWebhook(setupWebhookRouter(receiver, 0), "/webhooks/etsy", `{}`, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	receiver.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestNewWebhookHandler_DefaultLimit(t *testing.T) {
	h := NewWebhookHandler(new(MockWebhookReceiver), -1)
	assert.Equal(t, DefaultWebhookBodyLimit, h.bodyLimit)
}
