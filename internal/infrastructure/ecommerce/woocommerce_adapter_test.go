package ecommerce

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketplace/backend/internal/domain/integration"
)

const wooProductJSON = `{
	"id": 794,
	"name": "Premium Quality",
	"description": "<p>Pellentesque habitant</p>",
	"sku": "PQ-1",
	"price": "21.99",
	"regular_price": "24.99",
	"manage_stock": true,
	"stock_quantity": 7,
	"images": [{"id": 792, "src": "https://example.com/T_2_front.jpg"}],
	"categories": [{"id": 9, "name": "Clothing"}, {"id": 14, "name": "T-shirts"}],
	"variations": [801, 802]
}`

func wooTestCredentials(storeURL string) *integration.WooCommerceCredentials {
	return &integration.WooCommerceCredentials{
		StoreURL:       storeURL,
		ConsumerKey:    "ck_test_key_value",
		ConsumerSecret: "cs_test_secret_value",
	}
}

func newTestWooAdapter(t *testing.T, pageSize int) *WooCommerceAdapter {
	t.Helper()
	cfg := NewWooCommerceConfig()
	cfg.PageSize = pageSize
	cfg.Retry = fastPolicy()
	adapter, err := NewWooCommerceAdapter(cfg)
	require.NoError(t, err)
	return adapter
}

func TestWooCommerceAdapter_Authenticate(t *testing.T) {
	var status int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shop/wp-json/wc/v3/system_status", r.URL.Path)
		assert.Equal(t, "ck_test_key_value", r.URL.Query().Get("consumer_key"))
		assert.Equal(t, "cs_test_secret_value", r.URL.Query().Get("consumer_secret"))
		w.WriteHeader(status)
		if status == http.StatusUnauthorized {
			_, _ = w.Write([]byte(`{"code":"woocommerce_rest_cannot_view","message":"Sorry, you cannot list resources."}`))
		} else {
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	adapter := newTestWooAdapter(t, 10)
	creds := wooTestCredentials(server.URL + "/shop/")

	status = http.StatusOK
	ok, err := adapter.Authenticate(context.Background(), creds)
	require.NoError(t, err)
	assert.True(t, ok)

	status = http.StatusUnauthorized
	ok, err = adapter.Authenticate(context.Background(), creds)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWooCommerceAdapter_FetchProducts_Pagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		w.Header().Set("X-WP-TotalPages", "2")
		w.Header().Set("X-WP-Total", "3")
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`[` + wooProductJSON + `,{"id":795,"name":"Second","price":"1"}]`))
		case "2":
			_, _ = w.Write([]byte(`[{"id":796,"name":"Third","price":""}]`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	adapter := newTestWooAdapter(t, 2)
	creds := wooTestCredentials(server.URL)

	page, err := adapter.FetchProducts(context.Background(), creds, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2", page.NextCursor)

	p := page.Items[0]
	assert.Equal(t, "794", p.ID)
	assert.Equal(t, "PQ-1", p.SKU)
	assert.Equal(t, int64(2199), p.Price.Amount)
	assert.Equal(t, int64(7), p.Quantity)
	assert.Equal(t, []string{"Clothing", "T-shirts"}, p.Categories)
	assert.Equal(t, []string{"https://example.com/T_2_front.jpg"}, p.Images)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "801", p.Variants[0].ID)
	assert.Equal(t, integration.PlatformWooCommerce, p.Platform)

	page, err = adapter.FetchProducts(context.Background(), creds, page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(0), page.Items[0].Price.Amount)
	assert.False(t, page.HasMore())

	_, err = adapter.FetchProducts(context.Background(), creds, "zero")
	assert.Error(t, err)
}

func TestWooCommerceAdapter_FetchProducts_UndecodableItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WP-TotalPages", "2")
		_, _ = w.Write([]byte(`[{"id":1,"price":"10.00"},{"id":2,"price":"12,50"},{"id":3,"price":"1e30"}]`))
	}))
	defer server.Close()

	page, err := newTestWooAdapter(t, 3).FetchProducts(context.Background(), wooTestCredentials(server.URL), "")
	require.NoError(t, err, "a bad item must not fail the page")
	require.Len(t, page.Items, 1)
	assert.Equal(t, "1", page.Items[0].ID)
	assert.Equal(t, "2", page.NextCursor)

	require.Len(t, page.Invalid, 2)
	for i, id := range []string{"2", "3"} {
		bad := page.Invalid[i]
		assert.Equal(t, id, bad.PlatformID)
		assert.Equal(t, integration.PlatformWooCommerce, bad.Platform)
		assert.ErrorIs(t, bad, integration.ErrUndecodableItem)
		assert.ErrorIs(t, bad, integration.ErrInvalidAmount)
		assert.NotErrorIs(t, bad, integration.ErrInvalidPayload, "sync decode failures are not webhook errors")
	}
}

func TestWooCommerceAdapter_FetchOrders_UndecodableItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":10,"total":"5.00"},{"id":11,"total":"five"}]`))
	}))
	defer server.Close()

	page, err := newTestWooAdapter(t, 10).FetchOrders(context.Background(), wooTestCredentials(server.URL), "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Len(t, page.Invalid, 1)
	assert.Equal(t, "11", page.Invalid[0].PlatformID)
	assert.Equal(t, "order", page.Invalid[0].Item)
	assert.NotErrorIs(t, page.Invalid[0], integration.ErrInvalidPayload)
}

func TestNextPageCursor(t *testing.T) {
	withTotal := http.Header{}
	withTotal.Set("X-WP-TotalPages", "3")
	assert.Equal(t, "3", nextPageCursor(withTotal, 2, 10, 10))
	assert.Equal(t, "", nextPageCursor(withTotal, 3, 10, 10))

	assert.Equal(t, "2", nextPageCursor(http.Header{}, 1, 10, 10))
	assert.Equal(t, "", nextPageCursor(http.Header{}, 1, 4, 10))
}

func TestWooCommerceAdapter_CountProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		w.Header().Set("X-WP-Total", "137")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	n, err := newTestWooAdapter(t, 10).CountProducts(context.Background(), wooTestCredentials(server.URL))
	require.NoError(t, err)
	assert.Equal(t, 137, n)
}

func TestWooCommerceAdapter_CountProducts_MissingHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newTestWooAdapter(t, 10).CountProducts(context.Background(), wooTestCredentials(server.URL))
	assert.ErrorIs(t, err, integration.ErrPlatformInvalidResponse)
}

func TestWooCommerceAdapter_WriteOperations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/wp-json/wc/v3/products":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":900,"name":"Mug","regular_price":"12.50","price":"12.50"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/wp-json/wc/v3/products/900":
			_, _ = w.Write([]byte(`{"id":900,"name":"Mug v2","price":"13.00"}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/wp-json/wc/v3/products/900":
			assert.Equal(t, "true", r.URL.Query().Get("force"))
			_, _ = w.Write([]byte(`{"id":900}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"woocommerce_rest_product_invalid_id","message":"Invalid ID."}`))
		}
	}))
	defer server.Close()

	adapter := newTestWooAdapter(t, 10)
	creds := wooTestCredentials(server.URL)

	created, err := adapter.CreateProduct(context.Background(), creds, &integration.PlatformProduct{
		Name:  "Mug",
		Price: integration.Money{Amount: 1250},
	})
	require.NoError(t, err)
	assert.Equal(t, "900", created.ID)
	assert.Equal(t, int64(1250), created.Price.Amount)

	created.Name = "Mug v2"
	updated, err := adapter.UpdateProduct(context.Background(), creds, created)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), updated.Price.Amount)

	require.NoError(t, adapter.DeleteProduct(context.Background(), creds, "900"))

	err = adapter.DeleteProduct(context.Background(), creds, "901")
	var reqErr *integration.PlatformRequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "woocommerce_rest_product_invalid_id: Invalid ID.", reqErr.PlatformMessage)
	assert.NotContains(t, err.Error(), "cs_test_secret_value")

	assert.ErrorIs(t, adapter.DeleteProduct(context.Background(), creds, "-1"), integration.ErrInvalidProduct)
}

func TestWooCommerceAdapter_FetchOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/orders", r.URL.Path)
		_, _ = w.Write([]byte(`[{
			"id": 727, "number": "727", "status": "processing", "currency": "EUR", "total": "29.35",
			"date_created_gmt": "2024-05-02T08:30:00",
			"billing": {"email": "john.doe@example.com"},
			"line_items": [{"product_id": 93, "variation_id": 0, "sku": "", "name": "Woo Single #1", "quantity": 2, "price": 6.5}]
		}]`))
	}))
	defer server.Close()

	page, err := newTestWooAdapter(t, 10).FetchOrders(context.Background(), wooTestCredentials(server.URL), "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.HasMore())

	o := page.Items[0]
	assert.Equal(t, "727", o.ID)
	assert.Equal(t, integration.Money{Amount: 2935, Currency: "EUR"}, o.Total)
	assert.Equal(t, "john.doe@example.com", o.Email)
	assert.Equal(t, 8, o.CreatedAt.Hour())
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, "93", o.LineItems[0].ProductID)
	assert.Equal(t, "", o.LineItems[0].VariantID)
	assert.Equal(t, int64(650), o.LineItems[0].Price.Amount)
}

func TestWooCommerceAdapter_Webhooks(t *testing.T) {
	adapter := newTestWooAdapter(t, 10)
	creds := wooTestCredentials("https://shop.example.com")
	body := []byte(wooProductJSON)

	// Without a dedicated webhook secret the consumer secret signs deliveries
	assert.True(t, adapter.VerifyWebhookSignature(creds, body, SignPayload("cs_test_secret_value", body)))

	creds.WebhookSecretValue = "whsec_dedicated"
	assert.True(t, adapter.VerifyWebhookSignature(creds, body, SignPayload("whsec_dedicated", body)))
	assert.False(t, adapter.VerifyWebhookSignature(creds, body, SignPayload("cs_test_secret_value", body)))
	assert.False(t, adapter.VerifyWebhookSignature(shopifyTestCredentials(), body, SignPayload("whsec_dedicated", body)))

	product, err := adapter.DecodeProductWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "794", product.ID)

	id, err := adapter.DecodeProductDeletion([]byte(`{"id":"794"}`))
	require.NoError(t, err)
	assert.Equal(t, "794", id)

	_, err = adapter.DecodeProductWebhook([]byte(`{"id":1,"price":"abc"}`))
	assert.ErrorIs(t, err, integration.ErrInvalidPayload)
	assert.False(t, strings.Contains(err.Error(), "cs_test"))
}
