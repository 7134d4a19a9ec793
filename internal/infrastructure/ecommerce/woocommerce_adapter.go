package ecommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/marketplace/backend/internal/domain/integration"
)

// WooCommerceAdapter implements integration.PlatformClient for the WooCommerce REST API.
// Requests authenticate with consumer_key/consumer_secret query parameters and
// paginate with page/per_page, reading totals from X-WP-Total and X-WP-TotalPages.
type WooCommerceAdapter struct {
	config *WooCommerceConfig
	req    *requester
}

var _ integration.PlatformClient = (*WooCommerceAdapter)(nil)

// NewWooCommerceAdapter creates a new WooCommerce adapter with the given configuration
func NewWooCommerceAdapter(config *WooCommerceConfig, opts ...AdapterOption) (*WooCommerceAdapter, error) {
	if config == nil {
		config = NewWooCommerceConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &WooCommerceAdapter{
		config: config,
		req:    newRequester(integration.PlatformWooCommerce, config.Retry, extractWooMessage, opts...),
	}, nil
}

// Platform returns PlatformWooCommerce
func (a *WooCommerceAdapter) Platform() integration.PlatformType {
	return integration.PlatformWooCommerce
}

func wooCredentials(creds integration.PlatformCredentials) (*integration.WooCommerceCredentials, error) {
	c, ok := creds.(*integration.WooCommerceCredentials)
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: expected woocommerce credentials", integration.ErrPlatformMismatch)
	}
	return c, nil
}

func (a *WooCommerceAdapter) call(ctx context.Context, c *integration.WooCommerceCredentials, method, path string, query url.Values, body any) (*apiResponse, error) {
	base := strings.TrimRight(strings.TrimSpace(c.StoreURL), "/") + "/wp-json/" + c.APIVersion()
	u, err := url.Parse(base + path)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: invalid store url: %w", err)
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", c.ConsumerKey)
	query.Set("consumer_secret", c.ConsumerSecret)
	u.RawQuery = query.Encode()

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("woocommerce: encode request: %w", err)
		}
	}
	return a.req.do(ctx, apiRequest{Method: method, URL: u, Path: path, Body: payload})
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// Authenticate checks the API keys by reading the system status
func (a *WooCommerceAdapter) Authenticate(ctx context.Context, creds integration.PlatformCredentials) (bool, error) {
	c, err := wooCredentials(creds)
	if err != nil {
		return false, err
	}
	if _, err := a.call(ctx, c, http.MethodGet, "/system_status", nil, nil); err != nil {
		var reqErr *integration.PlatformRequestError
		if errors.As(err, &reqErr) && reqErr.IsAuthFailure() {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// parsePageCursor turns the opaque cursor into a 1-based page number
func parsePageCursor(cursor string) (int, error) {
	if cursor == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("woocommerce: invalid page cursor %q", cursor)
	}
	return page, nil
}

// nextPageCursor returns the cursor for the page after current, or "" at the end
func nextPageCursor(header http.Header, current, itemsOnPage, pageSize int) string {
	if total, err := strconv.Atoi(header.Get("X-WP-TotalPages")); err == nil {
		if current < total {
			return strconv.Itoa(current + 1)
		}
		return ""
	}
	// Without the header a full page means there may be more
	if itemsOnPage >= pageSize {
		return strconv.Itoa(current + 1)
	}
	return ""
}

// FetchProducts returns one page of products; the cursor is the page number
func (a *WooCommerceAdapter) FetchProducts(ctx context.Context, creds integration.PlatformCredentials, cursor string) (*integration.ProductPage, error) {
	c, err := wooCredentials(creds)
	if err != nil {
		return nil, err
	}
	page, err := parsePageCursor(cursor)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(a.config.PageSize))
	query.Set("page", strconv.Itoa(page))

	resp, err := a.call(ctx, c, http.MethodGet, "/products", query, nil)
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(resp.Body, &raws); err != nil {
		return nil, fmt.Errorf("%w: failed to parse products: %v", integration.ErrPlatformInvalidResponse, err)
	}
	result := &integration.ProductPage{
		Items:      make([]integration.PlatformProduct, 0, len(raws)),
		NextCursor: nextPageCursor(resp.Header, page, len(raws), a.config.PageSize),
	}
	for _, raw := range raws {
		product, err := decodeWooProduct(raw)
		if err != nil {
			var decodeErr *integration.ItemDecodeError
			if !errors.As(err, &decodeErr) {
				return nil, err
			}
			result.Invalid = append(result.Invalid, decodeErr)
			continue
		}
		result.Items = append(result.Items, *product)
	}
	return result, nil
}

// CountProducts reads the X-WP-Total header from a one-item listing
func (a *WooCommerceAdapter) CountProducts(ctx context.Context, creds integration.PlatformCredentials) (int, error) {
	c, err := wooCredentials(creds)
	if err != nil {
		return 0, err
	}
	query := url.Values{}
	query.Set("per_page", "1")
	resp, err := a.call(ctx, c, http.MethodGet, "/products", query, nil)
	if err != nil {
		return 0, err
	}
	total, err := strconv.Atoi(resp.Header.Get("X-WP-Total"))
	if err != nil {
		return 0, fmt.Errorf("%w: missing X-WP-Total header", integration.ErrPlatformInvalidResponse)
	}
	return total, nil
}

// CreateProduct creates a simple product
func (a *WooCommerceAdapter) CreateProduct(ctx context.Context, creds integration.PlatformCredentials, product *integration.PlatformProduct) (*integration.PlatformProduct, error) {
	c, err := wooCredentials(creds)
	if err != nil {
		return nil, err
	}
	resp, err := a.call(ctx, c, http.MethodPost, "/products", nil, toWooProduct(product))
	if err != nil {
		return nil, err
	}
	return decodeWooProductResponse(resp.Body)
}

// UpdateProduct updates an existing product
func (a *WooCommerceAdapter) UpdateProduct(ctx context.Context, creds integration.PlatformCredentials, product *integration.PlatformProduct) (*integration.PlatformProduct, error) {
	c, err := wooCredentials(creds)
	if err != nil {
		return nil, err
	}
	if err := validateWooID(product.ID); err != nil {
		return nil, err
	}
	resp, err := a.call(ctx, c, http.MethodPut, "/products/"+product.ID, nil, toWooProduct(product))
	if err != nil {
		return nil, err
	}
	return decodeWooProductResponse(resp.Body)
}

// DeleteProduct permanently deletes a product (force=true skips the trash)
func (a *WooCommerceAdapter) DeleteProduct(ctx context.Context, creds integration.PlatformCredentials, productID string) error {
	c, err := wooCredentials(creds)
	if err != nil {
		return err
	}
	if err := validateWooID(productID); err != nil {
		return err
	}
	query := url.Values{}
	query.Set("force", "true")
	_, err = a.call(ctx, c, http.MethodDelete, "/products/"+productID, query, nil)
	return err
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// FetchOrders returns one page of orders; the cursor is the page number
func (a *WooCommerceAdapter) FetchOrders(ctx context.Context, creds integration.PlatformCredentials, cursor string) (*integration.OrderPage, error) {
	c, err := wooCredentials(creds)
	if err != nil {
		return nil, err
	}
	page, err := parsePageCursor(cursor)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(a.config.PageSize))
	query.Set("page", strconv.Itoa(page))

	resp, err := a.call(ctx, c, http.MethodGet, "/orders", query, nil)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(resp.Body, &raws); err != nil {
		return nil, fmt.Errorf("%w: failed to parse orders: %v", integration.ErrPlatformInvalidResponse, err)
	}
	result := &integration.OrderPage{
		Items:      make([]integration.PlatformOrder, 0, len(raws)),
		NextCursor: nextPageCursor(resp.Header, page, len(raws), a.config.PageSize),
	}
	for _, raw := range raws {
		order, err := decodeWooOrder(raw)
		if err != nil {
			var decodeErr *integration.ItemDecodeError
			if !errors.As(err, &decodeErr) {
				return nil, err
			}
			result.Invalid = append(result.Invalid, decodeErr)
			continue
		}
		result.Items = append(result.Items, *order)
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Webhooks
// ---------------------------------------------------------------------------

// VerifyWebhookSignature checks X-WC-Webhook-Signature against the webhook secret
func (a *WooCommerceAdapter) VerifyWebhookSignature(creds integration.PlatformCredentials, payload []byte, signature string) bool {
	c, err := wooCredentials(creds)
	if err != nil {
		return false
	}
	return verifyPayloadSignature(c.WebhookSecret(), payload, signature)
}

// DecodeProductWebhook decodes a product.created or product.updated body
func (a *WooCommerceAdapter) DecodeProductWebhook(payload []byte) (*integration.PlatformProduct, error) {
	product, err := decodeWooProduct(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integration.ErrInvalidPayload, err)
	}
	return product, nil
}

// DecodeProductDeletion decodes a product.deleted body ({"id": N})
func (a *WooCommerceAdapter) DecodeProductDeletion(payload []byte) (string, error) {
	return decodeDeletedID(payload)
}

// DecodeOrderWebhook decodes an order.created or order.updated body
func (a *WooCommerceAdapter) DecodeOrderWebhook(payload []byte) (*integration.PlatformOrder, error) {
	order, err := decodeWooOrder(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integration.ErrInvalidPayload, err)
	}
	return order, nil
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func validateWooID(id string) error {
	if n, err := strconv.ParseInt(id, 10, 64); err != nil || n <= 0 {
		return fmt.Errorf("%w: woocommerce product id %q", integration.ErrInvalidProduct, id)
	}
	return nil
}

func decodeWooProduct(raw []byte) (*integration.PlatformProduct, error) {
	var p wooProduct
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, wooDecodeError("product", rawItemID(raw), err)
	}

	priceStr := p.Price
	if priceStr == "" {
		priceStr = p.RegularPrice
	}
	price, err := integration.ParseMoney(priceStr, "")
	if err != nil {
		return nil, wooDecodeError("product", wooID(p.ID), err)
	}

	product := &integration.PlatformProduct{
		ID:           wooID(p.ID),
		Name:         p.Name,
		Description:  p.Description,
		Price:        price,
		SKU:          p.SKU,
		Platform:     integration.PlatformWooCommerce,
		PlatformData: append(json.RawMessage(nil), raw...),
	}
	if product.Description == "" {
		product.Description = p.ShortDescription
	}
	if p.StockQuantity != nil {
		product.Quantity = *p.StockQuantity
	}
	for _, img := range p.Images {
		if img.Src != "" {
			product.Images = append(product.Images, img.Src)
		}
	}
	for _, cat := range p.Categories {
		if cat.Name != "" {
			product.Categories = append(product.Categories, cat.Name)
		}
	}
	// Variations are listed by ID only; their details live on a separate endpoint
	for _, v := range p.Variations {
		if id := wooID(v); id != "" {
			product.Variants = append(product.Variants, integration.ProductVariant{ID: id})
		}
	}
	return product, nil
}

func decodeWooProductResponse(body []byte) (*integration.PlatformProduct, error) {
	product, err := decodeWooProduct(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integration.ErrPlatformInvalidResponse, err)
	}
	return product, nil
}

func wooDecodeError(item, id string, err error) error {
	return &integration.ItemDecodeError{Platform: integration.PlatformWooCommerce, Item: item, PlatformID: id, Err: err}
}

func toWooProduct(p *integration.PlatformProduct) wooProductRequest {
	req := wooProductRequest{
		Name:          p.Name,
		Description:   p.Description,
		SKU:           p.SKU,
		RegularPrice:  p.Price.String(),
		ManageStock:   true,
		StockQuantity: p.Quantity,
	}
	for _, src := range p.Images {
		req.Images = append(req.Images, wooImage{Src: src})
	}
	return req
}

func decodeWooOrder(raw []byte) (*integration.PlatformOrder, error) {
	var o wooOrder
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, wooDecodeError("order", rawItemID(raw), err)
	}
	total, err := integration.ParseMoney(o.Total, o.Currency)
	if err != nil {
		return nil, wooDecodeError("order", wooID(o.ID), err)
	}
	order := &integration.PlatformOrder{
		ID:              wooID(o.ID),
		Number:          o.Number,
		Email:           o.Billing.Email,
		Total:           total,
		FinancialStatus: o.Status,
		Platform:        integration.PlatformWooCommerce,
		PlatformData:    append(json.RawMessage(nil), raw...),
		CreatedAt:       time.Now().UTC(),
	}
	if t, err := time.Parse(wooDateLayout, o.DateCreatedGMT); err == nil {
		order.CreatedAt = t.UTC()
	}
	for _, li := range o.LineItems {
		price, err := integration.ParseMoney(li.Price.String(), o.Currency)
		if err != nil {
			return nil, wooDecodeError("order", wooID(o.ID), fmt.Errorf("line %q: %w", li.Name, err))
		}
		order.LineItems = append(order.LineItems, integration.OrderLineItem{
			ProductID: wooID(li.ProductID),
			VariantID: wooID(li.VariationID),
			SKU:       li.SKU,
			Name:      li.Name,
			Quantity:  li.Quantity,
			Price:     price,
		})
	}
	return order, nil
}
