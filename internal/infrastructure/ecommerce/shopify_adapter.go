package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/marketplace/backend/internal/domain/integration"
)

// ShopifyAdapter implements integration.PlatformClient for the Shopify Admin REST API.
// Wire types come from go-shopify; transport goes through the shared requester
// so retry and rate-limit behaviour is the same for every platform.
type ShopifyAdapter struct {
	config *ShopifyConfig
	req    *requester
}

var _ integration.PlatformClient = (*ShopifyAdapter)(nil)

// NewShopifyAdapter creates a new Shopify adapter with the given configuration
func NewShopifyAdapter(config *ShopifyConfig, opts ...AdapterOption) (*ShopifyAdapter, error) {
	if config == nil {
		config = NewShopifyConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ShopifyAdapter{
		config: config,
		req:    newRequester(integration.PlatformShopify, config.Retry, extractShopifyMessage, opts...),
	}, nil
}

// Platform returns PlatformShopify
func (a *ShopifyAdapter) Platform() integration.PlatformType {
	return integration.PlatformShopify
}

func shopifyCredentials(creds integration.PlatformCredentials) (*integration.ShopifyCredentials, error) {
	c, ok := creds.(*integration.ShopifyCredentials)
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: expected shopify credentials", integration.ErrPlatformMismatch)
	}
	return c, nil
}

func (a *ShopifyAdapter) baseURL(c *integration.ShopifyCredentials) string {
	if a.config.BaseURLOverride != "" {
		return a.config.BaseURLOverride
	}
	return "https://" + c.Identity() + "/admin/api/" + a.config.APIVersion
}

func (a *ShopifyAdapter) call(ctx context.Context, c *integration.ShopifyCredentials, method, path string, query url.Values, body any) (*apiResponse, error) {
	u, err := url.Parse(a.baseURL(c) + path)
	if err != nil {
		return nil, fmt.Errorf("shopify: invalid url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("shopify: encode request: %w", err)
		}
	}

	header := http.Header{}
	header.Set("X-Shopify-Access-Token", c.AccessToken)
	return a.req.do(ctx, apiRequest{Method: method, URL: u, Path: path, Header: header, Body: payload})
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// Authenticate checks the access token by reading the shop resource
func (a *ShopifyAdapter) Authenticate(ctx context.Context, creds integration.PlatformCredentials) (bool, error) {
	c, err := shopifyCredentials(creds)
	if err != nil {
		return false, err
	}
	resp, err := a.call(ctx, c, http.MethodGet, "/shop.json", nil, nil)
	if err != nil {
		var reqErr *integration.PlatformRequestError
		if errors.As(err, &reqErr) && reqErr.IsAuthFailure() {
			return false, nil
		}
		return false, err
	}
	var shop shopifyShopResponse
	if err := json.Unmarshal(resp.Body, &shop); err != nil {
		return false, fmt.Errorf("%w: failed to parse shop: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return shop.Shop.ID != 0, nil
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// FetchProducts returns one page of products using cursor (page_info) pagination
func (a *ShopifyAdapter) FetchProducts(ctx context.Context, creds integration.PlatformCredentials, cursor string) (*integration.ProductPage, error) {
	c, err := shopifyCredentials(creds)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(a.config.PageSize))
	if cursor != "" {
		query.Set("page_info", cursor)
	}

	resp, err := a.call(ctx, c, http.MethodGet, "/products.json", query, nil)
	if err != nil {
		return nil, err
	}

	var envelope shopifyProductsEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to parse products: %v", integration.ErrPlatformInvalidResponse, err)
	}

	page := &integration.ProductPage{
		Items:      make([]integration.PlatformProduct, 0, len(envelope.Products)),
		NextCursor: shopifyNextPageInfo(resp.Header.Get("Link")),
	}
	for _, raw := range envelope.Products {
		product, err := decodeShopifyProduct(raw)
		if err != nil {
			var decodeErr *integration.ItemDecodeError
			if !errors.As(err, &decodeErr) {
				return nil, err
			}
			page.Invalid = append(page.Invalid, decodeErr)
			continue
		}
		page.Items = append(page.Items, *product)
	}
	return page, nil
}

// CountProducts returns the number of products Shopify reports for the store
func (a *ShopifyAdapter) CountProducts(ctx context.Context, creds integration.PlatformCredentials) (int, error) {
	c, err := shopifyCredentials(creds)
	if err != nil {
		return 0, err
	}
	resp, err := a.call(ctx, c, http.MethodGet, "/products/count.json", nil, nil)
	if err != nil {
		return 0, err
	}
	var count shopifyCountResponse
	if err := json.Unmarshal(resp.Body, &count); err != nil {
		return 0, fmt.Errorf("%w: failed to parse count: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return count.Count, nil
}

// CreateProduct creates the product on Shopify and returns it as stored remotely
func (a *ShopifyAdapter) CreateProduct(ctx context.Context, creds integration.PlatformCredentials, product *integration.PlatformProduct) (*integration.PlatformProduct, error) {
	c, err := shopifyCredentials(creds)
	if err != nil {
		return nil, err
	}
	body := goshopify.ProductResource{Product: toShopifyProduct(product)}
	resp, err := a.call(ctx, c, http.MethodPost, "/products.json", nil, body)
	if err != nil {
		return nil, err
	}
	return decodeShopifyProductResource(resp.Body)
}

// UpdateProduct replaces the mutable fields of an existing product
func (a *ShopifyAdapter) UpdateProduct(ctx context.Context, creds integration.PlatformCredentials, product *integration.PlatformProduct) (*integration.PlatformProduct, error) {
	c, err := shopifyCredentials(creds)
	if err != nil {
		return nil, err
	}
	id, err := parseShopifyID(product.ID)
	if err != nil {
		return nil, err
	}
	sp := toShopifyProduct(product)
	sp.Id = id
	resp, err := a.call(ctx, c, http.MethodPut, "/products/"+product.ID+".json", nil, goshopify.ProductResource{Product: sp})
	if err != nil {
		return nil, err
	}
	return decodeShopifyProductResource(resp.Body)
}

// DeleteProduct removes the product from Shopify
func (a *ShopifyAdapter) DeleteProduct(ctx context.Context, creds integration.PlatformCredentials, productID string) error {
	c, err := shopifyCredentials(creds)
	if err != nil {
		return err
	}
	if _, err := parseShopifyID(productID); err != nil {
		return err
	}
	_, err = a.call(ctx, c, http.MethodDelete, "/products/"+productID+".json", nil, nil)
	return err
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// FetchOrders returns one page of orders in any status
func (a *ShopifyAdapter) FetchOrders(ctx context.Context, creds integration.PlatformCredentials, cursor string) (*integration.OrderPage, error) {
	c, err := shopifyCredentials(creds)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(a.config.PageSize))
	if cursor != "" {
		// page_info excludes every filter other than limit
		query.Set("page_info", cursor)
	} else {
		query.Set("status", "any")
	}

	resp, err := a.call(ctx, c, http.MethodGet, "/orders.json", query, nil)
	if err != nil {
		return nil, err
	}

	var envelope shopifyOrdersEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to parse orders: %v", integration.ErrPlatformInvalidResponse, err)
	}
	page := &integration.OrderPage{
		Items:      make([]integration.PlatformOrder, 0, len(envelope.Orders)),
		NextCursor: shopifyNextPageInfo(resp.Header.Get("Link")),
	}
	for _, raw := range envelope.Orders {
		order, err := decodeShopifyOrder(raw)
		if err != nil {
			var decodeErr *integration.ItemDecodeError
			if !errors.As(err, &decodeErr) {
				return nil, err
			}
			page.Invalid = append(page.Invalid, decodeErr)
			continue
		}
		page.Items = append(page.Items, *order)
	}
	return page, nil
}

// ---------------------------------------------------------------------------
// Webhooks
// ---------------------------------------------------------------------------

// VerifyWebhookSignature checks X-Shopify-Hmac-Sha256 against the app secret
func (a *ShopifyAdapter) VerifyWebhookSignature(creds integration.PlatformCredentials, payload []byte, signature string) bool {
	c, err := shopifyCredentials(creds)
	if err != nil {
		return false
	}
	return verifyPayloadSignature(c.WebhookSecret(), payload, signature)
}

// DecodeProductWebhook decodes a products/create or products/update body
func (a *ShopifyAdapter) DecodeProductWebhook(payload []byte) (*integration.PlatformProduct, error) {
	product, err := decodeShopifyProduct(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integration.ErrInvalidPayload, err)
	}
	return product, nil
}

// DecodeProductDeletion decodes a products/delete body, which only carries the ID
func (a *ShopifyAdapter) DecodeProductDeletion(payload []byte) (string, error) {
	return decodeDeletedID(payload)
}

// DecodeOrderWebhook decodes an orders/create or orders/updated body
func (a *ShopifyAdapter) DecodeOrderWebhook(payload []byte) (*integration.PlatformOrder, error) {
	order, err := decodeShopifyOrder(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integration.ErrInvalidPayload, err)
	}
	return order, nil
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func parseShopifyID(id string) (uint64, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: shopify product id %q", integration.ErrInvalidProduct, id)
	}
	return n, nil
}

func decodeShopifyProductResource(body []byte) (*integration.PlatformProduct, error) {
	var envelope struct {
		Product json.RawMessage `json:"product"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Product) == 0 {
		return nil, fmt.Errorf("%w: missing product in response", integration.ErrPlatformInvalidResponse)
	}
	product, err := decodeShopifyProduct(envelope.Product)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integration.ErrPlatformInvalidResponse, err)
	}
	return product, nil
}

func decodeShopifyProduct(raw []byte) (*integration.PlatformProduct, error) {
	var p goshopify.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &integration.ItemDecodeError{
			Platform:   integration.PlatformShopify,
			Item:       "product",
			PlatformID: rawItemID(raw),
			Err:        err,
		}
	}
	product, err := fromShopifyProduct(&p)
	if err != nil {
		return nil, &integration.ItemDecodeError{
			Platform:   integration.PlatformShopify,
			Item:       "product",
			PlatformID: rawItemID(raw),
			Err:        err,
		}
	}
	product.PlatformData = append(json.RawMessage(nil), raw...)
	return product, nil
}

func fromShopifyProduct(p *goshopify.Product) (*integration.PlatformProduct, error) {
	product := &integration.PlatformProduct{
		Name:        p.Title,
		Description: p.BodyHTML,
		Platform:    integration.PlatformShopify,
		Categories:  shopifyCategories(p.ProductType, p.Tags),
	}
	if p.Id != 0 {
		product.ID = strconv.FormatUint(p.Id, 10)
	}
	for _, img := range p.Images {
		if img.Src != "" {
			product.Images = append(product.Images, img.Src)
		}
	}
	for i, v := range p.Variants {
		price, err := shopifyMoney(v.Price)
		if err != nil {
			return nil, fmt.Errorf("variant %d price: %w", v.Id, err)
		}
		variant := integration.ProductVariant{
			Name:     v.Title,
			SKU:      v.Sku,
			Price:    price,
			Quantity: int64(v.InventoryQuantity),
		}
		if v.Id != 0 {
			variant.ID = strconv.FormatUint(v.Id, 10)
		}
		if i == 0 {
			product.SKU = variant.SKU
			product.Price = variant.Price
		}
		product.Quantity += variant.Quantity
		product.Variants = append(product.Variants, variant)
	}
	return product, nil
}

func toShopifyProduct(p *integration.PlatformProduct) *goshopify.Product {
	sp := &goshopify.Product{
		Title:    p.Name,
		BodyHTML: p.Description,
		Tags:     strings.Join(p.Categories, ", "),
	}
	for _, src := range p.Images {
		sp.Images = append(sp.Images, goshopify.Image{Src: src})
	}
	if len(p.Variants) == 0 {
		price := p.Price.Decimal()
		sp.Variants = []goshopify.Variant{{
			Sku:               p.SKU,
			Price:             &price,
			InventoryQuantity: int(p.Quantity),
		}}
		return sp
	}
	for _, v := range p.Variants {
		price := v.Price.Decimal()
		variant := goshopify.Variant{
			Title:             v.Name,
			Sku:               v.SKU,
			Price:             &price,
			InventoryQuantity: int(v.Quantity),
		}
		if id, err := strconv.ParseUint(v.ID, 10, 64); err == nil {
			variant.Id = id
		}
		sp.Variants = append(sp.Variants, variant)
	}
	return sp
}

func shopifyCategories(productType, tags string) []string {
	var out []string
	if t := strings.TrimSpace(productType); t != "" {
		out = append(out, t)
	}
	for _, tag := range strings.Split(tags, ",") {
		if t := strings.TrimSpace(tag); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func shopifyMoney(d *decimal.Decimal) (integration.Money, error) {
	if d == nil {
		return integration.Money{}, nil
	}
	return integration.MoneyFromDecimal(*d, "")
}

func decodeShopifyOrder(raw []byte) (*integration.PlatformOrder, error) {
	orderErr := func(err error) error {
		return &integration.ItemDecodeError{
			Platform:   integration.PlatformShopify,
			Item:       "order",
			PlatformID: rawItemID(raw),
			Err:        err,
		}
	}
	var o goshopify.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, orderErr(err)
	}
	total, err := shopifyMoney(o.TotalPrice)
	if err != nil {
		return nil, orderErr(fmt.Errorf("total: %w", err))
	}
	order := &integration.PlatformOrder{
		Number:          o.Name,
		Email:           o.Email,
		Total:           total,
		FinancialStatus: string(o.FinancialStatus),
		Platform:        integration.PlatformShopify,
		PlatformData:    append(json.RawMessage(nil), raw...),
	}
	order.Total.Currency = strings.ToUpper(o.Currency)
	if o.Id != 0 {
		order.ID = strconv.FormatUint(o.Id, 10)
	}
	if o.CreatedAt != nil {
		order.CreatedAt = o.CreatedAt.UTC()
	} else {
		order.CreatedAt = time.Now().UTC()
	}
	for _, li := range o.LineItems {
		price, err := shopifyMoney(li.Price)
		if err != nil {
			return nil, orderErr(fmt.Errorf("line item %d price: %w", li.Id, err))
		}
		item := integration.OrderLineItem{
			SKU:      li.Sku,
			Name:     li.Name,
			Quantity: int64(li.Quantity),
			Price:    price,
		}
		if li.ProductId != 0 {
			item.ProductID = strconv.FormatUint(li.ProductId, 10)
		}
		if li.VariantId != 0 {
			item.VariantID = strconv.FormatUint(li.VariantId, 10)
		}
		item.Price.Currency = order.Total.Currency
		order.LineItems = append(order.LineItems, item)
	}
	return order, nil
}

// decodeDeletedID reads {"id": ...} where the ID may be a number or a string
func decodeDeletedID(payload []byte) (string, error) {
	body, err := decodeLooseObject(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrInvalidPayload, err)
	}
	id := looseID(body["id"])
	if id == "" {
		return "", fmt.Errorf("%w: deletion payload has no id", integration.ErrInvalidPayload)
	}
	return id, nil
}

// rawItemID recovers the ID of a listing entry that failed to decode, or ""
func rawItemID(raw []byte) string {
	body, err := decodeLooseObject(raw)
	if err != nil {
		return ""
	}
	return looseID(body["id"])
}

func decodeLooseObject(payload []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func looseID(v any) string {
	id, err := cast.ToStringE(v)
	if err != nil || id == "0" {
		return ""
	}
	return id
}
