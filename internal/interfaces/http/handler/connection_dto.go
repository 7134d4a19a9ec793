package handler

import (
	"time"

	"github.com/marketplace/backend/internal/domain/integration"
)

// SaveConnectionRequest carries the credentials of either platform; the
// platform path segment decides which fields apply
// @Description Platform credentials
type SaveConnectionRequest struct {
	// MerchantID defaults to the token's merchant; operator tokens may name another
	MerchantID string `json:"merchant_id,omitempty" binding:"omitempty,max=64" example:"merchant-42"`

	// Shopify
	ShopDomain  string `json:"shop_domain,omitempty" example:"demo.myshopify.com"`
	APIKey      string `json:"api_key,omitempty"`
	APISecret   string `json:"api_secret,omitempty"`
	AccessToken string `json:"access_token,omitempty"`

	// WooCommerce
	StoreURL       string `json:"store_url,omitempty" example:"https://shop.example.com"`
	ConsumerKey    string `json:"consumer_key,omitempty"`
	ConsumerSecret string `json:"consumer_secret,omitempty"`
	Version        string `json:"version,omitempty" example:"wc/v3"`
	WebhookSecret  string `json:"webhook_secret,omitempty"`
}

// Credentials builds the platform credential value. Shape validation is
// left to the credential store so every entry point reports the same fields.
func (r *SaveConnectionRequest) Credentials(platform integration.PlatformType) integration.PlatformCredentials {
	switch platform {
	case integration.PlatformShopify:
		return &integration.ShopifyCredentials{
			ShopDomain:  r.ShopDomain,
			APIKey:      r.APIKey,
			APISecret:   r.APISecret,
			AccessToken: r.AccessToken,
		}
	case integration.PlatformWooCommerce:
		return &integration.WooCommerceCredentials{
			StoreURL:           r.StoreURL,
			ConsumerKey:        r.ConsumerKey,
			ConsumerSecret:     r.ConsumerSecret,
			Version:            r.Version,
			WebhookSecretValue: r.WebhookSecret,
		}
	default:
		return nil
	}
}

// ConnectionResponse is a connection with its secrets masked
// @Description Connection summary
type ConnectionResponse struct {
	ID          string            `json:"id" example:"2b1c1e0a-9f7c-4a55-8d6e-3c7a1f0b2d4e"`
	MerchantID  string            `json:"merchant_id" example:"merchant-42"`
	Platform    string            `json:"platform" example:"SHOPIFY"`
	Status      string            `json:"status" example:"ACTIVE"`
	Identity    string            `json:"identity" example:"demo.myshopify.com"`
	Credentials map[string]string `json:"credentials"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ToConnectionResponse converts a connection, redacting every secret
func ToConnectionResponse(conn *integration.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:          conn.ID.String(),
		MerchantID:  conn.MerchantID,
		Platform:    conn.Platform.String(),
		Status:      conn.Status.String(),
		Identity:    conn.Identity(),
		Credentials: redactedCredentials(conn.Credentials),
		CreatedAt:   conn.CreatedAt,
		UpdatedAt:   conn.UpdatedAt,
	}
}

func redactedCredentials(creds integration.PlatformCredentials) map[string]string {
	switch c := creds.(type) {
	case *integration.ShopifyCredentials:
		return map[string]string{
			"shop_domain":  c.ShopDomain,
			"api_key":      integration.Redact(c.APIKey),
			"api_secret":   integration.Redact(c.APISecret),
			"access_token": integration.Redact(c.AccessToken),
		}
	case *integration.WooCommerceCredentials:
		out := map[string]string{
			"store_url":       c.StoreURL,
			"consumer_key":    integration.Redact(c.ConsumerKey),
			"consumer_secret": integration.Redact(c.ConsumerSecret),
			"version":         c.APIVersion(),
		}
		if c.WebhookSecretValue != "" {
			out["webhook_secret"] = integration.Redact(c.WebhookSecretValue)
		}
		return out
	default:
		return map[string]string{}
	}
}

// PushProductRequest describes a product to create (no id) or update
// @Description Product to push to the platform
type PushProductRequest struct {
	ID          string   `json:"id,omitempty" example:"632910392"`
	Name        string   `json:"name" binding:"required,max=255" example:"Linen shirt"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price" binding:"required,decimal" example:"49.90"`
	Currency    string   `json:"currency,omitempty" binding:"omitempty,len=3" example:"EUR"`
	SKU         string   `json:"sku,omitempty" example:"LIN-001"`
	Quantity    int64    `json:"quantity" binding:"gte=0" example:"12"`
	Images      []string `json:"images,omitempty" binding:"omitempty,dive,url"`
	Categories  []string `json:"categories,omitempty"`
}

// ToPlatformProduct converts the request; price was validated as a decimal
func (r *PushProductRequest) ToPlatformProduct(platform integration.PlatformType) (*integration.PlatformProduct, error) {
	price, err := integration.ParseMoney(r.Price, r.Currency)
	if err != nil {
		return nil, err
	}
	return &integration.PlatformProduct{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       price,
		SKU:         r.SKU,
		Quantity:    r.Quantity,
		Images:      r.Images,
		Categories:  r.Categories,
		Platform:    platform,
	}, nil
}

// ProductResponse is a product as the platform stored it
// @Description Product as reported by the platform
type ProductResponse struct {
	ID          string   `json:"id" example:"632910392"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price" example:"49.90"`
	Currency    string   `json:"currency,omitempty"`
	SKU         string   `json:"sku,omitempty"`
	Quantity    int64    `json:"quantity"`
	Images      []string `json:"images,omitempty"`
	Platform    string   `json:"platform"`
}

// ToProductResponse converts a platform product
func ToProductResponse(p *integration.PlatformProduct) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Currency:    p.Price.Currency,
		SKU:         p.SKU,
		Quantity:    p.Quantity,
		Images:      p.Images,
		Platform:    p.Platform.String(),
	}
}
