package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultWooCommerceVersion is the REST namespace used when none is configured
const DefaultWooCommerceVersion = "wc/v3"

// PlatformCredentials is the per-platform credential shape.
// Implementations must never expose secrets through String or GoString.
type PlatformCredentials interface {
	Platform() PlatformType
	// Validate checks the shape only; it never calls the platform
	Validate() error
	// Identity is the normalized shop domain or store URL used to route webhooks
	Identity() string
	// WebhookSecret is the key platform webhooks are signed with
	WebhookSecret() string
	fmt.Stringer
}

var credentialValidator = newCredentialValidator()

func newCredentialValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateShape runs struct tag validation and converts failures into an
// InvalidCredentialsError listing field names only
func validateShape(platform PlatformType, creds any) error {
	err := credentialValidator.Struct(creds)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &InvalidCredentialsError{Platform: platform, Reason: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &InvalidCredentialsError{Platform: platform, Fields: fields}
}

// Redact masks a secret for display. Short secrets are fully masked.
func Redact(secret string) string {
	if len(secret) < 8 {
		return "****"
	}
	return secret[:4] + "****"
}

// ---------------------------------------------------------------------------
// Shopify
// ---------------------------------------------------------------------------

// ShopifyCredentials authorize calls against a single Shopify store
type ShopifyCredentials struct {
	ShopDomain  string `json:"shop_domain" validate:"required,hostname"`
	APIKey      string `json:"api_key" validate:"required"`
	APISecret   string `json:"api_secret" validate:"required"`
	AccessToken string `json:"access_token" validate:"required"`
}

var _ PlatformCredentials = (*ShopifyCredentials)(nil)

// Platform returns PlatformShopify
func (c *ShopifyCredentials) Platform() PlatformType { return PlatformShopify }

// Validate checks required fields and the shop domain format
func (c *ShopifyCredentials) Validate() error {
	return validateShape(PlatformShopify, c)
}

// Identity returns the lowercase shop domain
func (c *ShopifyCredentials) Identity() string {
	return NormalizeShopDomain(c.ShopDomain)
}

// WebhookSecret returns the app secret Shopify signs webhooks with
func (c *ShopifyCredentials) WebhookSecret() string { return c.APISecret }

func (c *ShopifyCredentials) String() string {
	return fmt.Sprintf("ShopifyCredentials{shop_domain=%s api_key=%s api_secret=%s access_token=%s}",
		c.ShopDomain, Redact(c.APIKey), Redact(c.APISecret), Redact(c.AccessToken))
}

// GoString keeps %#v redacted too
func (c *ShopifyCredentials) GoString() string { return c.String() }

// ---------------------------------------------------------------------------
// WooCommerce
// ---------------------------------------------------------------------------

// WooCommerceCredentials authorize calls against a WooCommerce REST API
type WooCommerceCredentials struct {
	StoreURL       string `json:"store_url" validate:"required,http_url"`
	ConsumerKey    string `json:"consumer_key" validate:"required"`
	ConsumerSecret string `json:"consumer_secret" validate:"required"`
	Version        string `json:"version,omitempty"`
	// WebhookSecretValue is the per-webhook secret configured in WooCommerce.
	// Empty means webhooks are signed with the consumer secret.
	WebhookSecretValue string `json:"webhook_secret,omitempty"`
}

var _ PlatformCredentials = (*WooCommerceCredentials)(nil)

// Platform returns PlatformWooCommerce
func (c *WooCommerceCredentials) Platform() PlatformType { return PlatformWooCommerce }

// Validate checks required fields and the store URL format
func (c *WooCommerceCredentials) Validate() error {
	return validateShape(PlatformWooCommerce, c)
}

// Identity returns the store URL without scheme or trailing slash
func (c *WooCommerceCredentials) Identity() string {
	return NormalizeStoreIdentity(c.StoreURL)
}

// WebhookSecret returns the webhook secret, falling back to the consumer secret
func (c *WooCommerceCredentials) WebhookSecret() string {
	if c.WebhookSecretValue != "" {
		return c.WebhookSecretValue
	}
	return c.ConsumerSecret
}

// APIVersion returns the REST namespace, defaulting to wc/v3
func (c *WooCommerceCredentials) APIVersion() string {
	v := strings.Trim(strings.TrimSpace(c.Version), "/")
	if v == "" {
		return DefaultWooCommerceVersion
	}
	return v
}

func (c *WooCommerceCredentials) String() string {
	secret := ""
	if c.WebhookSecretValue != "" {
		secret = " webhook_secret=" + Redact(c.WebhookSecretValue)
	}
	return fmt.Sprintf("WooCommerceCredentials{store_url=%s consumer_key=%s consumer_secret=%s version=%s%s}",
		c.StoreURL, Redact(c.ConsumerKey), Redact(c.ConsumerSecret), c.APIVersion(), secret)
}

// GoString keeps %#v redacted too
func (c *WooCommerceCredentials) GoString() string { return c.String() }

// ---------------------------------------------------------------------------
// Identity normalization
// ---------------------------------------------------------------------------

// NormalizeShopDomain lowercases a shop domain and strips any scheme or path
func NormalizeShopDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}

// NormalizeStoreIdentity reduces a store URL to host plus path, lowercase,
// with no scheme and no trailing slash
func NormalizeStoreIdentity(raw string) string {
	s := strings.TrimSpace(raw)
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		s = u.Host + u.Path
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	}
	return strings.TrimRight(strings.ToLower(s), "/")
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// DecodeCredentials builds the platform-specific credential shape from JSON
func DecodeCredentials(platform PlatformType, data []byte) (PlatformCredentials, error) {
	var creds PlatformCredentials
	switch platform {
	case PlatformShopify:
		creds = &ShopifyCredentials{}
	case PlatformWooCommerce:
		creds = &WooCommerceCredentials{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
	}
	if err := json.Unmarshal(data, creds); err != nil {
		return nil, &InvalidCredentialsError{Platform: platform, Reason: "malformed credential document"}
	}
	return creds, nil
}
