package ecommerce

import (
	"errors"
	"strings"
)

const (
	// DefaultShopifyAPIVersion is the Admin REST API version used when none is configured
	DefaultShopifyAPIVersion = "2024-10"
	// shopifyMaxPageSize is the largest limit Shopify accepts on list endpoints
	shopifyMaxPageSize = 250
	defaultPageSize    = 50
)

// ErrShopifyConfigInvalidVersion indicates a malformed API version
var ErrShopifyConfigInvalidVersion = errors.New("shopify: api version must look like YYYY-MM")

// ShopifyConfig holds process-wide settings for the Shopify adapter.
// Per-merchant credentials are passed on every call.
type ShopifyConfig struct {
	// APIVersion is the Admin API version segment, e.g. 2024-10
	APIVersion string
	// PageSize is the limit used for list endpoints
	PageSize int
	// BaseURLOverride replaces https://{shop}/admin/api/{version}; used by tests and egress proxies
	BaseURLOverride string
	// Retry controls timeouts and retries
	Retry RetryPolicy
}

// NewShopifyConfig creates a Shopify configuration with defaults
func NewShopifyConfig() *ShopifyConfig {
	return &ShopifyConfig{
		APIVersion: DefaultShopifyAPIVersion,
		PageSize:   defaultPageSize,
		Retry:      DefaultRetryPolicy(),
	}
}

// Validate validates the configuration and fills in defaults
func (c *ShopifyConfig) Validate() error {
	if c.APIVersion == "" {
		c.APIVersion = DefaultShopifyAPIVersion
	}
	if len(c.APIVersion) != 7 || c.APIVersion[4] != '-' {
		return ErrShopifyConfigInvalidVersion
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.PageSize > shopifyMaxPageSize {
		c.PageSize = shopifyMaxPageSize
	}
	c.BaseURLOverride = strings.TrimRight(c.BaseURLOverride, "/")
	c.Retry.applyDefaults()
	return nil
}
