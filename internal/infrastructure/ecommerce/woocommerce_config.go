package ecommerce

// wooMaxPageSize is the largest per_page WooCommerce accepts
const wooMaxPageSize = 100

// WooCommerceConfig holds process-wide settings for the WooCommerce adapter.
// Store URL, keys and API version come from each merchant's credentials.
type WooCommerceConfig struct {
	// PageSize is the per_page value used for list endpoints
	PageSize int
	// Retry controls timeouts and retries
	Retry RetryPolicy
}

// NewWooCommerceConfig creates a WooCommerce configuration with defaults
func NewWooCommerceConfig() *WooCommerceConfig {
	return &WooCommerceConfig{
		PageSize: defaultPageSize,
		Retry:    DefaultRetryPolicy(),
	}
}

// Validate validates the configuration and fills in defaults
func (c *WooCommerceConfig) Validate() error {
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.PageSize > wooMaxPageSize {
		c.PageSize = wooMaxPageSize
	}
	c.Retry.applyDefaults()
	return nil
}
