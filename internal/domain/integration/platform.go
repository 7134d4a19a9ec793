package integration

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// PlatformType identifies a storefront platform
// ---------------------------------------------------------------------------

// PlatformType is the tag used to pick the credential shape and client adapter
type PlatformType string

const (
	// PlatformShopify represents a Shopify store
	PlatformShopify PlatformType = "SHOPIFY"
	// PlatformWooCommerce represents a WooCommerce (WordPress) site
	PlatformWooCommerce PlatformType = "WOOCOMMERCE"
)

// IsValid returns true if the platform type is supported
func (p PlatformType) IsValid() bool {
	switch p {
	case PlatformShopify, PlatformWooCommerce:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformType
func (p PlatformType) String() string {
	return string(p)
}

// DisplayName returns a human-readable name for the platform
func (p PlatformType) DisplayName() string {
	switch p {
	case PlatformShopify:
		return "Shopify"
	case PlatformWooCommerce:
		return "WooCommerce"
	default:
		return string(p)
	}
}

// ParsePlatformType accepts the canonical tag or a lowercase path segment
// such as "shopify" or "woocommerce"
func ParsePlatformType(s string) (PlatformType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shopify":
		return PlatformShopify, nil
	case "woocommerce", "woo":
		return PlatformWooCommerce, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
}

// ---------------------------------------------------------------------------
// ConnectionStatus
// ---------------------------------------------------------------------------

// ConnectionStatus represents whether a connection may be used
type ConnectionStatus string

const (
	// ConnectionStatusActive indicates the connection is usable
	ConnectionStatusActive ConnectionStatus = "ACTIVE"
	// ConnectionStatusDisconnected indicates the merchant or platform revoked access
	ConnectionStatusDisconnected ConnectionStatus = "DISCONNECTED"
)

// IsValid returns true if the status is valid
func (s ConnectionStatus) IsValid() bool {
	return s == ConnectionStatusActive || s == ConnectionStatusDisconnected
}

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	return string(s)
}
