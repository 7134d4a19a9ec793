package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformType_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		platform PlatformType
		expected bool
	}{
		{"Shopify valid", PlatformShopify, true},
		{"WooCommerce valid", PlatformWooCommerce, true},
		{"Lowercase invalid", PlatformType("shopify"), false},
		{"Empty invalid", PlatformType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.platform.IsValid())
		})
	}
}

func TestPlatformType_DisplayName(t *testing.T) {
	assert.Equal(t, "Shopify", PlatformShopify.DisplayName())
	assert.Equal(t, "WooCommerce", PlatformWooCommerce.DisplayName())
	assert.Equal(t, "ETSY", PlatformType("ETSY").DisplayName())
}

func TestParsePlatformType(t *testing.T) {
	for _, in := range []string{"shopify", "SHOPIFY", " Shopify "} {
		p, err := ParsePlatformType(in)
		require.NoError(t, err)
		assert.Equal(t, PlatformShopify, p)
	}
	for _, in := range []string{"woocommerce", "WOOCOMMERCE", "woo"} {
		p, err := ParsePlatformType(in)
		require.NoError(t, err)
		assert.Equal(t, PlatformWooCommerce, p)
	}

	_, err := ParsePlatformType("magento")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}
