package integration

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validShopify() *ShopifyCredentials {
	return &ShopifyCredentials{
		ShopDomain:  "acme.myshopify.com",
		APIKey:      "key_1234567890",
		APISecret:   "shpss_secretvalue",
		AccessToken: "shpat_tokenvalue",
	}
}

func validWoo() *WooCommerceCredentials {
	return &WooCommerceCredentials{
		StoreURL:       "https://shop.example.com/",
		ConsumerKey:    "ck_1234567890",
		ConsumerSecret: "cs_1234567890",
	}
}

func TestShopifyCredentials_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validShopify().Validate())
	})

	t.Run("missing fields are named", func(t *testing.T) {
		creds := validShopify()
		creds.AccessToken = ""
		creds.APISecret = ""

		err := creds.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		var invalid *InvalidCredentialsError
		require.True(t, errors.As(err, &invalid))
		assert.ElementsMatch(t, []string{"access_token", "api_secret"}, invalid.Fields)
		assert.Equal(t, PlatformShopify, invalid.Platform)
	})

	t.Run("malformed domain", func(t *testing.T) {
		creds := validShopify()
		creds.ShopDomain = "not a host"
		err := creds.Validate()
		var invalid *InvalidCredentialsError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, []string{"shop_domain"}, invalid.Fields)
	})

	t.Run("error never carries secret values", func(t *testing.T) {
		creds := validShopify()
		creds.ShopDomain = ""
		err := creds.Validate()
		require.Error(t, err)
		assert.NotContains(t, err.Error(), creds.APISecret)
		assert.NotContains(t, err.Error(), creds.AccessToken)
	})
}

func TestWooCommerceCredentials_Validate(t *testing.T) {
	assert.NoError(t, validWoo().Validate())

	creds := validWoo()
	creds.StoreURL = "ftp://shop.example.com"
	err := creds.Validate()
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	creds = validWoo()
	creds.ConsumerKey = ""
	var invalid *InvalidCredentialsError
	require.True(t, errors.As(creds.Validate(), &invalid))
	assert.Equal(t, []string{"consumer_key"}, invalid.Fields)
}

func TestWooCommerceCredentials_Defaults(t *testing.T) {
	creds := validWoo()
	assert.Equal(t, "wc/v3", creds.APIVersion())
	assert.Equal(t, creds.ConsumerSecret, creds.WebhookSecret())
	assert.Equal(t, "shop.example.com", creds.Identity())

	creds.Version = "/wc/v2/"
	creds.WebhookSecretValue = "whsec_custom"
	assert.Equal(t, "wc/v2", creds.APIVersion())
	assert.Equal(t, "whsec_custom", creds.WebhookSecret())
}

func TestCredentials_StringIsRedacted(t *testing.T) {
	shop := validShopify()
	for _, out := range []string{shop.String(), fmt.Sprintf("%v", shop), fmt.Sprintf("%#v", shop), fmt.Sprintf("%s", shop)} {
		assert.NotContains(t, out, shop.APISecret)
		assert.NotContains(t, out, shop.AccessToken)
		assert.NotContains(t, out, shop.APIKey)
		assert.Contains(t, out, "acme.myshopify.com")
	}

	woo := validWoo()
	woo.WebhookSecretValue = "whsec_custom_value"
	out := woo.String()
	assert.NotContains(t, out, woo.ConsumerKey)
	assert.NotContains(t, out, woo.ConsumerSecret)
	assert.NotContains(t, out, woo.WebhookSecretValue)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "****", Redact(""))
	assert.Equal(t, "****", Redact("short"))
	assert.Equal(t, "shpa****", Redact("shpat_abcdef"))
}

func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"https://Shop.Example.com/", "shop.example.com"},
		{"http://shop.example.com/store/", "shop.example.com/store"},
		{"shop.example.com", "shop.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeStoreIdentity(tt.in))
		})
	}

	assert.Equal(t, "acme.myshopify.com", NormalizeShopDomain(" https://ACME.myshopify.com/admin "))
}

func TestDecodeCredentials(t *testing.T) {
	creds, err := DecodeCredentials(PlatformShopify, []byte(`{"shop_domain":"acme.myshopify.com","api_key":"k","api_secret":"s","access_token":"t"}`))
	require.NoError(t, err)
	shop, ok := creds.(*ShopifyCredentials)
	require.True(t, ok)
	assert.Equal(t, "t", shop.AccessToken)

	creds, err = DecodeCredentials(PlatformWooCommerce, []byte(`{"store_url":"https://s.example.com","consumer_key":"k","consumer_secret":"s"}`))
	require.NoError(t, err)
	assert.Equal(t, PlatformWooCommerce, creds.Platform())

	_, err = DecodeCredentials(PlatformShopify, []byte(`{`))
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = DecodeCredentials(PlatformType("ETSY"), []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestNewConnection(t *testing.T) {
	conn, err := NewConnection("merchant-1", validShopify())
	require.NoError(t, err)
	assert.Equal(t, PlatformShopify, conn.Platform)
	assert.Equal(t, "acme.myshopify.com", conn.Identity())
	assert.True(t, conn.IsActive())

	_, err = NewConnection("", validShopify())
	assert.ErrorIs(t, err, ErrInvalidMerchantID)

	bad := validShopify()
	bad.APIKey = ""
	_, err = NewConnection("merchant-1", bad)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = NewConnection("merchant-1", nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestConnection_ReplaceCredentials(t *testing.T) {
	conn, err := NewConnection("merchant-1", validShopify())
	require.NoError(t, err)
	conn.Disconnect()
	assert.False(t, conn.IsActive())

	assert.ErrorIs(t, conn.ReplaceCredentials(validWoo()), ErrPlatformMismatch)

	next := validShopify()
	next.AccessToken = "shpat_rotated"
	require.NoError(t, conn.ReplaceCredentials(next))
	assert.True(t, conn.IsActive())
	assert.Equal(t, "shpat_rotated", conn.Credentials.(*ShopifyCredentials).AccessToken)
}
