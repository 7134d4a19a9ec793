package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/integration"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testStaleAfter = 10 * time.Minute

func newTestShopifyCredentials(shop string) *integration.ShopifyCredentials {
	return &integration.ShopifyCredentials{
		ShopDomain:  shop,
		APIKey:      "key-0123456789",
		APISecret:   "shpss_0123456789",
		AccessToken: "shpat_0123456789",
	}
}

func newTestConnection(t *testing.T) *integration.Connection {
	t.Helper()
	conn, err := integration.NewConnection("merchant-1", newTestShopifyCredentials("demo.myshopify.com"))
	require.NoError(t, err)
	return conn
}

func newTestTracker(statuses integration.SyncStatusRepository, connections integration.ConnectionRepository) *SyncStatusTracker {
	tracker := NewSyncStatusTracker(statuses, connections, testStaleAfter, zap.NewNop())
	tracker.now = func() time.Time { return testNow }
	return tracker
}

func newTestProduct(id, name string, cents int64) integration.PlatformProduct {
	return integration.PlatformProduct{
		ID:       id,
		Name:     name,
		SKU:      "SKU-" + id,
		Price:    integration.Money{Amount: cents, Currency: "USD"},
		Quantity: 5,
		Platform: integration.PlatformShopify,
	}
}

func newTestCatalogProduct(t *testing.T, conn *integration.Connection, remote integration.PlatformProduct) *integration.CatalogProduct {
	t.Helper()
	p, err := integration.NewCatalogProduct(conn, &remote)
	require.NoError(t, err)
	return p
}
