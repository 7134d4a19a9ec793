package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/logger"
)

type syncFixture struct {
	conn        *integration.Connection
	connections *MockConnectionRepository
	statuses    *memStatusRepo
	catalog     *MockCatalogRepository
	orders      *MockOrderWriter
	client      *MockPlatformClient
	events      *recordingPublisher
	observer    *recordingObserver
	tracker     *SyncStatusTracker
	service     *SyncService
}

func newSyncFixture(t *testing.T, opts ...SyncOption) *syncFixture {
	t.Helper()
	f := &syncFixture{
		conn:        newTestConnection(t),
		connections: new(MockConnectionRepository),
		statuses:    newMemStatusRepo(),
		catalog:     new(MockCatalogRepository),
		orders:      new(MockOrderWriter),
		client:      &MockPlatformClient{platform: integration.PlatformShopify},
		events:      &recordingPublisher{},
		observer:    &recordingObserver{},
	}
	f.connections.On("FindByID", mock.Anything, f.conn.ID).Return(f.conn, nil)
	f.connections.On("FindByMerchant", mock.Anything, f.conn.MerchantID, integration.PlatformShopify).Return(f.conn, nil)
	f.tracker = newTestTracker(f.statuses, f.connections)

	opts = append([]SyncOption{WithSyncObserver(f.observer)}, opts...)
	f.service = NewSyncService(
		f.connections,
		stubResolver{integration.PlatformShopify: f.client},
		f.catalog,
		f.orders,
		f.tracker,
		f.events,
		zap.NewNop(),
		opts...,
	)
	return f
}

func (f *syncFixture) page(cursor string, next string, items ...integration.PlatformProduct) {
	f.client.On("FetchProducts", mock.Anything, f.conn.Credentials, cursor).
		Return(&integration.ProductPage{Items: items, NextCursor: next}, nil).Once()
}

func (f *syncFixture) record(t *testing.T) *integration.SyncStatusRecord {
	t.Helper()
	rec, err := f.statuses.Get(context.Background(), f.conn.ID)
	require.NoError(t, err)
	return rec
}

func TestSyncService_SyncProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciles every page", func(t *testing.T) {
		f := newSyncFixture(t)
		fresh := newTestProduct("1", "Mug", 1299)
		same := newTestProduct("2", "Poster", 2500)
		stale := newTestProduct("3", "Sticker", 300)
		restocked := stale
		restocked.Quantity = 40

		f.page("", "page-2", fresh, same)
		f.page("page-2", "", restocked)
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"1", "2"}).
			Return(map[string]*integration.CatalogProduct{"2": newTestCatalogProduct(t, f.conn, same)}, nil)
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"3"}).
			Return(map[string]*integration.CatalogProduct{"3": newTestCatalogProduct(t, f.conn, stale)}, nil)
		f.catalog.On("Create", mock.Anything, mock.MatchedBy(func(p *integration.CatalogProduct) bool {
			return p.PlatformProductID == "1" && p.ConnectionID == f.conn.ID
		})).Return(nil).Once()
		f.catalog.On("Update", mock.Anything, mock.MatchedBy(func(p *integration.CatalogProduct) bool {
			return p.PlatformProductID == "3" && p.Quantity == 40
		})).Return(nil).Once()

		result, err := f.service.SyncProducts(ctx, f.conn.ID)
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.False(t, result.Aborted)
		assert.Equal(t, 1, result.Added)
		assert.Equal(t, 1, result.Updated)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 0, result.Failed)
		assert.Empty(t, result.Errors)

		rec := f.record(t)
		assert.Equal(t, integration.SyncStatusCompleted, rec.Status)
		assert.Nil(t, rec.StartedAt)
		require.NotNil(t, rec.LastResult)
		assert.Equal(t, *result, *rec.LastResult)

		assert.Equal(t, []string{
			integration.EventTypeSyncStarted,
			integration.EventTypeProductImported,
			integration.EventTypeProductImported,
			integration.EventTypeSyncCompleted,
		}, f.events.types())
		assert.Equal(t, 1, f.observer.started)
		assert.Equal(t, []string{"SHOPIFY:COMPLETED"}, f.observer.runs)
		f.client.AssertExpectations(t)
		f.catalog.AssertExpectations(t)
	})

	t.Run("item failures are collected and the batch continues", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "", newTestProduct("1", "Mug", 1299), newTestProduct("2", "Poster", 2500), newTestProduct("", "Ghost", 1))
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"1", "2"}).
			Return(map[string]*integration.CatalogProduct{}, nil)
		f.catalog.On("Create", mock.Anything, mock.MatchedBy(func(p *integration.CatalogProduct) bool {
			return p.PlatformProductID == "1"
		})).Return(errors.New("unique violation"))
		f.catalog.On("Create", mock.Anything, mock.MatchedBy(func(p *integration.CatalogProduct) bool {
			return p.PlatformProductID == "2"
		})).Return(nil)

		result, err := f.service.SyncProducts(ctx, f.conn.ID)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.Added)
		assert.Equal(t, 2, result.Failed)
		assert.Equal(t, []string{
			"product 1 (sku SKU-1): create: unique violation",
			"product <missing id> (sku SKU-): stage: integration: product has no platform ID",
		}, result.Errors)

		rec := f.record(t)
		assert.Equal(t, integration.SyncStatusFailed, rec.Status)
		assert.Equal(t, result.Errors[1], rec.LastError)
	})

	t.Run("platform error on the second write fails only that item", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "", newTestProduct("1", "Mug", 1299), newTestProduct("2", "Poster", 2500))
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"1", "2"}).
			Return(map[string]*integration.CatalogProduct{}, nil)
		f.catalog.On("Create", mock.Anything, mock.MatchedBy(func(p *integration.CatalogProduct) bool {
			return p.PlatformProductID == "1"
		})).Return(nil).Once()
		f.catalog.On("Create", mock.Anything, mock.MatchedBy(func(p *integration.CatalogProduct) bool {
			return p.PlatformProductID == "2"
		})).Return(&integration.PlatformRequestError{Platform: integration.PlatformShopify, Method: "POST", Path: "/products", StatusCode: 500}).Once()

		result, err := f.service.SyncProducts(ctx, f.conn.ID)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.Added)
		assert.Equal(t, 0, result.Updated)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "product 2 (sku SKU-2): create:")
		assert.Contains(t, result.Errors[0], "returned 500")
		assert.Equal(t, integration.SyncStatusFailed, f.record(t).Status)
		f.catalog.AssertExpectations(t)
	})

	t.Run("undecodable product is recorded and later pages still sync", func(t *testing.T) {
		f := newSyncFixture(t)
		f.client.On("FetchProducts", mock.Anything, f.conn.Credentials, "").
			Return(&integration.ProductPage{
				Items: []integration.PlatformProduct{newTestProduct("1", "Mug", 1299)},
				Invalid: []*integration.ItemDecodeError{{
					Platform:   integration.PlatformShopify,
					Item:       "product",
					PlatformID: "2",
					Err:        errors.New("price: invalid amount \"12,50\""),
				}},
				NextCursor: "page-2",
			}, nil).Once()
		f.page("page-2", "", newTestProduct("3", "Sticker", 300))
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"1"}).
			Return(map[string]*integration.CatalogProduct{}, nil)
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"3"}).
			Return(map[string]*integration.CatalogProduct{}, nil)
		f.catalog.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()

		result, err := f.service.SyncProducts(ctx, f.conn.ID)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.False(t, result.Aborted)
		assert.Equal(t, 2, result.Added)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "product 2: decode:")
		assert.Contains(t, result.Errors[0], "12,50")

		rec := f.record(t)
		assert.Equal(t, integration.SyncStatusFailed, rec.Status)
		require.NotNil(t, rec.LastResult)
		assert.Equal(t, 2, rec.LastResult.Added)
		f.client.AssertExpectations(t)
		f.catalog.AssertExpectations(t)
	})

	t.Run("late finish after a stale takeover is reported as superseded", func(t *testing.T) {
		f := newSyncFixture(t)
		var takeover uuid.UUID
		f.client.On("FetchProducts", mock.Anything, f.conn.Credentials, "").
			Run(func(mock.Arguments) {
				// the run stalls past stale_after and another worker claims it
				f.tracker.now = func() time.Time { return testNow.Add(testStaleAfter + time.Minute) }
				takeover = mustBegin(t, f.tracker, f.conn.ID)
			}).
			Return(&integration.ProductPage{Items: []integration.PlatformProduct{newTestProduct("1", "Mug", 1299)}}, nil).Once()
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"1"}).
			Return(map[string]*integration.CatalogProduct{}, nil)
		f.catalog.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		result, err := f.service.SyncProducts(ctx, f.conn.ID)
		assert.ErrorIs(t, err, integration.ErrSyncSuperseded)
		require.NotNil(t, result)
		assert.Equal(t, 1, result.Added)

		rec := f.record(t)
		assert.Equal(t, integration.SyncStatusInProgress, rec.Status, "the newer run keeps its claim")
		assert.Equal(t, takeover, rec.RunID)
		assert.Nil(t, rec.LastResult)
		assert.NotContains(t, f.events.types(), integration.EventTypeSyncCompleted)
		assert.Equal(t, []string{"SHOPIFY:SUPERSEDED"}, f.observer.runs)
	})

	t.Run("second run is refused while one is in flight", func(t *testing.T) {
		f := newSyncFixture(t)
		mustBegin(t, f.tracker, f.conn.ID)

		result, err := f.service.SyncProducts(ctx, f.conn.ID)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, integration.ErrConcurrentSync)
		f.client.AssertNotCalled(t, "FetchProducts", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, integration.SyncStatusInProgress, f.record(t).Status)
		assert.Empty(t, f.events.types())
	})

	t.Run("auth failure fails the run", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "page-2", newTestProduct("1", "Mug", 1299))
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"1"}).Return(map[string]*integration.CatalogProduct{}, nil)
		f.catalog.On("Create", mock.Anything, mock.Anything).Return(nil)
		authErr := &integration.PlatformRequestError{Platform: integration.PlatformShopify, Method: "GET", Path: "/products.json", StatusCode: 401}
		f.client.On("FetchProducts", mock.Anything, f.conn.Credentials, "page-2").Return(nil, authErr)

		result, err := f.service.SyncProducts(ctx, f.conn.ID)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, integration.ErrPlatformAuthFailed)

		rec := f.record(t)
		assert.Equal(t, integration.SyncStatusFailed, rec.Status)
		assert.Contains(t, rec.LastError, "returned 401")
		assert.Nil(t, rec.StartedAt)
		assert.Zero(t, f.events.count(integration.EventTypeSyncCompleted))
		assert.Equal(t, []string{"SHOPIFY:FAILED"}, f.observer.runs)
	})

	t.Run("other fetch failures abort with the partial result", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "page-2", newTestProduct("1", "Mug", 1299))
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"1"}).Return(map[string]*integration.CatalogProduct{}, nil)
		f.catalog.On("Create", mock.Anything, mock.Anything).Return(nil)
		outage := &integration.PlatformRequestError{Platform: integration.PlatformShopify, Method: "GET", Path: "/products.json", StatusCode: 503}
		f.client.On("FetchProducts", mock.Anything, f.conn.Credentials, "page-2").Return(nil, outage)

		result, err := f.service.SyncProducts(ctx, f.conn.ID)
		require.NoError(t, err)
		assert.True(t, result.Aborted)
		assert.Equal(t, 1, result.Added)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "fetch page 2")
		assert.Equal(t, integration.SyncStatusFailed, f.record(t).Status)
		assert.Equal(t, 1, f.events.count(integration.EventTypeSyncCompleted))
	})

	t.Run("run budget stops fetching", func(t *testing.T) {
		f := newSyncFixture(t, WithRunBudget(20*time.Millisecond))
		f.client.On("FetchProducts", mock.Anything, f.conn.Credentials, "").
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded)

		result, err := f.service.SyncProducts(ctx, f.conn.ID)
		require.NoError(t, err)
		assert.True(t, result.Aborted)
		assert.Contains(t, result.Errors[0], "run budget exceeded")
		assert.Equal(t, integration.SyncStatusFailed, f.record(t).Status)
	})

	t.Run("a panic still releases the claim", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "", newTestProduct("1", "Mug", 1299))
		f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{"1"}).Return(map[string]*integration.CatalogProduct{}, nil)
		f.catalog.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("driver bug") })

		assert.PanicsWithValue(t, "driver bug", func() {
			_, _ = f.service.SyncProducts(ctx, f.conn.ID)
		})

		rec := f.record(t)
		assert.Equal(t, integration.SyncStatusFailed, rec.Status)
		assert.Contains(t, rec.LastError, "panicked")
		assert.Nil(t, rec.StartedAt)
		assert.Equal(t, []string{"SHOPIFY:FAILED"}, f.observer.runs)
	})

	t.Run("disconnected connection is not synced", func(t *testing.T) {
		f := newSyncFixture(t)
		f.conn.Disconnect()

		_, err := f.service.SyncProducts(ctx, f.conn.ID)
		assert.ErrorIs(t, err, integration.ErrConnectionInactive)
		_, statusErr := f.statuses.Get(ctx, f.conn.ID)
		assert.ErrorIs(t, statusErr, integration.ErrSyncStatusNotFound)
	})
}

func TestSyncService_SyncByMerchant(t *testing.T) {
	f := newSyncFixture(t)
	f.page("", "")
	f.catalog.On("FindByPlatformIDs", mock.Anything, f.conn.ID, []string{}).Return(map[string]*integration.CatalogProduct{}, nil)

	result, err := f.service.SyncByMerchant(context.Background(), f.conn.MerchantID, integration.PlatformShopify)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.Processed())
	assert.Equal(t, integration.SyncStatusCompleted, f.record(t).Status)
}

func TestSyncService_ReconcileProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an unknown product without taking the run gate", func(t *testing.T) {
		f := newSyncFixture(t)
		mustBegin(t, f.tracker, f.conn.ID)
		remote := newTestProduct("9", "Hat", 1500)
		f.catalog.On("FindByPlatformID", mock.Anything, f.conn.ID, "9").Return(nil, integration.ErrProductNotFound)
		f.catalog.On("Create", mock.Anything, mock.Anything).Return(nil)

		kind, err := f.service.ReconcileProduct(ctx, f.conn.ID, &remote)
		require.NoError(t, err)
		assert.Equal(t, ChangeCreate, kind)
		assert.Equal(t, 1, f.events.count(integration.EventTypeProductImported))
	})

	t.Run("updates and skips", func(t *testing.T) {
		f := newSyncFixture(t)
		stored := newTestProduct("9", "Hat", 1500)
		f.catalog.On("FindByPlatformID", mock.Anything, f.conn.ID, "9").Return(newTestCatalogProduct(t, f.conn, stored), nil)
		f.catalog.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

		kind, err := f.service.ReconcileProduct(ctx, f.conn.ID, &stored)
		require.NoError(t, err)
		assert.Equal(t, ChangeSkip, kind)

		renamed := stored
		renamed.Name = "Wool Hat"
		kind, err = f.service.ReconcileProduct(ctx, f.conn.ID, &renamed)
		require.NoError(t, err)
		assert.Equal(t, ChangeUpdate, kind)
		f.catalog.AssertExpectations(t)
	})

	t.Run("lookup errors are returned", func(t *testing.T) {
		f := newSyncFixture(t)
		remote := newTestProduct("9", "Hat", 1500)
		f.catalog.On("FindByPlatformID", mock.Anything, f.conn.ID, "9").Return(nil, errors.New("db down"))

		_, err := f.service.ReconcileProduct(ctx, f.conn.ID, &remote)
		assert.EqualError(t, err, "db down")
	})

	t.Run("product without ID", func(t *testing.T) {
		f := newSyncFixture(t)
		remote := newTestProduct("", "Hat", 1500)

		kind, err := f.service.ReconcileProduct(ctx, f.conn.ID, &remote)
		assert.Equal(t, ChangeInvalid, kind)
		assert.ErrorIs(t, err, integration.ErrInvalidProduct)
	})
}

func TestSyncService_PushProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("creates remotely then links locally", func(t *testing.T) {
		f := newSyncFixture(t)
		draft := newTestProduct("", "Hat", 1500)
		created := draft
		created.ID = "777"
		f.client.On("CreateProduct", ctx, f.conn.Credentials, &draft).Return(&created, nil)
		f.catalog.On("FindByPlatformID", mock.Anything, f.conn.ID, "777").Return(nil, integration.ErrProductNotFound)
		f.catalog.On("Create", mock.Anything, mock.MatchedBy(func(p *integration.CatalogProduct) bool {
			return p.PlatformProductID == "777"
		})).Return(nil)

		got, err := f.service.PushProduct(ctx, f.conn.ID, &draft)
		require.NoError(t, err)
		assert.Equal(t, "777", got.ID)
		f.client.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("updates a product that has an ID", func(t *testing.T) {
		f := newSyncFixture(t)
		product := newTestProduct("777", "Hat", 1700)
		f.client.On("UpdateProduct", ctx, f.conn.Credentials, &product).Return(&product, nil)
		f.catalog.On("FindByPlatformID", mock.Anything, f.conn.ID, "777").Return(nil, integration.ErrProductNotFound)
		f.catalog.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := f.service.PushProduct(ctx, f.conn.ID, &product)
		require.NoError(t, err)
	})

	t.Run("platform errors are returned", func(t *testing.T) {
		f := newSyncFixture(t)
		draft := newTestProduct("", "Hat", 1500)
		rejected := &integration.PlatformRequestError{Platform: integration.PlatformShopify, Method: "POST", Path: "/products.json", StatusCode: 422}
		f.client.On("CreateProduct", ctx, f.conn.Credentials, &draft).Return(nil, rejected)

		_, err := f.service.PushProduct(ctx, f.conn.ID, &draft)
		assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)
		f.catalog.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestSyncService_RemoveRemoteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes remotely and locally", func(t *testing.T) {
		f := newSyncFixture(t)
		f.client.On("DeleteProduct", ctx, f.conn.Credentials, "5").Return(nil)
		f.catalog.On("Delete", ctx, f.conn.ID, "5").Return(nil)

		require.NoError(t, f.service.RemoveRemoteProduct(ctx, f.conn.ID, "5"))
		assert.Equal(t, 1, f.events.count(integration.EventTypeProductRemoved))
	})

	t.Run("nothing linked locally is fine", func(t *testing.T) {
		f := newSyncFixture(t)
		f.client.On("DeleteProduct", ctx, f.conn.Credentials, "5").Return(nil)
		f.catalog.On("Delete", ctx, f.conn.ID, "5").Return(integration.ErrProductNotFound)

		require.NoError(t, f.service.RemoveRemoteProduct(ctx, f.conn.ID, "5"))
		assert.Zero(t, f.events.count(integration.EventTypeProductRemoved))
	})

	t.Run("remote failure keeps the local product", func(t *testing.T) {
		f := newSyncFixture(t)
		f.client.On("DeleteProduct", ctx, f.conn.Credentials, "5").
			Return(&integration.PlatformRequestError{Platform: integration.PlatformShopify, Method: "DELETE", StatusCode: 500})

		err := f.service.RemoveRemoteProduct(ctx, f.conn.ID, "5")
		assert.ErrorIs(t, err, integration.ErrPlatformUnavailable)
		f.catalog.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSyncService_SweepDeletions(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes local products missing remotely", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "p2", newTestProduct("1", "A", 1))
		f.page("p2", "", newTestProduct("2", "B", 1))
		f.client.On("CountProducts", mock.Anything, f.conn.Credentials).Return(2, nil)
		f.catalog.On("ListPlatformIDs", mock.Anything, f.conn.ID).Return([]string{"1", "2", "3", "4"}, nil)
		f.catalog.On("Delete", mock.Anything, f.conn.ID, "3").Return(nil)
		f.catalog.On("Delete", mock.Anything, f.conn.ID, "4").Return(errors.New("locked"))

		result, err := f.service.SweepDeletions(ctx, f.conn.ID, SweepOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Deleted)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, []string{"product 4: delete: locked"}, result.Errors)
		assert.Equal(t, integration.SyncStatusFailed, f.record(t).Status)
		assert.Equal(t, 1, f.events.count(integration.EventTypeProductRemoved))
		assert.Empty(t, f.observer.runs)
	})

	t.Run("undecodable remote product is not deleted locally", func(t *testing.T) {
		f := newSyncFixture(t)
		f.client.On("FetchProducts", mock.Anything, f.conn.Credentials, "").
			Return(&integration.ProductPage{
				Items:   []integration.PlatformProduct{newTestProduct("1", "A", 1)},
				Invalid: []*integration.ItemDecodeError{{Platform: integration.PlatformShopify, Item: "product", PlatformID: "2", Err: errors.New("bad price")}},
			}, nil).Once()
		f.client.On("CountProducts", mock.Anything, f.conn.Credentials).Return(2, nil)
		f.catalog.On("ListPlatformIDs", mock.Anything, f.conn.ID).Return([]string{"1", "2"}, nil)

		result, err := f.service.SweepDeletions(ctx, f.conn.ID, SweepOptions{})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Deleted)
		f.catalog.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("refuses an empty remote catalog without confirmation", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "")
		f.client.On("CountProducts", mock.Anything, f.conn.Credentials).Return(0, nil)
		f.catalog.On("ListPlatformIDs", mock.Anything, f.conn.ID).Return([]string{"1"}, nil)

		_, err := f.service.SweepDeletions(ctx, f.conn.ID, SweepOptions{})
		assert.ErrorIs(t, err, integration.ErrSweepUnconfirmed)
		f.catalog.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, integration.SyncStatusFailed, f.record(t).Status)
	})

	t.Run("confirmed empty remote deletes everything", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "")
		f.client.On("CountProducts", mock.Anything, f.conn.Credentials).Return(0, nil)
		f.catalog.On("ListPlatformIDs", mock.Anything, f.conn.ID).Return([]string{"1", "2"}, nil)
		f.catalog.On("Delete", mock.Anything, f.conn.ID, mock.Anything).Return(nil)

		result, err := f.service.SweepDeletions(ctx, f.conn.ID, SweepOptions{ConfirmEmptyRemote: true})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Deleted)
		assert.Equal(t, integration.SyncStatusCompleted, f.record(t).Status)
	})

	t.Run("count mismatch aborts", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "", newTestProduct("1", "A", 1))
		f.client.On("CountProducts", mock.Anything, f.conn.Credentials).Return(2, nil)
		f.catalog.On("ListPlatformIDs", mock.Anything, f.conn.ID).Return([]string{"1", "2"}, nil)

		_, err := f.service.SweepDeletions(ctx, f.conn.ID, SweepOptions{})
		assert.ErrorIs(t, err, integration.ErrSweepIncomplete)
		assert.Contains(t, err.Error(), "fetched 1 of 2")
		f.catalog.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fetch failure deletes nothing", func(t *testing.T) {
		f := newSyncFixture(t)
		f.page("", "p2", newTestProduct("1", "A", 1))
		f.client.On("FetchProducts", mock.Anything, f.conn.Credentials, "p2").
			Return(nil, &integration.PlatformRequestError{Platform: integration.PlatformShopify, StatusCode: 502})

		_, err := f.service.SweepDeletions(ctx, f.conn.ID, SweepOptions{})
		assert.ErrorIs(t, err, integration.ErrSweepIncomplete)
		assert.ErrorIs(t, err, integration.ErrPlatformUnavailable)
		f.catalog.AssertNotCalled(t, "ListPlatformIDs", mock.Anything, mock.Anything)
	})

	t.Run("takes the run gate", func(t *testing.T) {
		f := newSyncFixture(t)
		mustBegin(t, f.tracker, f.conn.ID)

		_, err := f.service.SweepDeletions(ctx, f.conn.ID, SweepOptions{})
		assert.ErrorIs(t, err, integration.ErrConcurrentSync)
	})
}

func TestSyncService_ImportOrders(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	first := integration.PlatformOrder{ID: "1001", Platform: integration.PlatformShopify, Total: integration.Money{Amount: 2599, Currency: "USD"}}
	second := integration.PlatformOrder{ID: "1002", Platform: integration.PlatformShopify}
	broken := integration.PlatformOrder{Platform: integration.PlatformShopify}

	f.client.On("FetchOrders", mock.Anything, f.conn.Credentials, "").
		Return(&integration.OrderPage{Items: []integration.PlatformOrder{first, second}, NextCursor: "2"}, nil)
	f.client.On("FetchOrders", mock.Anything, f.conn.Credentials, "2").
		Return(&integration.OrderPage{
			Items:   []integration.PlatformOrder{broken},
			Invalid: []*integration.ItemDecodeError{{Platform: integration.PlatformShopify, Item: "order", PlatformID: "1003", Err: errors.New("total: invalid amount")}},
		}, nil)
	f.orders.On("Upsert", mock.Anything, f.conn, mock.MatchedBy(func(o *integration.PlatformOrder) bool { return o.ID == "1001" })).Return(true, nil)
	f.orders.On("Upsert", mock.Anything, f.conn, mock.MatchedBy(func(o *integration.PlatformOrder) bool { return o.ID == "1002" })).Return(false, nil)

	result, err := f.service.ImportOrders(ctx, f.conn.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "order 1003: decode:")
	assert.Equal(t, "order <missing id>: validate: integration: order has no platform ID", result.Errors[1])
	assert.Equal(t, 2, f.events.count(integration.EventTypeOrderImported))
	assert.Equal(t, integration.SyncStatusFailed, f.record(t).Status)
}

func TestSyncService_SyncProducts_SecondRunIsNoOp(t *testing.T) {
	ctx := context.Background()
	conn := newTestConnection(t)
	connections := new(MockConnectionRepository)
	connections.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	client := &MockPlatformClient{platform: integration.PlatformShopify}
	remote := []integration.PlatformProduct{
		newTestProduct("1", "Mug", 1299),
		newTestProduct("2", "Poster", 2500),
		newTestProduct("3", "Sticker", 300),
	}
	client.On("FetchProducts", mock.Anything, conn.Credentials, "").
		Return(&integration.ProductPage{Items: remote[:2], NextCursor: "page-2"}, nil)
	client.On("FetchProducts", mock.Anything, conn.Credentials, "page-2").
		Return(&integration.ProductPage{Items: remote[2:]}, nil)

	catalog := newMemCatalog()
	service := NewSyncService(
		connections,
		stubResolver{integration.PlatformShopify: client},
		catalog,
		new(MockOrderWriter),
		newTestTracker(newMemStatusRepo(), connections),
		&recordingPublisher{},
		zap.NewNop(),
	)

	first, err := service.SyncProducts(ctx, conn.ID)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, 3, first.Added)
	assert.Equal(t, 0, first.Updated)

	second, err := service.SyncProducts(ctx, conn.ID)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 0, second.Failed)

	assert.Equal(t, 3, catalog.creates)
	assert.Equal(t, 0, catalog.updates)
	assert.Len(t, catalog.products, 3)
}

func TestSyncService_RunLogsCarryConnection(t *testing.T) {
	f := newSyncFixture(t)
	core, logs := observer.New(zap.DebugLevel)
	f.service.logger = zap.New(core)

	f.page("", "page-2", newTestProduct("1", "Mug", 1299))
	f.catalog.On("FindByPlatformIDs", mock.MatchedBy(func(ctx context.Context) bool {
		return logger.GetConnectionID(ctx) == f.conn.ID.String()
	}), f.conn.ID, []string{"1"}).Return(map[string]*integration.CatalogProduct{}, nil)
	f.catalog.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.client.On("FetchProducts", mock.Anything, f.conn.Credentials, "page-2").
		Return(nil, &integration.PlatformRequestError{Platform: integration.PlatformShopify, StatusCode: 503})

	_, err := f.service.SyncProducts(context.Background(), f.conn.ID)
	require.NoError(t, err)

	for _, msg := range []string{"Sync aborted", "Sync run finished"} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		fields := entries[0].ContextMap()
		assert.Equal(t, f.conn.ID.String(), fields["connection_id"], msg)
		assert.Equal(t, f.conn.MerchantID, fields["merchant_id"], msg)
	}
	assert.NotEmpty(t, logs.FilterMessage("Sync run finished").All()[0].ContextMap()["run_id"])
	f.catalog.AssertExpectations(t)
}
