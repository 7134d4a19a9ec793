package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Repository mocks
// ---------------------------------------------------------------------------

type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindByMerchant(ctx context.Context, merchantID string, platform integration.PlatformType) (*integration.Connection, error) {
	args := m.Called(ctx, merchantID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindByIdentity(ctx context.Context, platform integration.PlatformType, identity string) (*integration.Connection, error) {
	args := m.Called(ctx, platform, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn *integration.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockSyncStatusRepository struct {
	mock.Mock
}

func (m *MockSyncStatusRepository) Get(ctx context.Context, connectionID uuid.UUID) (*integration.SyncStatusRecord, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncStatusRecord), args.Error(1)
}

func (m *MockSyncStatusRepository) Create(ctx context.Context, record *integration.SyncStatusRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockSyncStatusRepository) TryBegin(ctx context.Context, record *integration.SyncStatusRecord, now, staleCutoff time.Time) (bool, error) {
	args := m.Called(ctx, record, now, staleCutoff)
	return args.Bool(0), args.Error(1)
}

func (m *MockSyncStatusRepository) Finish(ctx context.Context, record *integration.SyncStatusRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSyncStatusRepository) MarkPending(ctx context.Context, connectionID uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, connectionID, now)
	return args.Bool(0), args.Error(1)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindByPlatformIDs(ctx context.Context, connectionID uuid.UUID, platformIDs []string) (map[string]*integration.CatalogProduct, error) {
	args := m.Called(ctx, connectionID, platformIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*integration.CatalogProduct), args.Error(1)
}

func (m *MockCatalogRepository) FindByPlatformID(ctx context.Context, connectionID uuid.UUID, platformID string) (*integration.CatalogProduct, error) {
	args := m.Called(ctx, connectionID, platformID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CatalogProduct), args.Error(1)
}

func (m *MockCatalogRepository) ListPlatformIDs(ctx context.Context, connectionID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCatalogRepository) Create(ctx context.Context, product *integration.CatalogProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCatalogRepository) Update(ctx context.Context, product *integration.CatalogProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCatalogRepository) Delete(ctx context.Context, connectionID uuid.UUID, platformID string) error {
	args := m.Called(ctx, connectionID, platformID)
	return args.Error(0)
}

type MockOrderWriter struct {
	mock.Mock
}

func (m *MockOrderWriter) Upsert(ctx context.Context, conn *integration.Connection, order *integration.PlatformOrder) (bool, error) {
	args := m.Called(ctx, conn, order)
	return args.Bool(0), args.Error(1)
}

type MockWebhookArchive struct {
	mock.Mock
}

func (m *MockWebhookArchive) Archive(ctx context.Context, event *integration.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// ---------------------------------------------------------------------------
// Platform mocks
// ---------------------------------------------------------------------------

type MockPlatformClient struct {
	mock.Mock
	platform integration.PlatformType
}

func (m *MockPlatformClient) Platform() integration.PlatformType { return m.platform }

func (m *MockPlatformClient) Authenticate(ctx context.Context, creds integration.PlatformCredentials) (bool, error) {
	args := m.Called(ctx, creds)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlatformClient) FetchProducts(ctx context.Context, creds integration.PlatformCredentials, cursor string) (*integration.ProductPage, error) {
	args := m.Called(ctx, creds, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductPage), args.Error(1)
}

func (m *MockPlatformClient) CountProducts(ctx context.Context, creds integration.PlatformCredentials) (int, error) {
	args := m.Called(ctx, creds)
	return args.Int(0), args.Error(1)
}

func (m *MockPlatformClient) FetchOrders(ctx context.Context, creds integration.PlatformCredentials, cursor string) (*integration.OrderPage, error) {
	args := m.Called(ctx, creds, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.OrderPage), args.Error(1)
}

func (m *MockPlatformClient) CreateProduct(ctx context.Context, creds integration.PlatformCredentials, product *integration.PlatformProduct) (*integration.PlatformProduct, error) {
	args := m.Called(ctx, creds, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.PlatformProduct), args.Error(1)
}

func (m *MockPlatformClient) UpdateProduct(ctx context.Context, creds integration.PlatformCredentials, product *integration.PlatformProduct) (*integration.PlatformProduct, error) {
	args := m.Called(ctx, creds, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.PlatformProduct), args.Error(1)
}

func (m *MockPlatformClient) DeleteProduct(ctx context.Context, creds integration.PlatformCredentials, productID string) error {
	args := m.Called(ctx, creds, productID)
	return args.Error(0)
}

func (m *MockPlatformClient) VerifyWebhookSignature(creds integration.PlatformCredentials, payload []byte, signature string) bool {
	args := m.Called(creds, payload, signature)
	return args.Bool(0)
}

func (m *MockPlatformClient) DecodeProductWebhook(payload []byte) (*integration.PlatformProduct, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.PlatformProduct), args.Error(1)
}

func (m *MockPlatformClient) DecodeProductDeletion(payload []byte) (string, error) {
	args := m.Called(payload)
	return args.String(0), args.Error(1)
}

func (m *MockPlatformClient) DecodeOrderWebhook(payload []byte) (*integration.PlatformOrder, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.PlatformOrder), args.Error(1)
}

// stubResolver serves fixed clients by platform
type stubResolver map[integration.PlatformType]integration.PlatformClient

func (r stubResolver) Client(platform integration.PlatformType) (integration.PlatformClient, error) {
	c, ok := r[platform]
	if !ok {
		return nil, integration.ErrUnsupportedPlatform
	}
	return c, nil
}

func (r stubResolver) Platforms() []integration.PlatformType {
	out := make([]integration.PlatformType, 0, len(r))
	for p := range r {
		out = append(out, p)
	}
	return out
}

// ---------------------------------------------------------------------------
// Shared mocks
// ---------------------------------------------------------------------------

// recordingPublisher keeps published events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func (p *recordingPublisher) count(eventType string) int {
	n := 0
	for _, t := range p.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// recordingObserver captures metrics calls
type recordingObserver struct {
	mu       sync.Mutex
	started  int
	runs     []string
	webhooks []string
}

func (o *recordingObserver) SyncStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *recordingObserver) ObserveSyncRun(platform, status string, _ time.Duration, _, _, _, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, platform+":"+status)
}

func (o *recordingObserver) ObserveWebhook(platform, topic, state string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.webhooks = append(o.webhooks, platform+":"+topic+":"+state)
}

// ---------------------------------------------------------------------------
// In-memory status repository
// ---------------------------------------------------------------------------

// memStatusRepo mirrors the conditional writes of the gorm repository
type memStatusRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]integration.SyncStatusRecord
}

func newMemStatusRepo() *memStatusRepo {
	return &memStatusRepo{records: make(map[uuid.UUID]integration.SyncStatusRecord)}
}

func (r *memStatusRepo) Get(_ context.Context, id uuid.UUID) (*integration.SyncStatusRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, integration.ErrSyncStatusNotFound
	}
	return &rec, nil
}

func (r *memStatusRepo) Create(_ context.Context, record *integration.SyncStatusRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ConnectionID]; ok {
		return false, nil
	}
	r.records[record.ConnectionID] = *record
	return true, nil
}

func (r *memStatusRepo) TryBegin(_ context.Context, record *integration.SyncStatusRecord, now, cutoff time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[record.ConnectionID]
	if !ok || !rec.CanBegin(cutoff) {
		return false, nil
	}
	started := now
	rec.Status = integration.SyncStatusInProgress
	rec.StartedAt = &started
	rec.RunID = record.RunID
	rec.UpdatedAt = now
	r.records[record.ConnectionID] = rec
	return true, nil
}

func (r *memStatusRepo) Finish(_ context.Context, record *integration.SyncStatusRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	held, ok := r.records[record.ConnectionID]
	if !ok {
		return integration.ErrSyncStatusNotFound
	}
	if held.Status != integration.SyncStatusInProgress || held.RunID != record.RunID {
		return integration.ErrSyncSuperseded
	}
	rec := *record
	rec.StartedAt = nil
	rec.RunID = uuid.Nil
	r.records[record.ConnectionID] = rec
	return nil
}

func (r *memStatusRepo) MarkPending(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || !rec.MarkPending(now) {
		return false, nil
	}
	r.records[id] = rec
	return true, nil
}

func (r *memStatusRepo) status(id uuid.UUID) integration.SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id].Status
}

// memCatalog is an in-memory catalog keyed by platform product ID. It hands
// out copies so a run cannot mutate stored rows without calling Update.
type memCatalog struct {
	mu       sync.Mutex
	products map[string]integration.CatalogProduct
	creates  int
	updates  int
}

func newMemCatalog() *memCatalog {
	return &memCatalog{products: make(map[string]integration.CatalogProduct)}
}

func (c *memCatalog) FindByPlatformIDs(_ context.Context, _ uuid.UUID, ids []string) (map[string]*integration.CatalogProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := make(map[string]*integration.CatalogProduct, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			found[id] = &p
		}
	}
	return found, nil
}

func (c *memCatalog) FindByPlatformID(_ context.Context, _ uuid.UUID, id string) (*integration.CatalogProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, integration.ErrProductNotFound
	}
	return &p, nil
}

func (c *memCatalog) ListPlatformIDs(_ context.Context, _ uuid.UUID) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.products))
	for id := range c.products {
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *memCatalog) Create(_ context.Context, product *integration.CatalogProduct) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[product.PlatformProductID]; ok {
		return fmt.Errorf("duplicate platform product %s", product.PlatformProductID)
	}
	c.products[product.PlatformProductID] = *product
	c.creates++
	return nil
}

func (c *memCatalog) Update(_ context.Context, product *integration.CatalogProduct) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[product.PlatformProductID]; !ok {
		return integration.ErrProductNotFound
	}
	c.products[product.PlatformProductID] = *product
	c.updates++
	return nil
}

func (c *memCatalog) Delete(_ context.Context, _ uuid.UUID, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[id]; !ok {
		return integration.ErrProductNotFound
	}
	delete(c.products, id)
	return nil
}

var (
	_ integration.CatalogRepository    = (*memCatalog)(nil)
	_ integration.SyncStatusRepository = (*memStatusRepo)(nil)
	_ integration.PlatformClient       = (*MockPlatformClient)(nil)
	_ integration.CatalogRepository    = (*MockCatalogRepository)(nil)
	_ shared.IdempotencyStore          = (*MockIdempotencyStore)(nil)
)
