package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	integrationapp "github.com/marketplace/backend/internal/application/integration"
	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockConnectionService is a mock implementation of ConnectionService
type MockConnectionService struct {
	mock.Mock
}

func (m *MockConnectionService) GetConnection(ctx context.Context, id uuid.UUID) (*integration.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

func (m *MockConnectionService) SaveCredentials(ctx context.Context, merchantID string, platform integration.PlatformType, creds integration.PlatformCredentials) (*integration.Connection, error) {
	args := m.Called(ctx, merchantID, platform, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

func (m *MockConnectionService) Reauthorize(ctx context.Context, merchantID string, platform integration.PlatformType, creds integration.PlatformCredentials) (*integration.Connection, error) {
	args := m.Called(ctx, merchantID, platform, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

func (m *MockConnectionService) Disconnect(ctx context.Context, id uuid.UUID) (*integration.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

// MockSyncRunner is a mock implementation of SyncRunner
type MockSyncRunner struct {
	mock.Mock
}

func (m *MockSyncRunner) SyncProducts(ctx context.Context, id uuid.UUID) (*integration.SyncResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

func (m *MockSyncRunner) SyncByMerchant(ctx context.Context, merchantID string, platform integration.PlatformType) (*integration.SyncResult, error) {
	args := m.Called(ctx, merchantID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

func (m *MockSyncRunner) SweepDeletions(ctx context.Context, id uuid.UUID, opts integrationapp.SweepOptions) (*integrationapp.SweepResult, error) {
	args := m.Called(ctx, id, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.SweepResult), args.Error(1)
}

func (m *MockSyncRunner) ImportOrders(ctx context.Context, id uuid.UUID) (*integration.SyncResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

func (m *MockSyncRunner) PushProduct(ctx context.Context, id uuid.UUID, product *integration.PlatformProduct) (*integration.PlatformProduct, error) {
	args := m.Called(ctx, id, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.PlatformProduct), args.Error(1)
}

func (m *MockSyncRunner) RemoveRemoteProduct(ctx context.Context, id uuid.UUID, productID string) error {
	args := m.Called(ctx, id, productID)
	return args.Error(0)
}

// MockSyncStatusReader is a mock implementation of SyncStatusReader
type MockSyncStatusReader struct {
	mock.Mock
}

func (m *MockSyncStatusReader) GetStatus(ctx context.Context, id uuid.UUID) (*integration.SyncStatusRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncStatusRecord), args.Error(1)
}

// MockWebhookReceiver is a mock implementation of WebhookReceiver
type MockWebhookReceiver struct {
	mock.Mock
}

func (m *MockWebhookReceiver) Handle(ctx context.Context, event *integration.WebhookEvent) (integrationapp.WebhookOutcome, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(integrationapp.WebhookOutcome), args.Error(1)
}

// authAs simulates the JWT middleware for a merchant token
func authAs(merchantID string, scopes ...auth.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{MerchantID: merchantID, Scopes: scopes})
		c.Set(middleware.JWTMerchantIDKey, merchantID)
		c.Set(middleware.RequestIDKey, "req-test")
		c.Next()
	}
}

func newShopifyConnection(merchantID string) *integration.Connection {
	conn, err := integration.NewConnection(merchantID, &integration.ShopifyCredentials{
		ShopDomain:  "demo.myshopify.com",
		APIKey:      "key-1234567890",
		APISecret:   "secret-1234567890",
		AccessToken: "shpat_abcdefghijkl",
	})
	if err != nil {
		panic(err)
	}
	return conn
}

func performJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.True(t, env.Success, w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
