package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/config"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.HeadBucketOutput)
	return out, args.Error(1)
}

func (m *mockS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.CreateBucketOutput)
	return out, args.Error(1)
}

func newTestEvent() *integration.WebhookEvent {
	return &integration.WebhookEvent{
		Platform:     integration.PlatformShopify,
		Topic:        "products/update",
		ShopIdentity: "demo.myshopify.com",
		DeliveryID:   "b54557e4-bdd9-4b37-8a5f-bf7d70bcd043",
		Signature:    "c2lnbmF0dXJl",
		Payload:      []byte(`{"id":632910392}`),
		ReceivedAt:   time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("PST", -8*3600)),
		ConnectionID: uuid.MustParse("2b1c1e0a-9f7c-4a55-8d6e-3c7a1f0b2d4e"),
		MerchantID:   "merchant-1",
	}
}

func TestNewS3WebhookArchive_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3WebhookArchive(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3WebhookArchive(context.Background(), &config.ArchiveConfig{Enabled: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("valid config with static keys and custom endpoint", func(t *testing.T) {
		archive, err := NewS3WebhookArchive(context.Background(), &config.ArchiveConfig{
			Enabled:         true,
			Bucket:          "webhook-archive",
			Endpoint:        "localhost:9000",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			UsePathStyle:    true,
			Prefix:          "/shops/",
		})
		require.NoError(t, err)
		assert.Equal(t, "webhook-archive", archive.Bucket())
		assert.Equal(t, "shops", archive.prefix)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"localhost:9000", "https://localhost:9000"},
		{"http://minio:9000", "http://minio:9000"},
		{"https://s3.eu-west-1.amazonaws.com", "https://s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3WebhookArchive_Key(t *testing.T) {
	archive := NewS3WebhookArchiveWithClient(new(mockS3), "bucket")

	t.Run("uses platform, UTC date and delivery ID", func(t *testing.T) {
		key := archive.Key(newTestEvent())
		assert.Equal(t, "webhooks/shopify/2026/03/02/b54557e4-bdd9-4b37-8a5f-bf7d70bcd043.json", key)
	})

	t.Run("generates a name when the delivery ID is missing", func(t *testing.T) {
		event := newTestEvent()
		event.DeliveryID = ""
		key := archive.Key(event)
		assert.Regexp(t, `^webhooks/shopify/2026/03/02/[0-9a-f-]{36}\.json$`, key)
	})

	t.Run("slashes in delivery IDs do not create directories", func(t *testing.T) {
		event := newTestEvent()
		event.Platform = integration.PlatformWooCommerce
		event.DeliveryID = "a/b"
		assert.Equal(t, "webhooks/woocommerce/2026/03/02/a_b.json", archive.Key(event))
	})
}

func TestS3WebhookArchive_Archive(t *testing.T) {
	client := new(mockS3)
	archive := NewS3WebhookArchiveWithClient(client, "webhook-archive", WithLogger(zaptest.NewLogger(t)))
	event := newTestEvent()

	var put *s3.PutObjectInput
	client.On("PutObject", mock.Anything, mock.AnythingOfType("*s3.PutObjectInput")).
		Run(func(args mock.Arguments) { put = args.Get(1).(*s3.PutObjectInput) }).
		Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, archive.Archive(context.Background(), event))
	require.NotNil(t, put)

	assert.Equal(t, "webhook-archive", aws.ToString(put.Bucket))
	assert.Equal(t, archive.Key(event), aws.ToString(put.Key))
	assert.Equal(t, "application/json", aws.ToString(put.ContentType))
	assert.Equal(t, "products/update", put.Metadata["topic"])
	assert.Equal(t, "merchant-1", put.Metadata["merchant-id"])
	assert.Equal(t, event.ConnectionID.String(), put.Metadata["connection-id"])
	for _, v := range put.Metadata {
		assert.NotEqual(t, event.Signature, v)
	}

	body, err := io.ReadAll(put.Body)
	require.NoError(t, err)
	assert.Equal(t, event.Payload, body)
	client.AssertExpectations(t)
}

func TestS3WebhookArchive_ArchiveErrors(t *testing.T) {
	t.Run("nil event", func(t *testing.T) {
		archive := NewS3WebhookArchiveWithClient(new(mockS3), "bucket")
		assert.Error(t, archive.Archive(context.Background(), nil))
	})

	t.Run("put failure is wrapped", func(t *testing.T) {
		client := new(mockS3)
		cause := errors.New("access denied")
		client.On("PutObject", mock.Anything, mock.Anything).Return(nil, cause)

		archive := NewS3WebhookArchiveWithClient(client, "bucket")
		err := archive.Archive(context.Background(), newTestEvent())
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "webhooks/shopify/")
	})
}

func TestS3WebhookArchive_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket exists", func(t *testing.T) {
		client := new(mockS3)
		client.On("HeadBucket", ctx, mock.Anything).Return(&s3.HeadBucketOutput{}, nil)

		require.NoError(t, NewS3WebhookArchiveWithClient(client, "bucket").EnsureBucket(ctx))
		client.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything)
	})

	t.Run("creates a missing bucket", func(t *testing.T) {
		client := new(mockS3)
		client.On("HeadBucket", ctx, mock.Anything).Return(nil, &types.NotFound{})
		client.On("CreateBucket", ctx, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
			return aws.ToString(in.Bucket) == "bucket"
		})).Return(&s3.CreateBucketOutput{}, nil)

		require.NoError(t, NewS3WebhookArchiveWithClient(client, "bucket").EnsureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("lost creation race is fine", func(t *testing.T) {
		client := new(mockS3)
		client.On("HeadBucket", ctx, mock.Anything).Return(nil, &types.NoSuchBucket{})
		client.On("CreateBucket", ctx, mock.Anything).Return(nil, &types.BucketAlreadyOwnedByYou{})

		assert.NoError(t, NewS3WebhookArchiveWithClient(client, "bucket").EnsureBucket(ctx))
	})

	t.Run("other head errors are returned", func(t *testing.T) {
		client := new(mockS3)
		client.On("HeadBucket", ctx, mock.Anything).Return(nil, errors.New("forbidden"))

		err := NewS3WebhookArchiveWithClient(client, "bucket").EnsureBucket(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check bucket existence")
	})
}

func TestNoopWebhookArchive(t *testing.T) {
	assert.NoError(t, NewNoopWebhookArchive().Archive(context.Background(), newTestEvent()))
}
