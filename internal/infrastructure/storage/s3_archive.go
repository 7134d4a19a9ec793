// Package storage keeps verified webhook payloads in object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/awsconfig"
	infraconfig "github.com/marketplace/backend/internal/infrastructure/config"
)

// DefaultPrefix is the key prefix used when none is configured
const DefaultPrefix = "webhooks"

// S3API is the subset of the S3 client used by the archive
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Ensure S3WebhookArchive implements WebhookArchive
var _ integration.WebhookArchive = (*S3WebhookArchive)(nil)

// S3WebhookArchive stores raw webhook bodies in an S3 bucket.
// It works with any S3-compatible store (AWS S3, MinIO, RustFS).
type S3WebhookArchive struct {
	client S3API
	bucket string
	prefix string
	logger *zap.Logger
}

// S3WebhookArchiveOption is a functional option for configuring S3WebhookArchive
type S3WebhookArchiveOption func(*S3WebhookArchive)

// WithLogger sets a custom logger for S3WebhookArchive
func WithLogger(logger *zap.Logger) S3WebhookArchiveOption {
	return func(a *S3WebhookArchive) {
		a.logger = logger
	}
}

// WithPrefix overrides the object key prefix
func WithPrefix(prefix string) S3WebhookArchiveOption {
	return func(a *S3WebhookArchive) {
		a.prefix = strings.Trim(prefix, "/")
	}
}

// NewS3WebhookArchive creates an archive from configuration
func NewS3WebhookArchive(ctx context.Context, cfg *infraconfig.ArchiveConfig, opts ...S3WebhookArchiveOption) (*S3WebhookArchive, error) {
	if cfg == nil {
		return nil, errors.New("archive configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.Load(ctx, awsconfig.Options{
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	if cfg.Prefix != "" {
		opts = append([]S3WebhookArchiveOption{WithPrefix(cfg.Prefix)}, opts...)
	}
	return NewS3WebhookArchiveWithClient(client, cfg.Bucket, opts...), nil
}

// NewS3WebhookArchiveWithClient creates an archive around an existing client
func NewS3WebhookArchiveWithClient(client S3API, bucket string, opts ...S3WebhookArchiveOption) *S3WebhookArchive {
	archive := &S3WebhookArchive{
		client: client,
		bucket: bucket,
		prefix: DefaultPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive
}

// normalizeEndpoint returns "" for the AWS default endpoint and adds a
// scheme to bare host:port values
func normalizeEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid archive endpoint: %w", err)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup.
func (a *S3WebhookArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating webhook archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Key returns the object key for an event:
// prefix/platform/yyyy/mm/dd/delivery.json
func (a *S3WebhookArchive) Key(event *integration.WebhookEvent) string {
	received := event.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	name := event.DeliveryID
	if name == "" {
		name = uuid.NewString()
	}
	name = strings.ReplaceAll(name, "/", "_")
	return path.Join(
		a.prefix,
		strings.ToLower(event.Platform.String()),
		received.UTC().Format("2006/01/02"),
		name+".json",
	)
}

// Archive uploads the raw payload. The signature header is not stored.
func (a *S3WebhookArchive) Archive(ctx context.Context, event *integration.WebhookEvent) error {
	if event == nil {
		return errors.New("webhook event is required")
	}
	key := a.Key(event)

	metadata := map[string]string{
		"topic": event.Topic,
		"shop":  event.ShopIdentity,
	}
	if event.ConnectionID != uuid.Nil {
		metadata["connection-id"] = event.ConnectionID.String()
	}
	if event.MerchantID != "" {
		metadata["merchant-id"] = event.MerchantID
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(event.Payload),
		ContentType: aws.String("application/json"),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to archive webhook %s: %w", key, err)
	}

	a.logger.Debug("Webhook archived",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.String("topic", event.Topic),
	)
	return nil
}

// Bucket returns the bucket name
func (a *S3WebhookArchive) Bucket() string {
	return a.bucket
}
