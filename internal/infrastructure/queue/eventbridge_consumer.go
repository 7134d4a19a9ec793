// Package queue consumes Shopify webhooks delivered through Amazon
// EventBridge into an SQS queue.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	integrationapp "github.com/marketplace/backend/internal/application/integration"
	"github.com/marketplace/backend/internal/domain/integration"
)

const (
	// DefaultWaitSeconds is the SQS long-poll duration
	DefaultWaitSeconds int32 = 20
	// DefaultMaxMessages is the SQS receive batch size
	DefaultMaxMessages int32 = 10
	// DefaultRetryDelay is the pause after a failed receive
	DefaultRetryDelay = 5 * time.Second
)

// ErrMalformedEnvelope is returned for a message that is not a Shopify EventBridge event
var ErrMalformedEnvelope = errors.New("queue: malformed EventBridge envelope")

// SQSAPI is the subset of the SQS client used by the consumer
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// TrustedDispatcher routes a webhook whose transport already authenticated it
type TrustedDispatcher interface {
	HandleTrusted(ctx context.Context, event *integration.WebhookEvent) (integrationapp.WebhookOutcome, error)
}

// eventBridgeEnvelope is the EventBridge event wrapping a Shopify webhook
type eventBridgeEnvelope struct {
	ID         string `json:"id"`
	DetailType string `json:"detail-type"`
	Source     string `json:"source"`
	Time       string `json:"time"`
	Detail     struct {
		Payload  json.RawMessage `json:"payload"`
		Metadata struct {
			Topic       string `json:"X-Shopify-Topic"`
			ShopDomain  string `json:"X-Shopify-Shop-Domain"`
			WebhookID   string `json:"X-Shopify-Webhook-Id"`
			TriggeredAt string `json:"X-Shopify-Triggered-At"`
		} `json:"metadata"`
	} `json:"detail"`
}

// ConsumerConfig tunes the receive loop
type ConsumerConfig struct {
	QueueURL    string
	WaitSeconds int32
	MaxMessages int32
	RetryDelay  time.Duration
}

// ShopifyEventBridgeConsumer long-polls an SQS queue fed by a Shopify
// EventBridge partner event source and dispatches each webhook.
// A message is deleted once its outcome is final (HANDLED or UNHANDLED);
// anything else stays on the queue for redelivery.
type ShopifyEventBridgeConsumer struct {
	client     SQSAPI
	dispatcher TrustedDispatcher
	config     ConsumerConfig
	now        func() time.Time
	logger     *zap.Logger
}

// NewShopifyEventBridgeConsumer creates a consumer
func NewShopifyEventBridgeConsumer(client SQSAPI, dispatcher TrustedDispatcher, cfg ConsumerConfig, logger *zap.Logger) *ShopifyEventBridgeConsumer {
	if cfg.WaitSeconds <= 0 {
		cfg.WaitSeconds = DefaultWaitSeconds
	}
	if cfg.MaxMessages <= 0 || cfg.MaxMessages > 10 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &ShopifyEventBridgeConsumer{
		client:     client,
		dispatcher: dispatcher,
		config:     cfg,
		now:        time.Now,
		logger:     logger.With(zap.String("queue_url", cfg.QueueURL)),
	}
}

// Run receives messages until ctx is cancelled
func (c *ShopifyEventBridgeConsumer) Run(ctx context.Context) error {
	c.logger.Info("EventBridge consumer started")
	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("EventBridge consumer stopped")
			return nil
		}

		if _, err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Warn("Failed to receive from SQS", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(c.config.RetryDelay):
			}
		}
	}
}

// Poll receives one batch and processes it. It returns the number of
// messages deleted.
func (c *ShopifyEventBridgeConsumer) Poll(ctx context.Context) (int, error) {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.config.QueueURL),
		MaxNumberOfMessages: c.config.MaxMessages,
		WaitTimeSeconds:     c.config.WaitSeconds,
	})
	if err != nil {
		return 0, fmt.Errorf("receive message: %w", err)
	}

	deleted := 0
	for i := range out.Messages {
		if c.process(ctx, &out.Messages[i]) {
			deleted++
		}
	}
	return deleted, nil
}

// process dispatches one message and reports whether it was deleted
func (c *ShopifyEventBridgeConsumer) process(ctx context.Context, msg *types.Message) bool {
	log := c.logger.With(zap.String("message_id", aws.ToString(msg.MessageId)))

	event, err := c.decode(aws.ToString(msg.Body))
	if err != nil {
		// left for the queue's redrive policy
		log.Error("Undecodable EventBridge message", zap.Error(err))
		return false
	}
	log = log.With(
		zap.String("topic", event.Topic),
		zap.String("shop", event.ShopIdentity),
		zap.String("delivery_id", event.DeliveryID),
	)

	outcome, err := c.dispatcher.HandleTrusted(ctx, event)
	switch outcome.State {
	case integration.WebhookStateHandled, integration.WebhookStateUnhandled:
	default:
		log.Warn("Webhook not processed, leaving message for redelivery",
			zap.String("state", string(outcome.State)),
			zap.Error(err),
		)
		return false
	}

	if _, err := c.client.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.config.QueueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		log.Warn("Failed to delete processed message", zap.Error(err))
		return false
	}
	log.Debug("Webhook processed", zap.String("state", string(outcome.State)))
	return true
}

// decode unwraps the EventBridge envelope into a webhook event
func (c *ShopifyEventBridgeConsumer) decode(body string) (*integration.WebhookEvent, error) {
	var env eventBridgeEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	meta := env.Detail.Metadata
	if meta.Topic == "" || meta.ShopDomain == "" {
		return nil, fmt.Errorf("%w: missing topic or shop domain", ErrMalformedEnvelope)
	}
	if len(env.Detail.Payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrMalformedEnvelope)
	}

	deliveryID := meta.WebhookID
	if deliveryID == "" {
		deliveryID = env.ID
	}

	received := c.now().UTC()
	if t, err := time.Parse(time.RFC3339, env.Time); err == nil {
		received = t.UTC()
	}

	return &integration.WebhookEvent{
		Platform:     integration.PlatformShopify,
		Topic:        meta.Topic,
		ShopIdentity: meta.ShopDomain,
		DeliveryID:   deliveryID,
		Payload:      []byte(env.Detail.Payload),
		ReceivedAt:   received,
	}, nil
}
