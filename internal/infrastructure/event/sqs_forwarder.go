package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/shared"
)

// SQSSendAPI is the subset of the SQS client used by the forwarder
type SQSSendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSForwarder is a wildcard event handler that sends every event it
// receives to an SQS queue as an Envelope. FIFO queues are grouped by
// aggregate so events for one connection stay ordered.
type SQSForwarder struct {
	client     SQSSendAPI
	queueURL   string
	fifo       bool
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewSQSForwarder creates a forwarder for queueURL
func NewSQSForwarder(client SQSSendAPI, queueURL string, serializer *EventSerializer, logger *zap.Logger) *SQSForwarder {
	return &SQSForwarder{
		client:     client,
		queueURL:   queueURL,
		fifo:       strings.HasSuffix(queueURL, ".fifo"),
		serializer: serializer,
		logger:     logger,
	}
}

// NewSQSClient creates an SQS client from an AWS config
func NewSQSClient(cfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(cfg)
}

// EventTypes returns nil so the forwarder receives all events
func (f *SQSForwarder) EventTypes() []string {
	return nil
}

// Handle sends the event to the queue
func (f *SQSForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	env, err := f.serializer.Wrap(event)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(f.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type":  {DataType: aws.String("String"), StringValue: aws.String(env.Type)},
			"merchant_id": {DataType: aws.String("String"), StringValue: aws.String(env.MerchantID)},
		},
	}
	if f.fifo {
		input.MessageGroupId = aws.String(env.AggregateID.String())
		input.MessageDeduplicationId = aws.String(env.ID.String())
	}

	out, err := f.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send %s to SQS: %w", env.Type, err)
	}
	f.logger.Debug("Event forwarded",
		zap.String("event_type", env.Type),
		zap.String("event_id", env.ID.String()),
		zap.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}

var _ shared.EventHandler = (*SQSForwarder)(nil)
