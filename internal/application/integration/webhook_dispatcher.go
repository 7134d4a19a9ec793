package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// WebhookHandler processes one verified delivery for a resolved connection
type WebhookHandler interface {
	Handle(ctx context.Context, conn *integration.Connection, event *integration.WebhookEvent) error
}

// WebhookHandlerFunc adapts a function to WebhookHandler
type WebhookHandlerFunc func(ctx context.Context, conn *integration.Connection, event *integration.WebhookEvent) error

// Handle calls f
func (f WebhookHandlerFunc) Handle(ctx context.Context, conn *integration.Connection, event *integration.WebhookEvent) error {
	return f(ctx, conn, event)
}

// WebhookOutcome is the terminal state of a delivery
type WebhookOutcome struct {
	State        integration.WebhookState
	ConnectionID uuid.UUID
}

type handlerKey struct {
	platform integration.PlatformType
	topic    string
}

// WebhookDispatcher authenticates inbound webhooks and routes them to the one
// handler registered for their platform and topic. It does not deduplicate;
// handlers are wrapped in IdempotentWebhookHandler for that.
type WebhookDispatcher struct {
	connections integration.ConnectionRepository
	clients     integration.PlatformClientResolver
	archive     integration.WebhookArchive
	events      shared.EventPublisher
	metrics     WebhookObserver
	logger      *zap.Logger

	mu       sync.RWMutex
	handlers map[handlerKey]WebhookHandler
}

// DispatcherOption configures a WebhookDispatcher
type DispatcherOption func(*WebhookDispatcher)

// WithWebhookArchive stores verified payloads before dispatch
func WithWebhookArchive(archive integration.WebhookArchive) DispatcherOption {
	return func(d *WebhookDispatcher) {
		d.archive = archive
	}
}

// WithWebhookObserver reports delivery outcomes
func WithWebhookObserver(o WebhookObserver) DispatcherOption {
	return func(d *WebhookDispatcher) {
		if o != nil {
			d.metrics = o
		}
	}
}

// NewWebhookDispatcher creates a dispatcher with no handlers registered
func NewWebhookDispatcher(
	connections integration.ConnectionRepository,
	clients integration.PlatformClientResolver,
	events shared.EventPublisher,
	logger *zap.Logger,
	opts ...DispatcherOption,
) *WebhookDispatcher {
	d := &WebhookDispatcher{
		connections: connections,
		clients:     clients,
		events:      events,
		metrics:     nopObserver{},
		logger:      logger,
		handlers:    make(map[handlerKey]WebhookHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register installs the handler for a platform topic. A topic has exactly one handler.
func (d *WebhookDispatcher) Register(platform integration.PlatformType, topic string, handler WebhookHandler) error {
	if handler == nil {
		return fmt.Errorf("integration: nil webhook handler for %s %s", platform, topic)
	}
	key := handlerKey{platform: platform, topic: topic}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[key]; exists {
		return fmt.Errorf("integration: webhook handler for %s %s already registered", platform, topic)
	}
	d.handlers[key] = handler
	return nil
}

// HasHandler reports whether a topic is routed
func (d *WebhookDispatcher) HasHandler(platform integration.PlatformType, topic string) bool {
	_, ok := d.handler(platform, topic)
	return ok
}

func (d *WebhookDispatcher) handler(platform integration.PlatformType, topic string) (WebhookHandler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[handlerKey{platform: platform, topic: topic}]
	return h, ok
}

// Handle verifies the delivery's HMAC and dispatches it. A REJECTED outcome
// comes with *InvalidSignatureError, HANDLER_FAILED with the handler's error.
func (d *WebhookDispatcher) Handle(ctx context.Context, event *integration.WebhookEvent) (WebhookOutcome, error) {
	return d.dispatch(ctx, event, true)
}

// HandleTrusted dispatches a delivery whose transport already authenticated
// the sender, such as Shopify's EventBridge source. An unknown shop is
// UNHANDLED rather than rejected.
func (d *WebhookDispatcher) HandleTrusted(ctx context.Context, event *integration.WebhookEvent) (WebhookOutcome, error) {
	return d.dispatch(ctx, event, false)
}

func (d *WebhookDispatcher) dispatch(ctx context.Context, event *integration.WebhookEvent, verify bool) (outcome WebhookOutcome, err error) {
	ctx, span := tracer.Start(ctx, "webhook.dispatch")
	defer span.End()

	event.ShopIdentity = normalizeIdentity(event.Platform, event.ShopIdentity)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPlatform, event.Platform.String(),
		telemetry.SpanAttrTopic, event.Topic,
		telemetry.SpanAttrDeliveryID, event.DeliveryID,
	)

	eventFields := []zap.Field{
		zap.String("platform", event.Platform.String()),
		zap.String("topic", event.Topic),
		zap.String("shop", event.ShopIdentity),
		zap.String("delivery_id", event.DeliveryID),
	}
	log := logger.Enrich(ctx, d.logger).With(eventFields...)

	var conn *integration.Connection
	defer func() {
		telemetry.SetAttributes(span, telemetry.SpanAttrWebhookResult, outcome.State.String())
		if err != nil {
			telemetry.RecordError(span, err)
		}
		d.metrics.ObserveWebhook(event.Platform.String(), d.metricTopic(event), outcome.State.String())
		if conn != nil {
			publishEvents(ctx, d.events, d.logger, integration.NewWebhookReceivedEvent(conn, event.Topic, outcome.State))
		}
	}()

	// RECEIVED
	conn, err = d.connections.FindByIdentity(ctx, event.Platform, event.ShopIdentity)
	switch {
	case errors.Is(err, integration.ErrCredentialsNotFound) && verify:
		log.Warn("Webhook rejected: unknown shop")
		return WebhookOutcome{State: integration.WebhookStateRejected},
			&integration.InvalidSignatureError{Platform: event.Platform, Topic: event.Topic, Reason: "unknown shop"}
	case errors.Is(err, integration.ErrCredentialsNotFound):
		log.Warn("Trusted webhook for unknown shop ignored")
		return WebhookOutcome{State: integration.WebhookStateUnhandled}, nil
	case err != nil:
		log.Error("Failed to resolve webhook connection", zap.Error(err))
		return WebhookOutcome{State: integration.WebhookStateHandlerFailed}, err
	}
	outcome.ConnectionID = conn.ID
	ctx = withConnection(ctx, conn)
	log = logger.Enrich(ctx, d.logger).With(eventFields...)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrConnectionID, conn.ID.String(),
		telemetry.SpanAttrMerchantID, conn.MerchantID,
	)

	if verify {
		if reason := d.verify(conn, event); reason != "" {
			log.Warn("Webhook rejected", zap.String("reason", reason))
			outcome.State = integration.WebhookStateRejected
			// nothing is published for an unauthenticated delivery
			conn = nil
			return outcome, &integration.InvalidSignatureError{Platform: event.Platform, Topic: event.Topic, Reason: reason}
		}
	}

	// VERIFIED
	event.Bind(conn)
	d.archivePayload(ctx, event, log)

	if !conn.IsActive() {
		log.Warn("Webhook for disconnected store ignored")
		outcome.State = integration.WebhookStateUnhandled
		return outcome, nil
	}
	handler, ok := d.handler(event.Platform, event.Topic)
	if !ok {
		log.Warn("No handler for webhook topic")
		outcome.State = integration.WebhookStateUnhandled
		return outcome, nil
	}

	// DISPATCHED
	telemetry.WithProfilingLabels(ctx, webhookLabels(event), func(ctx context.Context) {
		err = handler.Handle(ctx, conn, event)
	})
	if err != nil {
		log.Error("Webhook handler failed", zap.Error(err))
		outcome.State = integration.WebhookStateHandlerFailed
		return outcome, err
	}
	outcome.State = integration.WebhookStateHandled
	return outcome, nil
}

// verify returns an empty string when the signature matches
func (d *WebhookDispatcher) verify(conn *integration.Connection, event *integration.WebhookEvent) string {
	if event.Signature == "" {
		return "missing signature"
	}
	client, err := d.clients.Client(event.Platform)
	if err != nil {
		return "unsupported platform"
	}
	if !client.VerifyWebhookSignature(conn.Credentials, event.Payload, event.Signature) {
		return "signature mismatch"
	}
	return ""
}

func (d *WebhookDispatcher) archivePayload(ctx context.Context, event *integration.WebhookEvent, log *zap.Logger) {
	if d.archive == nil {
		return
	}
	if err := d.archive.Archive(ctx, event); err != nil {
		log.Warn("Failed to archive webhook payload", zap.Error(err))
	}
}

// metricTopic keeps the topic label bounded to routed topics
func (d *WebhookDispatcher) metricTopic(event *integration.WebhookEvent) string {
	if d.HasHandler(event.Platform, event.Topic) {
		return event.Topic
	}
	return "other"
}

func webhookLabels(event *integration.WebhookEvent) map[string]string {
	labels := telemetry.SyncLabels(event.Platform.String(), "webhook")
	labels[telemetry.ProfilingLabelTopic] = event.Topic
	return labels
}
