package event

import "github.com/marketplace/backend/internal/domain/integration"

// RegisterIntegrationEvents registers every integration event type that is
// published to downstream consumers
func RegisterIntegrationEvents(serializer *EventSerializer) {
	for _, t := range []string{
		integration.EventTypeSyncStarted,
		integration.EventTypeSyncCompleted,
		integration.EventTypeProductImported,
		integration.EventTypeProductRemoved,
		integration.EventTypeOrderImported,
		integration.EventTypeWebhookReceived,
	} {
		serializer.Register(t)
	}
}
