package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/shared"
)

// ErrUnregisteredEvent is returned when wrapping an event type that was never
// registered; only registered types are published downstream
var ErrUnregisteredEvent = errors.New("event: type not registered for publishing")

// Envelope is the wire form of a domain event sent to downstream queues
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	MerchantID    string          `json:"merchant_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// EventSerializer turns domain events into envelopes for the event types
// registered with it
type EventSerializer struct {
	mu         sync.RWMutex
	registered map[string]struct{}
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registered: make(map[string]struct{}),
	}
}

// Register allows eventType to be published
func (s *EventSerializer) Register(eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered[eventType] = struct{}{}
}

// Serialize serializes a domain event to JSON bytes
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Wrap builds the envelope for a registered event
func (s *EventSerializer) Wrap(event shared.DomainEvent) (*Envelope, error) {
	if !s.IsRegistered(event.EventType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredEvent, event.EventType())
	}
	payload, err := s.Serialize(event)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event: %w", err)
	}
	return &Envelope{
		ID:            event.EventID(),
		Type:          event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		MerchantID:    event.MerchantID(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	}, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registered[eventType]
	return ok
}

// RegisteredTypes returns all registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registered))
	for t := range s.registered {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
