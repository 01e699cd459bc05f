package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
)

// EventRecorder captures domain events. It serves as the publisher handed
// to services and as a bus subscriber; an empty type list subscribes to
// every event.
type EventRecorder struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	err    error
}

// NewEventRecorder creates a recorder subscribed to eventTypes
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{types: eventTypes}
}

// Publish records events in order
func (r *EventRecorder) Publish(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return r.err
}

// Handle records one delivered event and returns the configured failure
func (r *EventRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	return r.Publish(ctx, event)
}

// EventTypes returns the subscribed types
func (r *EventRecorder) EventTypes() []string {
	return r.types
}

// FailWith makes later deliveries return err after recording
func (r *EventRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Events returns a copy of everything recorded
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.DomainEvent(nil), r.events...)
}

// OfType returns the recorded events of one type
func (r *EventRecorder) OfType(eventType string) []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range r.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events were recorded
func (r *EventRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// NewStockEvent builds a bare event of eventType raised by a random stock record
func NewStockEvent(eventType string) shared.DomainEvent {
	base := shared.NewBaseDomainEvent(eventType, inventory.AggregateTypeStockRecord, uuid.New())
	return &base
}
