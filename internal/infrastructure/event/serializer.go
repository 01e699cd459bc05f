package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/handmade/backend/internal/domain/shared"
)

// EventSerializer encodes domain events as JSON and decodes them back into
// their registered concrete types
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{types: make(map[string]reflect.Type)}
}

// Register binds eventType to the concrete type of prototype
func (s *EventSerializer) Register(eventType string, prototype shared.DomainEvent) {
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.Lock()
	s.types[eventType] = t
	s.mu.Unlock()
}

// Serialize encodes an event
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes data into a new instance of the type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.types[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event %s: %w", eventType, err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("type %s does not implement DomainEvent", t)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[eventType]
	return ok
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.types))
	for t := range s.types {
		out = append(out, t)
	}
	s.mu.RUnlock()
	slices.Sort(out)
	return out
}
