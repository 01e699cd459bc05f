package event

import (
	"context"

	"github.com/handmade/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventLogHandler writes every published event to the log as JSON
type EventLogHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewEventLogHandler creates a wildcard handler logging through logger
func NewEventLogHandler(serializer *EventSerializer, logger *zap.Logger) *EventLogHandler {
	return &EventLogHandler{serializer: serializer, logger: logger}
}

// EventTypes subscribes to everything
func (h *EventLogHandler) EventTypes() []string { return nil }

// Handle logs the event payload
func (h *EventLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}
	h.logger.Info("Domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.ByteString("payload", payload),
	)
	return nil
}

var _ shared.EventHandler = (*EventLogHandler)(nil)
