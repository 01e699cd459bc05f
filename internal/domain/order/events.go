package order

import (
	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
)

// AggregateTypeReservation is the aggregate type for order reservations
const AggregateTypeReservation = "OrderReservation"

// EventTypeOrderFulfilled is raised when the last line is fully fulfilled
const EventTypeOrderFulfilled = "order.fulfilled"

// OrderFulfilledEvent is raised when every line of an order is fulfilled
type OrderFulfilledEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	LineCount int       `json:"line_count"`
}

// NewOrderFulfilledEvent creates an OrderFulfilledEvent
func NewOrderFulfilledEvent(r *Reservation) *OrderFulfilledEvent {
	return &OrderFulfilledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderFulfilled, AggregateTypeReservation, r.ID),
		OrderID:         r.OrderID,
		LineCount:       len(r.Lines),
	}
}
