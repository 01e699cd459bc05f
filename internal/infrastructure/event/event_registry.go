package event

import (
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/order"
)

// RegisterInventoryEvents registers every event the inventory core raises
func RegisterInventoryEvents(serializer *EventSerializer) {
	for _, eventType := range []string{
		inventory.EventTypeStockReserved,
		inventory.EventTypeStockReleased,
		inventory.EventTypeStockFulfilled,
		inventory.EventTypeStockReturned,
		inventory.EventTypeStockAdjusted,
	} {
		serializer.Register(eventType, &inventory.StockMutatedEvent{})
	}
	serializer.Register(inventory.EventTypeLowStockDetected, &inventory.LowStockDetectedEvent{})
	serializer.Register(inventory.EventTypeStockRecordCreate, &inventory.StockRecordCreatedEvent{})
	serializer.Register(order.EventTypeOrderFulfilled, &order.OrderFulfilledEvent{})
}
