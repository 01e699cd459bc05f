package inventory

import (
	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
)

// AggregateTypeStockRecord is the aggregate type for stock ledger events
const AggregateTypeStockRecord = "StockRecord"

// Event type constants
const (
	EventTypeStockReserved     = "inventory.stock_reserved"
	EventTypeStockReleased     = "inventory.stock_released"
	EventTypeStockFulfilled    = "inventory.stock_fulfilled"
	EventTypeStockReturned     = "inventory.stock_returned"
	EventTypeStockAdjusted     = "inventory.stock_adjusted"
	EventTypeLowStockDetected  = "inventory.low_stock_detected"
	EventTypeStockRecordCreate = "inventory.stock_record_created"
)

// eventTypeFor maps an audit operation to the event it raises
func eventTypeFor(op OperationType) string {
	switch op {
	case OperationReservation:
		return EventTypeStockReserved
	case OperationRelease:
		return EventTypeStockReleased
	case OperationFulfillment:
		return EventTypeStockFulfilled
	case OperationReturnProcessing:
		return EventTypeStockReturned
	default:
		return EventTypeStockAdjusted
	}
}

// MutationEventData describes a committed ledger mutation
type MutationEventData struct {
	Operation     OperationType
	Before        StockSnapshot
	After         StockSnapshot
	PhysicalDelta int
	ReservedDelta int
	OrderID       *uuid.UUID
	Actor         string
}

// StockMutatedEvent is raised after every committed ledger mutation
type StockMutatedEvent struct {
	shared.BaseDomainEvent
	StockRecordID uuid.UUID     `json:"stock_record_id"`
	ProductID     uuid.UUID     `json:"product_id"`
	Operation     OperationType `json:"operation"`
	Before        StockSnapshot `json:"before"`
	After         StockSnapshot `json:"after"`
	PhysicalDelta int           `json:"physical_delta"`
	ReservedDelta int           `json:"reserved_delta"`
	OrderID       *uuid.UUID    `json:"order_id,omitempty"`
	Actor         string        `json:"actor"`
	Version       int64         `json:"version"`
}

// NewStockMutatedEvent creates a StockMutatedEvent typed by its operation
func NewStockMutatedEvent(r *StockRecord, m MutationEventData) *StockMutatedEvent {
	return &StockMutatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventTypeFor(m.Operation), AggregateTypeStockRecord, r.ID),
		StockRecordID:   r.ID,
		ProductID:       r.ProductID,
		Operation:       m.Operation,
		Before:          m.Before,
		After:           m.After,
		PhysicalDelta:   m.PhysicalDelta,
		ReservedDelta:   m.ReservedDelta,
		OrderID:         m.OrderID,
		Actor:           m.Actor,
		Version:         r.Version,
	}
}

// LowStockDetectedEvent is raised when available stock drops to the reorder point
type LowStockDetectedEvent struct {
	shared.BaseDomainEvent
	StockRecordID  uuid.UUID `json:"stock_record_id"`
	ProductID      uuid.UUID `json:"product_id"`
	AvailableStock int       `json:"available_stock"`
	ReorderPoint   int       `json:"reorder_point"`
	Version        int64     `json:"version"`
}

// NewLowStockDetectedEvent creates a LowStockDetectedEvent
func NewLowStockDetectedEvent(r *StockRecord, available, reorderPoint int) *LowStockDetectedEvent {
	return &LowStockDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStockDetected, AggregateTypeStockRecord, r.ID),
		StockRecordID:   r.ID,
		ProductID:       r.ProductID,
		AvailableStock:  available,
		ReorderPoint:    reorderPoint,
		Version:         r.Version,
	}
}

// StockRecordCreatedEvent is raised when a product enters the ledger
type StockRecordCreatedEvent struct {
	shared.BaseDomainEvent
	StockRecordID uuid.UUID `json:"stock_record_id"`
	ProductID     uuid.UUID `json:"product_id"`
	PhysicalStock int       `json:"physical_stock"`
}

// NewStockRecordCreatedEvent creates a StockRecordCreatedEvent
func NewStockRecordCreatedEvent(r *StockRecord) *StockRecordCreatedEvent {
	return &StockRecordCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRecordCreate, AggregateTypeStockRecord, r.ID),
		StockRecordID:   r.ID,
		ProductID:       r.ProductID,
		PhysicalStock:   r.PhysicalStock,
	}
}
