package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReturnRecord is one processed customer return
type ReturnRecord struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Reason    string
	Actor     string
	Timestamp time.Time
}

// NewReturnRecord creates a return record
func NewReturnRecord(orderID, productID uuid.UUID, quantity int, reason, actor string) *ReturnRecord {
	return &ReturnRecord{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		Reason:    reason,
		Actor:     actor,
		Timestamp: time.Now(),
	}
}

// OrderRepository reads orders owned by the order lifecycle and
// records the fulfillment transition
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// UpdateStatus writes o.Status only if the stored status is still from
	UpdateStatus(ctx context.Context, o *Order, from Status) error
	AppendStatusChange(ctx context.Context, change *StatusChange) error
}

// ReservationRepository persists reservations with their fulfillment lines
type ReservationRepository interface {
	// FindByOrderID returns shared.ErrNotFound when the order was never reserved
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Reservation, error)
	// Save inserts a new reservation or updates an existing one guarded by version
	Save(ctx context.Context, r *Reservation) error
}

// ReturnRepository appends return records
type ReturnRepository interface {
	Append(ctx context.Context, rec *ReturnRecord) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ReturnRecord, error)
}
