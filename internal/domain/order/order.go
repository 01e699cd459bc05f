package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
)

// Status represents the lifecycle status of a storefront order.
// Transitions other than fulfillment belong to the order lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusFulfilled  Status = "fulfilled"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// IsFulfillable reports whether items may be fulfilled in this status
func (s Status) IsFulfillable() bool {
	return s == StatusProcessing || s == StatusShipped
}

// IsTerminal reports whether the order can no longer change
func (s Status) IsTerminal() bool {
	return s == StatusFulfilled || s == StatusCancelled
}

// Item is one order line
type Item struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// Order is the read model of a storefront order
type Order struct {
	ID          uuid.UUID
	OrderNumber string
	Status      Status
	Items       []Item
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemByID looks up an order line
func (o *Order) ItemByID(itemID uuid.UUID) (*Item, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// EnsureReservable rejects orders that can no longer hold stock
func (o *Order) EnsureReservable() error {
	if o.Status.IsTerminal() {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot reserve stock for order in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.NewValidationError("Order has no line items")
	}
	return nil
}

// EnsureFulfillable rejects orders that are not processing or shipped
func (o *Order) EnsureFulfillable() error {
	if !o.Status.IsFulfillable() {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot fulfill order in %s status", o.Status))
	}
	return nil
}

// MarkFulfilled moves the order to fulfilled and returns the recorded transition
func (o *Order) MarkFulfilled(actor, notes string) (*StatusChange, error) {
	if err := o.EnsureFulfillable(); err != nil {
		return nil, err
	}
	change := &StatusChange{
		ID:         uuid.New(),
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   StatusFulfilled,
		Actor:      actor,
		Notes:      notes,
		Timestamp:  time.Now(),
	}
	o.Status = StatusFulfilled
	o.UpdatedAt = change.Timestamp
	return change, nil
}

// StatusChange records an order status transition
type StatusChange struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	FromStatus Status
	ToStatus   Status
	Actor      string
	Notes      string
	Timestamp  time.Time
}
