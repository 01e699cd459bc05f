package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
)

// ReservationState is the order-level stock reservation state
type ReservationState string

const (
	ReservationUnreserved ReservationState = "unreserved"
	ReservationReserved   ReservationState = "reserved"
	ReservationFulfilled  ReservationState = "fulfilled"
)

// LineStatus is the derived fulfillment status of one line
type LineStatus string

const (
	LineUnfulfilled        LineStatus = "unfulfilled"
	LinePartiallyFulfilled LineStatus = "partially_fulfilled"
	LineFulfilled          LineStatus = "fulfilled"
)

// FulfillmentLine is the fulfillment record of one order item
type FulfillmentLine struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	OrderItemID       uuid.UUID
	ProductID         uuid.UUID
	OrderedQuantity   int
	ReservedQuantity  int
	FulfilledQuantity int
	ReturnedQuantity  int
	LastMethod        string
	UpdatedAt         time.Time
}

// Remaining returns how much of the line is still to be fulfilled
func (l *FulfillmentLine) Remaining() int {
	if r := l.OrderedQuantity - l.FulfilledQuantity; r > 0 {
		return r
	}
	return 0
}

// Status derives the line status from ordered and fulfilled quantities
func (l *FulfillmentLine) Status() LineStatus {
	switch {
	case l.FulfilledQuantity >= l.OrderedQuantity:
		return LineFulfilled
	case l.FulfilledQuantity > 0:
		return LinePartiallyFulfilled
	default:
		return LineUnfulfilled
	}
}

// Returnable returns fulfilled minus already returned
func (l *FulfillmentLine) Returnable() int {
	return l.FulfilledQuantity - l.ReturnedQuantity
}

// Reservation tracks stock held for one order and its fulfillment lines
type Reservation struct {
	shared.BaseAggregateRoot
	OrderID     uuid.UUID
	State       ReservationState
	Lines       []FulfillmentLine
	ReservedAt  *time.Time
	ReleasedAt  *time.Time
	FulfilledAt *time.Time

	persisted bool
}

// NewReservation creates an unreserved reservation with one line per order item
func NewReservation(o *Order) *Reservation {
	r := &Reservation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           o.ID,
		State:             ReservationUnreserved,
		Lines:             make([]FulfillmentLine, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		r.Lines = append(r.Lines, FulfillmentLine{
			ID:              uuid.New(),
			OrderID:         o.ID,
			OrderItemID:     item.ID,
			ProductID:       item.ProductID,
			OrderedQuantity: item.Quantity,
			UpdatedAt:       r.CreatedAt,
		})
	}
	return r
}

// IsPersisted reports whether the reservation was loaded from or written to storage
func (r *Reservation) IsPersisted() bool {
	return r.persisted
}

// MarkPersisted is called by the repository after a load or insert
func (r *Reservation) MarkPersisted() {
	r.persisted = true
}

// LineByItem finds the line of an order item
func (r *Reservation) LineByItem(orderItemID uuid.UUID) (*FulfillmentLine, bool) {
	for i := range r.Lines {
		if r.Lines[i].OrderItemID == orderItemID {
			return &r.Lines[i], true
		}
	}
	return nil, false
}

// OverallStatus is fulfilled iff every line is fulfilled
func (r *Reservation) OverallStatus() LineStatus {
	if len(r.Lines) == 0 {
		return LineUnfulfilled
	}
	some, all := false, true
	for i := range r.Lines {
		switch r.Lines[i].Status() {
		case LineFulfilled:
			some = true
		case LinePartiallyFulfilled:
			some = true
			all = false
		default:
			all = false
		}
	}
	switch {
	case all:
		return LineFulfilled
	case some:
		return LinePartiallyFulfilled
	default:
		return LineUnfulfilled
	}
}

// ReservationRequest is the quantity to hold for one line
type ReservationRequest struct {
	OrderItemID uuid.UUID
	ProductID   uuid.UUID
	Quantity    int
}

// PlanReserve returns the per-line quantities a reserve would hold.
// Lines already fulfilled are skipped.
func (r *Reservation) PlanReserve() ([]ReservationRequest, error) {
	if r.State != ReservationUnreserved {
		return nil, shared.NewInvalidStateError(fmt.Sprintf("Order reservation is already %s", r.State))
	}
	plan := make([]ReservationRequest, 0, len(r.Lines))
	for i := range r.Lines {
		if q := r.Lines[i].Remaining(); q > 0 {
			plan = append(plan, ReservationRequest{
				OrderItemID: r.Lines[i].OrderItemID,
				ProductID:   r.Lines[i].ProductID,
				Quantity:    q,
			})
		}
	}
	if len(plan) == 0 {
		return nil, shared.NewInvalidStateError("Order has nothing left to reserve")
	}
	return plan, nil
}

// MarkReserved records that every planned line now holds its remainder
func (r *Reservation) MarkReserved() {
	now := time.Now()
	for i := range r.Lines {
		r.Lines[i].ReservedQuantity = r.Lines[i].Remaining()
		r.Lines[i].UpdatedAt = now
	}
	r.State = ReservationReserved
	r.ReservedAt = &now
	r.UpdatedAt = now
}

// PlanRelease returns the lines that still hold stock
func (r *Reservation) PlanRelease() []ReservationRequest {
	plan := make([]ReservationRequest, 0, len(r.Lines))
	for i := range r.Lines {
		if r.Lines[i].ReservedQuantity > 0 {
			plan = append(plan, ReservationRequest{
				OrderItemID: r.Lines[i].OrderItemID,
				ProductID:   r.Lines[i].ProductID,
				Quantity:    r.Lines[i].ReservedQuantity,
			})
		}
	}
	return plan
}

// MarkReleased drops every held quantity. A fully fulfilled reservation
// keeps its fulfilled state.
func (r *Reservation) MarkReleased() {
	now := time.Now()
	for i := range r.Lines {
		if r.Lines[i].ReservedQuantity > 0 {
			r.Lines[i].ReservedQuantity = 0
			r.Lines[i].UpdatedAt = now
		}
	}
	if r.OverallStatus() != LineFulfilled {
		r.State = ReservationUnreserved
	}
	r.ReleasedAt = &now
	r.UpdatedAt = now
}

// Fulfill consumes quantity from a reserved line. It returns the line and
// whether this call completed the whole order.
func (r *Reservation) Fulfill(orderItemID uuid.UUID, quantity int, method string) (*FulfillmentLine, bool, error) {
	if quantity <= 0 {
		return nil, false, shared.NewValidationError("fulfilled_quantity must be positive")
	}
	line, ok := r.LineByItem(orderItemID)
	if !ok {
		return nil, false, shared.NewNotFoundError(fmt.Sprintf("Order item %s not found in order %s", orderItemID, r.OrderID))
	}
	if r.State != ReservationReserved {
		return nil, false, shared.NewInvalidStateError(fmt.Sprintf("Cannot fulfill while reservation is %s", r.State))
	}
	if quantity > line.Remaining() {
		return nil, false, shared.NewValidationError(fmt.Sprintf(
			"fulfilled_quantity %d exceeds remaining quantity %d", quantity, line.Remaining()))
	}
	if quantity > line.ReservedQuantity {
		return nil, false, shared.NewInvalidStateError(fmt.Sprintf(
			"fulfilled_quantity %d exceeds reserved quantity %d", quantity, line.ReservedQuantity))
	}

	now := time.Now()
	line.FulfilledQuantity += quantity
	line.ReservedQuantity -= quantity
	line.LastMethod = method
	line.UpdatedAt = now
	r.UpdatedAt = now

	if r.OverallStatus() == LineFulfilled {
		r.State = ReservationFulfilled
		r.FulfilledAt = &now
		r.AddDomainEvent(NewOrderFulfilledEvent(r))
		return line, true, nil
	}
	return line, false, nil
}

// Returnable sums fulfilled minus returned across the lines of a product.
// ok is false when the product was never fulfilled on this order.
func (r *Reservation) Returnable(productID uuid.UUID) (int, bool) {
	total, fulfilled := 0, false
	for i := range r.Lines {
		if r.Lines[i].ProductID != productID || r.Lines[i].FulfilledQuantity == 0 {
			continue
		}
		fulfilled = true
		total += r.Lines[i].Returnable()
	}
	return total, fulfilled
}

// RecordReturn books a return against the fulfilled lines of a product
func (r *Reservation) RecordReturn(productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError("quantity must be positive")
	}
	returnable, ok := r.Returnable(productID)
	if !ok {
		return shared.NewNotFoundError(fmt.Sprintf("No fulfillment of product %s on order %s", productID, r.OrderID))
	}
	if quantity > returnable {
		return shared.NewValidationError(fmt.Sprintf(
			"return quantity %d exceeds returnable quantity %d", quantity, returnable))
	}

	now := time.Now()
	left := quantity
	for i := range r.Lines {
		if left == 0 {
			break
		}
		l := &r.Lines[i]
		if l.ProductID != productID {
			continue
		}
		take := min(left, l.Returnable())
		if take <= 0 {
			continue
		}
		l.ReturnedQuantity += take
		l.UpdatedAt = now
		left -= take
	}
	r.UpdatedAt = now
	return nil
}
