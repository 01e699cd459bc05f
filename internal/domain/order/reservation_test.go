package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(status Status, quantities ...int) *Order {
	o := &Order{ID: uuid.New(), OrderNumber: "HM-1001", Status: status}
	for _, q := range quantities {
		o.Items = append(o.Items, Item{ID: uuid.New(), OrderID: o.ID, ProductID: uuid.New(), Quantity: q})
	}
	return o
}

func TestReservation_ReserveAndRelease(t *testing.T) {
	o := newTestOrder(StatusProcessing, 2, 3)
	r := NewReservation(o)
	assert.Equal(t, ReservationUnreserved, r.State)

	plan, err := r.PlanReserve()
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, 2, plan[0].Quantity)
	assert.Equal(t, 3, plan[1].Quantity)

	r.MarkReserved()
	assert.Equal(t, ReservationReserved, r.State)
	assert.Equal(t, 3, r.Lines[1].ReservedQuantity)

	t.Run("cannot reserve twice", func(t *testing.T) {
		_, err := r.PlanReserve()
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	release := r.PlanRelease()
	require.Len(t, release, 2)
	r.MarkReleased()
	assert.Equal(t, ReservationUnreserved, r.State)
	assert.Empty(t, r.PlanRelease())
}

func TestReservation_Fulfill(t *testing.T) {
	t.Run("partial then full completes order", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, 4)
		r := NewReservation(o)
		r.MarkReserved()
		itemID := o.Items[0].ID

		line, done, err := r.Fulfill(itemID, 1, "courier")
		require.NoError(t, err)
		assert.False(t, done)
		assert.Equal(t, LinePartiallyFulfilled, line.Status())
		assert.Equal(t, 3, line.ReservedQuantity)

		line, done, err = r.Fulfill(itemID, 3, "courier")
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, LineFulfilled, line.Status())
		assert.Equal(t, ReservationFulfilled, r.State)
		assert.Equal(t, LineFulfilled, r.OverallStatus())
		require.Len(t, r.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeOrderFulfilled, r.GetDomainEvents()[0].EventType())
	})

	t.Run("over fulfillment is a validation error", func(t *testing.T) {
		o := newTestOrder(StatusShipped, 2)
		r := NewReservation(o)
		r.MarkReserved()
		_, _, err := r.Fulfill(o.Items[0].ID, 3, "pickup")
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, 0, r.Lines[0].FulfilledQuantity)
	})

	t.Run("unreserved order is invalid state", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, 2)
		r := NewReservation(o)
		_, _, err := r.Fulfill(o.Items[0].ID, 1, "pickup")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unknown item is not found", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, 2)
		r := NewReservation(o)
		r.MarkReserved()
		_, _, err := r.Fulfill(uuid.New(), 1, "pickup")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("release after partial fulfillment frees the remainder", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, 5)
		r := NewReservation(o)
		r.MarkReserved()
		_, _, err := r.Fulfill(o.Items[0].ID, 2, "courier")
		require.NoError(t, err)

		plan := r.PlanRelease()
		require.Len(t, plan, 1)
		assert.Equal(t, 3, plan[0].Quantity)
		r.MarkReleased()
		assert.Equal(t, ReservationUnreserved, r.State)

		again, err := r.PlanReserve()
		require.NoError(t, err)
		assert.Equal(t, 3, again[0].Quantity)
	})
}

func TestReservation_RecordReturn(t *testing.T) {
	o := newTestOrder(StatusProcessing, 4)
	productID := o.Items[0].ProductID
	r := NewReservation(o)
	r.MarkReserved()

	t.Run("nothing fulfilled yet", func(t *testing.T) {
		err := r.RecordReturn(productID, 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	_, _, err := r.Fulfill(o.Items[0].ID, 4, "courier")
	require.NoError(t, err)

	t.Run("within ceiling", func(t *testing.T) {
		require.NoError(t, r.RecordReturn(productID, 2))
		returnable, ok := r.Returnable(productID)
		assert.True(t, ok)
		assert.Equal(t, 2, returnable)
	})

	t.Run("beyond ceiling", func(t *testing.T) {
		err := r.RecordReturn(productID, 3)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("other product", func(t *testing.T) {
		err := r.RecordReturn(uuid.New(), 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrder_MarkFulfilled(t *testing.T) {
	o := newTestOrder(StatusShipped, 1)
	change, err := o.MarkFulfilled("user-1", "all lines fulfilled")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, change.FromStatus)
	assert.Equal(t, StatusFulfilled, change.ToStatus)
	assert.Equal(t, StatusFulfilled, o.Status)

	pending := newTestOrder(StatusPending, 1)
	_, err = pending.MarkFulfilled("user-1", "")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}
