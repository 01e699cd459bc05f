package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, inventory.AggregateTypeStockRecord, uuid.New()),
		Data:            "test data",
	}
}

// panickingHandler fails the hard way
type panickingHandler struct {
	eventTypes []string
}

func (h *panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }

func (h *panickingHandler) EventTypes() []string { return h.eventTypes }

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("routes by event type", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		reserved := testutil.NewEventRecorder(inventory.EventTypeStockReserved)
		low := testutil.NewEventRecorder(inventory.EventTypeLowStockDetected)
		bus.Subscribe(reserved)
		bus.Subscribe(low)

		require.NoError(t, bus.Publish(ctx,
			newTestEvent(inventory.EventTypeStockReserved),
			newTestEvent(inventory.EventTypeStockReserved),
			newTestEvent(inventory.EventTypeLowStockDetected),
		))
		assert.Len(t, reserved.Events(), 2)
		assert.Len(t, low.Events(), 1)
	})

	t.Run("explicit types override the handler's own", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		h := testutil.NewEventRecorder(inventory.EventTypeStockReserved)
		bus.Subscribe(h, inventory.EventTypeStockReleased)

		require.NoError(t, bus.Publish(ctx, newTestEvent(inventory.EventTypeStockReserved)))
		require.NoError(t, bus.Publish(ctx, newTestEvent(inventory.EventTypeStockReleased)))
		assert.Len(t, h.Events(), 1)
	})

	t.Run("wildcard handler receives everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		all := testutil.NewEventRecorder()
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(ctx,
			testutil.NewStockEvent(inventory.EventTypeStockFulfilled),
			testutil.NewStockEvent(inventory.EventTypeStockReturned),
		))
		assert.Len(t, all.Events(), 2)
	})

	t.Run("failing and panicking handlers do not stop the others", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := testutil.NewEventRecorder(inventory.EventTypeStockAdjusted)
		failing.FailWith(errors.New("notifier down"))
		panicking := &panickingHandler{eventTypes: []string{inventory.EventTypeStockAdjusted}}
		healthy := testutil.NewEventRecorder(inventory.EventTypeStockAdjusted)
		bus.Subscribe(failing)
		bus.Subscribe(panicking)
		bus.Subscribe(healthy)

		err := bus.Publish(ctx, newTestEvent(inventory.EventTypeStockAdjusted))
		require.NoError(t, err)
		assert.Len(t, healthy.Events(), 1)

		published, failed := bus.Stats()
		assert.Equal(t, int64(1), published)
		assert.Equal(t, int64(2), failed)
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(zap.NewNop())
	h := testutil.NewEventRecorder(inventory.EventTypeStockReserved)
	bus.Subscribe(h)

	_ = bus.Publish(ctx, newTestEvent(inventory.EventTypeStockReserved))
	bus.Unsubscribe(h)
	_ = bus.Publish(ctx, newTestEvent(inventory.EventTypeStockReserved))

	assert.Len(t, h.Events(), 1)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := testutil.NewEventRecorder(inventory.EventTypeStockReserved)
	bus.Subscribe(h)
	require.NoError(t, bus.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))

	require.NoError(t, bus.Publish(context.Background(), newTestEvent(inventory.EventTypeStockReserved)))
	assert.Empty(t, h.Events(), "events after stop are dropped")

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent(inventory.EventTypeStockReserved)))
	assert.Len(t, h.Events(), 1)
}
