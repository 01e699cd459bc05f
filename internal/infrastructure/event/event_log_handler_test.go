package event

import (
	"context"
	"testing"

	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEventLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewEventSerializer()
	RegisterInventoryEvents(s)

	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewEventLogHandler(s, zap.New(core)))

	event := newTestEvent(inventory.EventTypeStockReturned)
	require.NoError(t, bus.Publish(context.Background(), event))

	entries := logs.FilterMessage("Domain event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, inventory.EventTypeStockReturned, fields["event_type"])
	assert.Equal(t, event.AggregateID().String(), fields["aggregate_id"])
	assert.Contains(t, fields["payload"], `"data":"test data"`)
}
