package telemetry

import (
	"context"
	"errors"
	"testing"

	appinv "github.com/handmade/backend/internal/application/inventory"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubStats struct {
	stats *appinv.StatsResponse
	err   error
}

func (s stubStats) Stats(context.Context) (*appinv.StatsResponse, error) {
	return s.stats, s.err
}

func TestNewInventoryMetrics_NilMeter(t *testing.T) {
	m, err := NewInventoryMetrics(nil, nil)
	assert.Nil(t, m)
	assert.EqualError(t, err, "NewInventoryMetrics: meter cannot be nil")
}

func TestInventoryMetrics_Counters(t *testing.T) {
	reader, provider := newTestMeter(t)
	m, err := NewInventoryMetrics(provider.Meter("test"), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordMutation(ctx, inventory.OperationReservation, 3)
	m.RecordMutation(ctx, inventory.OperationReservation, 2)
	m.RecordMutation(ctx, inventory.OperationReturnProcessing, 1)
	m.RecordReservation(ctx, true, "")
	m.RecordReservation(ctx, false, "INSUFFICIENT_STOCK")
	m.RecordConflict(ctx, string(inventory.OperationManualAdjustment))
	m.RecordBulkRun(ctx, appinv.BulkKindImport, 8, 2)
	m.RecordLowStockAlert(ctx, appinv.AlertTypeOutOfStock)

	rm := collect(t, reader)
	reserve := AttrOperation.String(string(inventory.OperationReservation))
	assert.Equal(t, int64(2), sumInt64(t, rm, "inventory_mutations_total", reserve))
	assert.Equal(t, int64(5), sumInt64(t, rm, "inventory_units_moved_total", reserve))
	assert.Equal(t, int64(3), sumInt64(t, rm, "inventory_mutations_total"))
	assert.Equal(t, int64(1), sumInt64(t, rm, "inventory_reservations_total",
		AttrResult.String("rejected"), AttrErrorCode.String("INSUFFICIENT_STOCK")))
	assert.Equal(t, int64(1), sumInt64(t, rm, "inventory_version_conflicts_total"))
	assert.Equal(t, int64(2), sumInt64(t, rm, "inventory_bulk_items_total",
		AttrBulkKind.String(appinv.BulkKindImport), AttrResult.String("failed")))
	assert.Equal(t, int64(1), sumInt64(t, rm, "inventory_low_stock_alerts_total"))
}

func TestInventoryMetrics_CollectGauges(t *testing.T) {
	reader, provider := newTestMeter(t)
	core, logs := observer.New(zap.WarnLevel)
	m, err := NewInventoryMetrics(provider.Meter("test"), zap.New(core))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("samples the stats view", func(t *testing.T) {
		err := m.CollectGauges(ctx, stubStats{stats: &appinv.StatsResponse{
			TotalProducts:       3,
			TotalInventoryValue: decimal.RequireFromString("96"),
			TotalPhysical:       30,
			TotalReserved:       4,
			LowStockCount:       2,
			OutOfStockCount:     1,
			CountsByStatus: map[inventory.StockStatus]int64{
				inventory.StockStatusActive:       2,
				inventory.StockStatusDiscontinued: 1,
			},
		}})
		require.NoError(t, err)

		rm := collect(t, reader)
		assert.Equal(t, int64(4), sumInt64(t, rm, "inventory_reserved_units"))
		assert.Equal(t, int64(2), sumInt64(t, rm, "inventory_low_stock_count"))
		assert.Equal(t, int64(1), sumInt64(t, rm, "inventory_records",
			AttrStatus.String(string(inventory.StockStatusDiscontinued))))
	})

	t.Run("provider failure is logged and returned", func(t *testing.T) {
		err := m.CollectGauges(ctx, stubStats{err: errors.New("db down")})
		require.Error(t, err)
		assert.Equal(t, 1, logs.FilterMessage("Failed to collect inventory gauges").Len())
	})
}
