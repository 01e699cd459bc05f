package telemetry

import (
	"context"

	appinv "github.com/handmade/backend/internal/application/inventory"
	"github.com/handmade/backend/internal/domain/inventory"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = &MetricsError{Op: "NewInventoryMetrics", Err: "meter cannot be nil"}

// MetricsError is a metrics setup failure
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// StatsProvider supplies the ledger-wide view the gauges are sampled from
type StatsProvider interface {
	Stats(ctx context.Context) (*appinv.StatsResponse, error)
}

// InventoryMetrics records ledger activity as OpenTelemetry metrics. The
// counters are fed by the inventory services; the gauges are sampled
// periodically by CollectGauges.
type InventoryMetrics struct {
	logger *zap.Logger

	mutations  *Counter
	unitsMoved *Counter
	reserves   *Counter
	conflicts  *Counter
	bulkItems  *Counter
	alerts     *Counter
	physical   *Gauge
	reserved   *Gauge
	lowStock   *Gauge
	outOfStock *Gauge
	byStatus   *Gauge
	stockValue *FloatGauge
}

// NewInventoryMetrics registers every inventory instrument on meter
func NewInventoryMetrics(meter metric.Meter, logger *zap.Logger) (*InventoryMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &InventoryMetrics{logger: logger}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&m.mutations, "inventory_mutations_total", "Committed ledger mutations", "{mutations}"},
		{&m.unitsMoved, "inventory_units_moved_total", "Units affected by committed mutations", "{units}"},
		{&m.reserves, "inventory_reservations_total", "Order reservation attempts", "{orders}"},
		{&m.conflicts, "inventory_version_conflicts_total", "Mutations rejected for a stale version", "{mutations}"},
		{&m.bulkItems, "inventory_bulk_items_total", "Items processed by bulk runs", "{items}"},
		{&m.alerts, "inventory_low_stock_alerts_total", "Low-stock alerts raised", "{alerts}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	gauges := []struct {
		dst              **Gauge
		name, desc, unit string
	}{
		{&m.physical, "inventory_physical_units", "Units physically on hand", "{units}"},
		{&m.reserved, "inventory_reserved_units", "Units held for unfulfilled orders", "{units}"},
		{&m.lowStock, "inventory_low_stock_count", "Active records at or below their reorder point", "{records}"},
		{&m.outOfStock, "inventory_out_of_stock_count", "Active records with nothing available", "{records}"},
		{&m.byStatus, "inventory_records", "Stock records by status", "{records}"},
	}
	for _, g := range gauges {
		gauge, err := NewGauge(meter, g.name, g.desc, g.unit)
		if err != nil {
			return nil, err
		}
		*g.dst = gauge
	}

	var err error
	m.stockValue, err = NewFloatGauge(meter, "inventory_value", "Physical stock valued at unit price", "{currency}")
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordMutation counts a committed mutation and the units it moved
func (m *InventoryMetrics) RecordMutation(ctx context.Context, op inventory.OperationType, quantity int) {
	m.mutations.Inc(ctx, AttrOperation.String(string(op)))
	m.unitsMoved.Add(ctx, int64(quantity), AttrOperation.String(string(op)))
}

// RecordReservation counts a reservation attempt
func (m *InventoryMetrics) RecordReservation(ctx context.Context, succeeded bool, errCode string) {
	result := "reserved"
	if !succeeded {
		result = "rejected"
	}
	m.reserves.Inc(ctx, AttrResult.String(result), AttrErrorCode.String(errCode))
}

// RecordConflict counts a version conflict
func (m *InventoryMetrics) RecordConflict(ctx context.Context, operation string) {
	m.conflicts.Inc(ctx, AttrOperation.String(operation))
}

// RecordBulkRun counts the items of a finished bulk, import or sync run
func (m *InventoryMetrics) RecordBulkRun(ctx context.Context, kind string, succeeded, failed int) {
	m.bulkItems.Add(ctx, int64(succeeded), AttrBulkKind.String(kind), AttrResult.String("succeeded"))
	m.bulkItems.Add(ctx, int64(failed), AttrBulkKind.String(kind), AttrResult.String("failed"))
}

// RecordLowStockAlert counts an alert
func (m *InventoryMetrics) RecordLowStockAlert(ctx context.Context, alertType string) {
	m.alerts.Inc(ctx, AttrAlertType.String(alertType))
}

// CollectGauges samples the ledger-wide gauges from provider
func (m *InventoryMetrics) CollectGauges(ctx context.Context, provider StatsProvider) error {
	stats, err := provider.Stats(ctx)
	if err != nil {
		m.logger.Warn("Failed to collect inventory gauges", zap.Error(err))
		return err
	}
	m.physical.Record(ctx, stats.TotalPhysical)
	m.reserved.Record(ctx, stats.TotalReserved)
	m.lowStock.Record(ctx, int64(stats.LowStockCount))
	m.outOfStock.Record(ctx, int64(stats.OutOfStockCount))
	for status, n := range stats.CountsByStatus {
		m.byStatus.Record(ctx, n, AttrStatus.String(string(status)))
	}
	value, _ := stats.TotalInventoryValue.Float64()
	m.stockValue.Record(ctx, value)

	m.logger.Debug("Inventory gauges collected",
		zap.Int("total_products", stats.TotalProducts),
		zap.Int("low_stock_count", stats.LowStockCount),
	)
	return nil
}

var _ appinv.MetricsRecorder = (*InventoryMetrics)(nil)
