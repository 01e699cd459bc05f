package inventory

import (
	"context"

	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// StatsService computes read-only views over the ledger. It never mutates.
type StatsService struct {
	stockRepo         inventory.StockRecordRepository
	lowStockThreshold int
}

// NewStatsService creates a new StatsService
func NewStatsService(stockRepo inventory.StockRecordRepository, settings Settings) *StatsService {
	return &StatsService{
		stockRepo:         stockRepo,
		lowStockThreshold: settings.withDefaults().LowStockThreshold,
	}
}

// LowStockItems lists records whose available stock is at or under their
// reorder point, falling back to the configured threshold when unset
func (s *StatsService) LowStockItems(ctx context.Context) (*LowStockResponse, error) {
	records, err := s.stockRepo.FindLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	resp := &LowStockResponse{
		Items:      make([]LowStockItem, len(records)),
		Count:      len(records),
		TotalValue: decimal.Zero,
		Threshold:  s.lowStockThreshold,
	}
	for i := range records {
		resp.Items[i] = LowStockItem{
			StockRecordResponse:   ToStockRecordResponse(&records[i], s.lowStockThreshold),
			EffectiveReorderPoint: records[i].EffectiveReorderPoint(s.lowStockThreshold),
		}
		resp.TotalValue = resp.TotalValue.Add(records[i].InventoryValue())
	}
	return resp, nil
}

// Stats returns totals, valuation and counts by status
func (s *StatsService) Stats(ctx context.Context) (*StatsResponse, error) {
	rows, err := s.stockRepo.ValuationRows(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.stockRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	resp := &StatsResponse{
		TotalProducts:       len(rows),
		TotalInventoryValue: decimal.Zero,
		AveragePrice:        decimal.Zero,
		CountsByStatus:      byStatus,
	}
	priceSum := decimal.Zero
	for _, row := range rows {
		resp.TotalInventoryValue = resp.TotalInventoryValue.Add(row.UnitCost.Mul(decimal.NewFromInt(int64(row.PhysicalStock))))
		priceSum = priceSum.Add(row.UnitPrice)
		resp.TotalPhysical += int64(row.PhysicalStock)
		resp.TotalReserved += int64(row.ReservedStock)

		snap := inventory.NewStockSnapshot(row.PhysicalStock, row.ReservedStock)
		if snap.Available == 0 {
			resp.OutOfStockCount++
		}
	}
	if len(rows) > 0 {
		resp.AveragePrice = priceSum.Div(decimal.NewFromInt(int64(len(rows)))).Round(2)
	}

	low, err := s.stockRepo.FindLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	resp.LowStockCount = len(low)
	return resp, nil
}
