package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// availableExpr is the SQL form of max(0, physical - reserved). The ledger
// guard keeps reserved <= physical, so the difference never goes negative.
const availableExpr = "(physical_stock - reserved_stock)"

// GormStockRecordRepository implements StockRecordRepository using GORM
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewGormStockRecordRepository creates a new GormStockRecordRepository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// FindByID finds a stock record by its ID
func (r *GormStockRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockRecord, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByProductID finds the stock record of a product
func (r *GormStockRecordRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.StockRecord, error) {
	return r.first(ctx, "product_id = ?", productID)
}

func (r *GormStockRecordRepository) first(ctx context.Context, query string, args ...any) (*inventory.StockRecord, error) {
	var model models.StockRecordModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	return model.ToDomain(), nil
}

// FindByProductIDs loads the stock records of several products
func (r *GormStockRecordRepository) FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]inventory.StockRecord, error) {
	if len(productIDs) == 0 {
		return []inventory.StockRecord{}, nil
	}
	var rows []models.StockRecordModel
	if err := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load stock records: %w", err)
	}
	return toStockRecords(rows), nil
}

// List returns one page of stock records and the total matching count
func (r *GormStockRecordRepository) List(ctx context.Context, filter inventory.StockFilter, lowStockFallback int) ([]inventory.StockRecord, int64, error) {
	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockRecordModel{}), filter, lowStockFallback).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stock records: %w", err)
	}

	page := filter.Page.Normalize()
	var rows []models.StockRecordModel
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockRecordModel{}), filter, lowStockFallback).
		Order(stockOrderClause(filter.SortBy, filter.SortDesc)).
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list stock records: %w", err)
	}
	return toStockRecords(rows), total, nil
}

func (r *GormStockRecordRepository) applyFilter(query *gorm.DB, filter inventory.StockFilter, lowStockFallback int) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		products := r.db.Model(&models.ProductModel{}).
			Select("id").
			Where("LOWER(sku) LIKE ? OR LOWER(name) LIKE ?", like, like)
		query = query.Where("product_id IN (?)", products)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.LowStockOnly {
		if filter.Threshold != nil {
			query = query.Where(availableExpr+" <= ?", *filter.Threshold)
		} else {
			query = query.Where(availableExpr+" <= COALESCE(reorder_point, ?)", lowStockFallback)
		}
	}
	return query
}

// FindLowStock returns every record whose available stock is at or below
// its reorder point, or the fallback when none is set
func (r *GormStockRecordRepository) FindLowStock(ctx context.Context, lowStockFallback int) ([]inventory.StockRecord, error) {
	var rows []models.StockRecordModel
	if err := r.db.WithContext(ctx).
		Where(availableExpr+" <= COALESCE(reorder_point, ?)", lowStockFallback).
		Order(availableExpr + " ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find low stock records: %w", err)
	}
	return toStockRecords(rows), nil
}

// ValuationRows returns the projection used by the stats aggregator
func (r *GormStockRecordRepository) ValuationRows(ctx context.Context) ([]inventory.StockValuationRow, error) {
	var rows []models.StockRecordModel
	if err := r.db.WithContext(ctx).
		Select("product_id", "physical_stock", "reserved_stock", "unit_cost", "unit_price", "status").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load valuation rows: %w", err)
	}
	out := make([]inventory.StockValuationRow, len(rows))
	for i, m := range rows {
		out[i] = inventory.StockValuationRow{
			ProductID:     m.ProductID,
			PhysicalStock: m.PhysicalStock,
			ReservedStock: m.ReservedStock,
			UnitCost:      m.UnitCost,
			UnitPrice:     m.UnitPrice,
			Status:        m.Status,
		}
	}
	return out, nil
}

// CountByStatus returns the number of records per status
func (r *GormStockRecordRepository) CountByStatus(ctx context.Context) (map[inventory.StockStatus]int64, error) {
	var rows []struct {
		Status inventory.StockStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.StockRecordModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count stock records by status: %w", err)
	}
	counts := make(map[inventory.StockStatus]int64, len(inventory.AllStockStatuses()))
	for _, s := range inventory.AllStockStatuses() {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Create inserts a new stock record. A second record for the same product
// violates the unique index and is reported as a conflict.
func (r *GormStockRecordRepository) Create(ctx context.Context, record *inventory.StockRecord) error {
	if err := r.db.WithContext(ctx).Create(models.StockRecordModelFromDomain(record)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewConflictError(fmt.Sprintf("Stock record already exists for product %s", record.ProductID))
		}
		return fmt.Errorf("failed to create stock record: %w", err)
	}
	return nil
}

// ApplyDelta adds the deltas in a single conditional UPDATE. The WHERE
// clause re-checks the counter invariants against the stored row, so a
// concurrent writer can never drive them out of range.
func (r *GormStockRecordRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta inventory.StockDelta) error {
	now := time.Now()
	updates := map[string]any{
		"physical_stock": gorm.Expr("physical_stock + ?", delta.Physical),
		"reserved_stock": gorm.Expr("reserved_stock + ?", delta.Reserved),
		"version":        gorm.Expr("version + 1"),
		"updated_at":     now,
	}
	if delta.Physical > 0 {
		updates["last_restocked"] = now
	}
	if s := delta.Settings; s != nil {
		updates["min_stock"] = s.MinStock
		updates["max_stock"] = s.MaxStock
		updates["reorder_point"] = s.ReorderPoint
		updates["unit_cost"] = s.UnitCost
		updates["unit_price"] = s.UnitPrice
		updates["status"] = s.Status
	}

	query := r.db.WithContext(ctx).
		Model(&models.StockRecordModel{}).
		Where("id = ?", id).
		Where("physical_stock + ? >= 0 AND reserved_stock + ? >= 0 AND reserved_stock + ? <= physical_stock + ?",
			delta.Physical, delta.Reserved, delta.Reserved, delta.Physical)
	if delta.ExpectedVersion != nil {
		query = query.Where("version = ?", *delta.ExpectedVersion)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to apply stock delta: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return inventory.ErrStockGuardFailed
	}
	return nil
}

// Delete removes the record only while nothing is reserved against it
func (r *GormStockRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND reserved_stock = 0", id).
		Delete(&models.StockRecordModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete stock record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return inventory.ErrStockGuardFailed
	}
	return nil
}

func toStockRecords(rows []models.StockRecordModel) []inventory.StockRecord {
	out := make([]inventory.StockRecord, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// isUniqueViolation recognises duplicate key errors from Postgres and SQLite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

var _ inventory.StockRecordRepository = (*GormStockRecordRepository)(nil)
