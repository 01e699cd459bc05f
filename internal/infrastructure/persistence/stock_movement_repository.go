package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append inserts a movement row
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	if err := r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error; err != nil {
		return fmt.Errorf("failed to append stock movement: %w", err)
	}
	return nil
}

// FindByInventory lists the movements of one stock record newest first
func (r *GormStockMovementRepository) FindByInventory(ctx context.Context, inventoryID uuid.UUID, filter inventory.MovementFilter, page shared.Pagination) ([]inventory.StockMovement, int64, error) {
	page = page.Normalize()
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).Where("inventory_id = ?", inventoryID)
		if filter.Type != nil {
			q = q.Where("movement_type = ?", *filter.Type)
		}
		if filter.From != nil {
			q = q.Where("occurred_at >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("occurred_at <= ?", *filter.To)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stock movements: %w", err)
	}

	var rows []models.StockMovementModel
	if err := base().
		Order("occurred_at DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}

	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// ExistsForInventory reports whether any movement references the record
func (r *GormStockMovementRepository) ExistsForInventory(ctx context.Context, inventoryID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Where("inventory_id = ?", inventoryID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check stock movements: %w", err)
	}
	return count > 0, nil
}

// SumSince aggregates the signed deltas per movement type since a point in time
func (r *GormStockMovementRepository) SumSince(ctx context.Context, inventoryID uuid.UUID, since time.Time) (map[inventory.MovementType]int, error) {
	var rows []struct {
		Type  inventory.MovementType
		Total int
	}
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select("movement_type AS type, COALESCE(SUM(quantity_delta), 0) AS total").
		Where("inventory_id = ? AND occurred_at >= ?", inventoryID, since).
		Group("movement_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to sum stock movements: %w", err)
	}
	sums := make(map[inventory.MovementType]int, len(rows))
	for _, row := range rows {
		sums[row.Type] = row.Total
	}
	return sums, nil
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
