package persistence

import (
	"context"
	"fmt"

	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements AuditLogRepository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts an audit entry. Entries are never updated.
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *inventory.AuditLogEntry) error {
	if err := r.db.WithContext(ctx).Create(models.AuditLogEntryModelFromDomain(entry)).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Query returns one page of entries newest first, the total and the
// per-operation summary over the whole filtered set
func (r *GormAuditLogRepository) Query(ctx context.Context, filter inventory.AuditFilter, page shared.Pagination) (*inventory.AuditPage, error) {
	page = page.Normalize()
	base := func() *gorm.DB {
		return applyAuditFilter(r.db.WithContext(ctx).Model(&models.AuditLogEntryModel{}), filter)
	}

	var counts []struct {
		OperationType inventory.OperationType
		Count         int64
	}
	if err := base().
		Select("operation_type, COUNT(*) AS count").
		Group("operation_type").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to summarise audit entries: %w", err)
	}

	result := &inventory.AuditPage{
		Summary: make(map[inventory.OperationType]int64, len(counts)),
	}
	for _, c := range counts {
		result.Summary[c.OperationType] = c.Count
		result.Total += c.Count
	}

	var rows []models.AuditLogEntryModel
	if err := base().
		Order("occurred_at DESC").
		Order("id DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}

	result.Entries = make([]inventory.AuditLogEntry, len(rows))
	for i := range rows {
		result.Entries[i] = *rows[i].ToDomain()
	}
	return result, nil
}

func applyAuditFilter(query *gorm.DB, filter inventory.AuditFilter) *gorm.DB {
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.OrderID != nil {
		query = query.Where("related_order_id = ?", *filter.OrderID)
	}
	if filter.OperationType != nil {
		query = query.Where("operation_type = ?", *filter.OperationType)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}
	return query
}

var _ inventory.AuditLogRepository = (*GormAuditLogRepository)(nil)
