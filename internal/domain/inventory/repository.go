package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrStockGuardFailed is returned by the repository when the conditional
// update matched no row: the version moved or the counters no longer allow
// the delta.
var ErrStockGuardFailed = shared.NewConflictError("Stock record changed concurrently or no longer satisfies the mutation guard")

// StockDelta is the conditional quantity change applied by the repository
// as a single UPDATE statement.
type StockDelta struct {
	Physical int
	Reserved int
	// ExpectedVersion, when set, adds "version = ?" to the guard
	ExpectedVersion *int64
	// Settings, when set, are written in the same statement
	Settings *StockRecord
}

// StockFilter is the validated query shape for listing stock records
type StockFilter struct {
	Search       string
	Status       *StockStatus
	LowStockOnly bool
	// Threshold replaces the fallback reorder point for LowStockOnly
	Threshold *int
	SortBy    string
	SortDesc  bool
	Page      shared.Pagination
}

// stockSortColumns lists the sortable columns
var stockSortColumns = map[string]bool{
	"":               true,
	"created_at":     true,
	"updated_at":     true,
	"physical_stock": true,
	"reserved_stock": true,
	"available":      true,
	"unit_cost":      true,
	"unit_price":     true,
}

// Validate checks sort keys and thresholds
func (f StockFilter) Validate() error {
	if !stockSortColumns[f.SortBy] {
		return shared.NewValidationError(fmt.Sprintf("unsupported sort_by %q", f.SortBy))
	}
	if f.Status != nil && !f.Status.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("unknown status %q", *f.Status))
	}
	if f.Threshold != nil && *f.Threshold < 0 {
		return shared.NewValidationError("threshold cannot be negative")
	}
	return nil
}

// StockValuationRow is the minimal projection used by the aggregator
type StockValuationRow struct {
	ProductID     uuid.UUID
	PhysicalStock int
	ReservedStock int
	UnitCost      decimal.Decimal
	UnitPrice     decimal.Decimal
	Status        StockStatus
}

// StockRecordRepository persists stock records
type StockRecordRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockRecord, error)
	FindByProductID(ctx context.Context, productID uuid.UUID) (*StockRecord, error)
	FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]StockRecord, error)
	List(ctx context.Context, filter StockFilter, lowStockFallback int) ([]StockRecord, int64, error)
	FindLowStock(ctx context.Context, lowStockFallback int) ([]StockRecord, error)
	ValuationRows(ctx context.Context) ([]StockValuationRow, error)
	CountByStatus(ctx context.Context) (map[StockStatus]int64, error)
	Create(ctx context.Context, record *StockRecord) error
	// ApplyDelta runs the guarded update and returns ErrStockGuardFailed
	// when no row matched.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta StockDelta) error
	// Delete removes the record only while reserved_stock is zero
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditLogRepository appends and queries audit entries
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditLogEntry) error
	Query(ctx context.Context, filter AuditFilter, page shared.Pagination) (*AuditPage, error)
}

// StockMovementRepository appends and lists stock movements
type StockMovementRepository interface {
	Append(ctx context.Context, movement *StockMovement) error
	FindByInventory(ctx context.Context, inventoryID uuid.UUID, filter MovementFilter, page shared.Pagination) ([]StockMovement, int64, error)
	// SumSince aggregates signed deltas per movement type since a point in time
	SumSince(ctx context.Context, inventoryID uuid.UUID, since time.Time) (map[MovementType]int, error)
	// ExistsForInventory reports whether a stock record has any history
	ExistsForInventory(ctx context.Context, inventoryID uuid.UUID) (bool, error)
}
