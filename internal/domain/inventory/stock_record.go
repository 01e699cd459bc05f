package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is used when a record has no reorder point
const DefaultLowStockThreshold = 5

// StockStatus represents the sales status of a stock record
type StockStatus string

const (
	StockStatusActive       StockStatus = "active"
	StockStatusInactive     StockStatus = "inactive"
	StockStatusDiscontinued StockStatus = "discontinued"
)

// IsValid checks if the status is a known StockStatus
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusActive, StockStatusInactive, StockStatusDiscontinued:
		return true
	}
	return false
}

// AllStockStatuses returns every status, in display order
func AllStockStatuses() []StockStatus {
	return []StockStatus{StockStatusActive, StockStatusInactive, StockStatusDiscontinued}
}

// ErrInvalidMutation is returned when a delta would break the stock invariants
var ErrInvalidMutation = shared.NewDomainError(shared.CodeValidation, "Stock mutation would leave the record in an invalid state")

// StockSnapshot is the physical/reserved/available triple at one point in time
type StockSnapshot struct {
	Physical  int `json:"physical"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

// NewStockSnapshot derives available from physical and reserved
func NewStockSnapshot(physical, reserved int) StockSnapshot {
	return StockSnapshot{
		Physical:  physical,
		Reserved:  reserved,
		Available: availableOf(physical, reserved),
	}
}

func availableOf(physical, reserved int) int {
	if physical-reserved < 0 {
		return 0
	}
	return physical - reserved
}

// StockRecord is the canonical per-product stock count.
// It is the aggregate root of the stock ledger; ProductID is unique.
type StockRecord struct {
	shared.BaseAggregateRoot
	ProductID     uuid.UUID
	PhysicalStock int
	ReservedStock int
	MinStock      int
	MaxStock      int
	ReorderPoint  *int
	UnitCost      decimal.Decimal
	UnitPrice     decimal.Decimal
	Status        StockStatus
	LastRestocked *time.Time
}

// NewStockRecord creates an active stock record for a catalog product
func NewStockRecord(productID uuid.UUID, physical int, unitCost, unitPrice decimal.Decimal) (*StockRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if physical < 0 {
		return nil, shared.NewValidationError("Physical stock cannot be negative")
	}
	if unitCost.IsNegative() || unitPrice.IsNegative() {
		return nil, shared.NewValidationError("Unit cost and price cannot be negative")
	}

	rec := &StockRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		PhysicalStock:     physical,
		UnitCost:          unitCost,
		UnitPrice:         unitPrice,
		Status:            StockStatusActive,
	}
	if physical > 0 {
		now := rec.CreatedAt
		rec.LastRestocked = &now
	}
	return rec, nil
}

// AvailableStock returns max(0, physical - reserved)
func (r *StockRecord) AvailableStock() int {
	return availableOf(r.PhysicalStock, r.ReservedStock)
}

// Snapshot returns the current quantity triple
func (r *StockRecord) Snapshot() StockSnapshot {
	return NewStockSnapshot(r.PhysicalStock, r.ReservedStock)
}

// CheckDelta validates that applying the deltas keeps both counters
// non-negative and reserved within physical.
func (r *StockRecord) CheckDelta(physicalDelta, reservedDelta int) error {
	physical := r.PhysicalStock + physicalDelta
	reserved := r.ReservedStock + reservedDelta
	switch {
	case physical < 0:
		return ErrInvalidMutation.WithDetails(map[string]any{
			"reason": "physical_stock would become negative", "physical_stock": r.PhysicalStock, "physical_delta": physicalDelta,
		})
	case reserved < 0:
		return ErrInvalidMutation.WithDetails(map[string]any{
			"reason": "reserved_stock would become negative", "reserved_stock": r.ReservedStock, "reserved_delta": reservedDelta,
		})
	case reserved > physical:
		return ErrInvalidMutation.WithDetails(map[string]any{
			"reason": "reserved_stock would exceed physical_stock", "physical_after": physical, "reserved_after": reserved,
		})
	}
	return nil
}

// ApplyDelta applies both deltas in memory and bumps the version.
// Persistence repeats the same guard as a conditional update.
func (r *StockRecord) ApplyDelta(physicalDelta, reservedDelta int) error {
	if err := r.CheckDelta(physicalDelta, reservedDelta); err != nil {
		return err
	}
	r.PhysicalStock += physicalDelta
	r.ReservedStock += reservedDelta
	if physicalDelta > 0 {
		now := time.Now()
		r.LastRestocked = &now
	}
	r.Touch()
	r.IncrementVersion()
	return nil
}

// EffectiveReorderPoint returns the reorder point or the fallback when unset
func (r *StockRecord) EffectiveReorderPoint(fallback int) int {
	if r.ReorderPoint != nil {
		return *r.ReorderPoint
	}
	return fallback
}

// IsLowStock reports whether available stock is at or under the reorder point
func (r *StockRecord) IsLowStock(fallback int) bool {
	return r.AvailableStock() <= r.EffectiveReorderPoint(fallback)
}

// InventoryValue returns unit_cost * physical_stock
func (r *StockRecord) InventoryValue() decimal.Decimal {
	return r.UnitCost.Mul(decimal.NewFromInt(int64(r.PhysicalStock)))
}

// EnsureDeletable fails while any stock is still promised to orders
func (r *StockRecord) EnsureDeletable() error {
	if r.ReservedStock > 0 {
		return shared.NewConflictError(fmt.Sprintf("Cannot delete stock record with %d reserved units", r.ReservedStock))
	}
	return nil
}

// SettingsChange is a partial update of the non-quantity fields
type SettingsChange struct {
	MinStock     *int
	MaxStock     *int
	ReorderPoint *int
	ClearReorder bool
	UnitCost     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	Status       *StockStatus
}

// IsEmpty reports whether the change touches nothing
func (c SettingsChange) IsEmpty() bool {
	return c.MinStock == nil && c.MaxStock == nil && c.ReorderPoint == nil && !c.ClearReorder &&
		c.UnitCost == nil && c.UnitPrice == nil && c.Status == nil
}

// ApplySettings validates and applies a settings change in memory
func (r *StockRecord) ApplySettings(change SettingsChange) error {
	minStock, maxStock := r.MinStock, r.MaxStock
	if change.MinStock != nil {
		minStock = *change.MinStock
	}
	if change.MaxStock != nil {
		maxStock = *change.MaxStock
	}

	var problems []string
	if minStock < 0 {
		problems = append(problems, "min_stock cannot be negative")
	}
	if maxStock < 0 {
		problems = append(problems, "max_stock cannot be negative")
	}
	if maxStock > 0 && minStock > maxStock {
		problems = append(problems, "min_stock cannot exceed max_stock")
	}
	if change.ReorderPoint != nil && *change.ReorderPoint < 0 {
		problems = append(problems, "reorder_point cannot be negative")
	}
	if change.UnitCost != nil && change.UnitCost.IsNegative() {
		problems = append(problems, "unit_cost cannot be negative")
	}
	if change.UnitPrice != nil && change.UnitPrice.IsNegative() {
		problems = append(problems, "unit_price cannot be negative")
	}
	if change.Status != nil && !change.Status.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", *change.Status))
	}
	if len(problems) > 0 {
		return shared.NewValidationError(strings.Join(problems, "; "))
	}

	r.MinStock, r.MaxStock = minStock, maxStock
	if change.ClearReorder {
		r.ReorderPoint = nil
	}
	if change.ReorderPoint != nil {
		rp := *change.ReorderPoint
		r.ReorderPoint = &rp
	}
	if change.UnitCost != nil {
		r.UnitCost = *change.UnitCost
	}
	if change.UnitPrice != nil {
		r.UnitPrice = *change.UnitPrice
	}
	if change.Status != nil {
		r.Status = *change.Status
	}
	r.Touch()
	return nil
}

// RecordMutation registers the events for a committed mutation.
// A low-stock event is added only when the record crosses its threshold.
func (r *StockRecord) RecordMutation(m MutationEventData, lowStockFallback int) {
	r.AddDomainEvent(NewStockMutatedEvent(r, m))
	threshold := r.EffectiveReorderPoint(lowStockFallback)
	if m.After.Available <= threshold && m.Before.Available > threshold {
		r.AddDomainEvent(NewLowStockDetectedEvent(r, m.After.Available, threshold))
	}
}
