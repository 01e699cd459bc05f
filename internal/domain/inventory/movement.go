package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
)

// MovementType names an operator-visible stock event
type MovementType string

const (
	MovementRestock    MovementType = "restock"
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"
	MovementReturn     MovementType = "return"
	MovementDamage     MovementType = "damage"
	MovementCorrection MovementType = "correction"
)

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementRestock, MovementSale, MovementAdjustment, MovementReturn, MovementDamage, MovementCorrection:
		return true
	}
	return false
}

// ValidateDelta checks the sign of a delta against the movement type.
// Restocks and returns add stock, sales and damage remove it,
// adjustments and corrections go either way.
func (t MovementType) ValidateDelta(delta int) error {
	if !t.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("unknown movement type %q", t))
	}
	if delta == 0 {
		return shared.NewValidationError("quantity_delta cannot be zero")
	}
	switch t {
	case MovementRestock, MovementReturn:
		if delta < 0 {
			return shared.NewValidationError(fmt.Sprintf("%s requires a positive quantity_delta", t))
		}
	case MovementSale, MovementDamage:
		if delta > 0 {
			return shared.NewValidationError(fmt.Sprintf("%s requires a negative quantity_delta", t))
		}
	}
	return nil
}

// StockMovement is an append-only history row for one stock record
type StockMovement struct {
	ID            uuid.UUID
	InventoryID   uuid.UUID
	Type          MovementType
	QuantityDelta int
	StockBefore   int
	StockAfter    int
	Actor         string
	Timestamp     time.Time
	Notes         string
}

// NewStockMovement creates a movement from the physical stock before and after
func NewStockMovement(inventoryID uuid.UUID, t MovementType, delta, before, after int, actor, notes string) *StockMovement {
	return &StockMovement{
		ID:            uuid.New(),
		InventoryID:   inventoryID,
		Type:          t,
		QuantityDelta: delta,
		StockBefore:   before,
		StockAfter:    after,
		Actor:         actor,
		Timestamp:     time.Now(),
		Notes:         notes,
	}
}

// MovementFilter narrows a movement history query
type MovementFilter struct {
	Type *MovementType
	From *time.Time
	To   *time.Time
}
