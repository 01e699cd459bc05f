package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
)

// OperationType classifies an audit log entry
type OperationType string

const (
	OperationReservation      OperationType = "reservation"
	OperationRelease          OperationType = "release"
	OperationFulfillment      OperationType = "fulfillment"
	OperationReturnProcessing OperationType = "return_processing"
	OperationBulkUpdate       OperationType = "bulk_update"
	OperationManualAdjustment OperationType = "manual_adjustment"
)

// IsValid checks if the operation type is known
func (o OperationType) IsValid() bool {
	switch o {
	case OperationReservation, OperationRelease, OperationFulfillment,
		OperationReturnProcessing, OperationBulkUpdate, OperationManualAdjustment:
		return true
	}
	return false
}

// AuditLogEntry is the immutable record of one ledger mutation
type AuditLogEntry struct {
	ID                  uuid.UUID
	ProductID           uuid.UUID
	OperationType       OperationType
	PhysicalBefore      int
	PhysicalAfter       int
	ReservedBefore      int
	ReservedAfter       int
	AvailableBefore     int
	AvailableAfter      int
	QuantityAffected    int
	RelatedOrderID      *uuid.UUID
	RelatedAdjustmentID *uuid.UUID
	Actor               string
	Timestamp           time.Time
	Notes               string
}

// NewAuditLogEntry builds the entry describing a before/after transition
func NewAuditLogEntry(productID uuid.UUID, op OperationType, before, after StockSnapshot, quantity int, actor string) *AuditLogEntry {
	return &AuditLogEntry{
		ID:               uuid.New(),
		ProductID:        productID,
		OperationType:    op,
		PhysicalBefore:   before.Physical,
		PhysicalAfter:    after.Physical,
		ReservedBefore:   before.Reserved,
		ReservedAfter:    after.Reserved,
		AvailableBefore:  before.Available,
		AvailableAfter:   after.Available,
		QuantityAffected: quantity,
		Actor:            actor,
		Timestamp:        time.Now(),
	}
}

// Before returns the snapshot before the mutation
func (e *AuditLogEntry) Before() StockSnapshot {
	return StockSnapshot{Physical: e.PhysicalBefore, Reserved: e.ReservedBefore, Available: e.AvailableBefore}
}

// After returns the snapshot after the mutation
func (e *AuditLogEntry) After() StockSnapshot {
	return StockSnapshot{Physical: e.PhysicalAfter, Reserved: e.ReservedAfter, Available: e.AvailableAfter}
}

// AuditFilter narrows an audit query. Nil fields are not applied.
type AuditFilter struct {
	ProductID     *uuid.UUID
	OrderID       *uuid.UUID
	OperationType *OperationType
	From          *time.Time
	To            *time.Time
}

// Validate checks the filter for contradictory bounds
func (f AuditFilter) Validate() error {
	if f.OperationType != nil && !f.OperationType.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("unknown operation_type %q", *f.OperationType))
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return shared.NewValidationError("from must not be after to")
	}
	return nil
}

// AuditPage is one page of audit entries plus the per-operation summary
// computed over the whole filtered set.
type AuditPage struct {
	Entries []AuditLogEntry
	Summary map[OperationType]int64
	Total   int64
}
