package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
)

// Mutation is one request against the stock ledger primitive
type Mutation struct {
	ProductID     uuid.UUID
	PhysicalDelta int
	ReservedDelta int
	// ExpectedVersion, when set, makes the mutation fail with CONFLICT if
	// the stored version differs
	ExpectedVersion *int64
	// PinVersion guards the update with the version read in this unit of
	// work when no ExpectedVersion is given
	PinVersion bool
	Operation  inventory.OperationType
	// Quantity is recorded as quantity_affected; derived from the deltas when zero
	Quantity     int
	OrderID      *uuid.UUID
	AdjustmentID *uuid.UUID
	Actor        string
	Notes        string
	// Settings are written in the same guarded statement
	Settings *inventory.SettingsChange
}

// MutationResult is the committed record and the audit entry describing it
type MutationResult struct {
	Record *inventory.StockRecord
	Audit  *inventory.AuditLogEntry
}

// ledger is the single mutation primitive. Every caller runs it inside a
// transaction scope so the conditional update and its audit entry commit
// or roll back together.
type ledger struct {
	lowStockFallback int
}

func (l *ledger) apply(ctx context.Context, repos TransactionalRepositories, m Mutation) (*MutationResult, error) {
	if !m.Operation.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unknown operation_type %q", m.Operation))
	}
	if m.PhysicalDelta == 0 && m.ReservedDelta == 0 && m.Settings == nil {
		return nil, shared.NewValidationError("mutation changes nothing")
	}

	stockRepo := repos.StockRepo()
	rec, err := stockRepo.FindByProductID(ctx, m.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("No stock record for product %s", m.ProductID))
		}
		return nil, err
	}
	if m.ExpectedVersion != nil && *m.ExpectedVersion != rec.Version {
		return nil, versionConflict(rec, *m.ExpectedVersion)
	}
	if err := rec.CheckDelta(m.PhysicalDelta, m.ReservedDelta); err != nil {
		return nil, err
	}

	if m.ExpectedVersion == nil && m.PinVersion {
		v := rec.Version
		m.ExpectedVersion = &v
	}
	delta := inventory.StockDelta{
		Physical:        m.PhysicalDelta,
		Reserved:        m.ReservedDelta,
		ExpectedVersion: m.ExpectedVersion,
	}
	if m.Settings != nil {
		if err := rec.ApplySettings(*m.Settings); err != nil {
			return nil, err
		}
		delta.Settings = rec
	}

	if err := stockRepo.ApplyDelta(ctx, rec.ID, delta); err != nil {
		if errors.Is(err, inventory.ErrStockGuardFailed) {
			return nil, l.explainGuardFailure(ctx, stockRepo, rec.ID, m)
		}
		return nil, err
	}

	after, err := stockRepo.FindByID(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload stock record: %w", err)
	}
	afterSnap := after.Snapshot()
	beforeSnap := inventory.NewStockSnapshot(afterSnap.Physical-m.PhysicalDelta, afterSnap.Reserved-m.ReservedDelta)

	quantity := m.Quantity
	if quantity == 0 {
		quantity = max(abs(m.PhysicalDelta), abs(m.ReservedDelta))
	}
	entry := inventory.NewAuditLogEntry(after.ProductID, m.Operation, beforeSnap, afterSnap, quantity, m.Actor)
	entry.RelatedOrderID = m.OrderID
	entry.RelatedAdjustmentID = m.AdjustmentID
	entry.Notes = m.Notes
	if err := repos.AuditRepo().Append(ctx, entry); err != nil {
		return nil, err
	}

	after.RecordMutation(inventory.MutationEventData{
		Operation:     m.Operation,
		Before:        beforeSnap,
		After:         afterSnap,
		PhysicalDelta: m.PhysicalDelta,
		ReservedDelta: m.ReservedDelta,
		OrderID:       m.OrderID,
		Actor:         m.Actor,
	}, l.lowStockFallback)

	return &MutationResult{Record: after, Audit: entry}, nil
}

// explainGuardFailure re-reads the record after the conditional update
// matched no row and reports why: a moved version, or counters that no
// longer admit the delta.
func (l *ledger) explainGuardFailure(ctx context.Context, repo inventory.StockRecordRepository, id uuid.UUID, m Mutation) error {
	current, err := repo.FindByID(ctx, id)
	if err != nil {
		return inventory.ErrStockGuardFailed
	}
	if m.ExpectedVersion != nil && *m.ExpectedVersion != current.Version {
		return versionConflict(current, *m.ExpectedVersion)
	}
	if err := current.CheckDelta(m.PhysicalDelta, m.ReservedDelta); err != nil {
		return err
	}
	return inventory.ErrStockGuardFailed
}

func versionConflict(rec *inventory.StockRecord, expected int64) error {
	return shared.NewConflictError(fmt.Sprintf("Stock record for product %s was modified concurrently", rec.ProductID)).
		WithDetails(map[string]any{
			"expected_version": expected,
			"current_version":  rec.Version,
		})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
