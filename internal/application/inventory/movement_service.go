package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
)

// MovementService records operator-visible stock events such as restocks
// and damage write-offs. The physical change itself goes through the
// ledger in the same transaction as the movement row.
type MovementService struct {
	serviceBase
	stockRepo    inventory.StockRecordRepository
	movementRepo inventory.StockMovementRepository
}

// NewMovementService creates a new MovementService
func NewMovementService(
	txScope TransactionScope,
	stockRepo inventory.StockRecordRepository,
	movementRepo inventory.StockMovementRepository,
	settings Settings,
) *MovementService {
	return &MovementService{
		serviceBase:  newServiceBase(txScope, settings),
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
	}
}

// RecordMovement applies delta to physical stock and appends the movement
func (s *MovementService) RecordMovement(ctx context.Context, productID uuid.UUID, req RecordMovementRequest, actor string) (*RecordMovementResponse, error) {
	movementType := inventory.MovementType(req.Type)
	if err := movementType.ValidateDelta(req.QuantityDelta); err != nil {
		return nil, err
	}

	movementID := uuid.New()
	var (
		movement *inventory.StockMovement
		result   *MutationResult
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		result, err = s.ledger.apply(ctx, repos, Mutation{
			ProductID:     productID,
			PhysicalDelta: req.QuantityDelta,
			Operation:     inventory.OperationManualAdjustment,
			Quantity:      abs(req.QuantityDelta),
			AdjustmentID:  &movementID,
			Actor:         actor,
			Notes:         movementNotes(movementType, req.Notes),
		})
		if err != nil {
			return err
		}

		movement = inventory.NewStockMovement(result.Record.ID, movementType, req.QuantityDelta,
			result.Audit.PhysicalBefore, result.Audit.PhysicalAfter, actor, req.Notes)
		movement.ID = movementID
		return repos.MovementRepo().Append(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.recordMutations(ctx, result)
	s.publishDomainEvents(ctx, result.Record)
	return &RecordMovementResponse{
		Movement: ToMovementResponse(movement),
		Record:   ToStockRecordResponse(result.Record, s.settings.LowStockThreshold),
	}, nil
}

// ListMovements returns the movement history of a product newest first
func (s *MovementService) ListMovements(ctx context.Context, productID uuid.UUID, f MovementListFilter) (shared.Paginated[MovementResponse], error) {
	rec, err := s.stockRepo.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Paginated[MovementResponse]{}, shared.NewNotFoundError(fmt.Sprintf("No stock record for product %s", productID))
		}
		return shared.Paginated[MovementResponse]{}, err
	}

	filter := inventory.MovementFilter{From: f.From, To: f.To}
	if f.Type != "" {
		t := inventory.MovementType(f.Type)
		filter.Type = &t
	}
	page := shared.Pagination{Offset: f.Offset, Limit: f.Limit}.Normalize()
	movements, total, err := s.movementRepo.FindByInventory(ctx, rec.ID, filter, page)
	if err != nil {
		return shared.Paginated[MovementResponse]{}, err
	}
	items := make([]MovementResponse, len(movements))
	for i := range movements {
		items[i] = ToMovementResponse(&movements[i])
	}
	return shared.NewPaginated(items, total, page), nil
}

// Trend sums the signed movement deltas per type over the last window
func (s *MovementService) Trend(ctx context.Context, productID uuid.UUID, window time.Duration) (map[inventory.MovementType]int, error) {
	rec, err := s.stockRepo.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("No stock record for product %s", productID))
		}
		return nil, err
	}
	return s.movementRepo.SumSince(ctx, rec.ID, time.Now().Add(-window))
}

func movementNotes(t inventory.MovementType, notes string) string {
	if notes == "" {
		return string(t)
	}
	return string(t) + ": " + notes
}
