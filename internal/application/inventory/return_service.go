package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/order"
	"github.com/handmade/backend/internal/domain/shared"
)

// ReturnService puts shipped units back into physical stock
type ReturnService struct {
	serviceBase
}

// NewReturnService creates a new ReturnService
func NewReturnService(txScope TransactionScope, settings Settings) *ReturnService {
	return &ReturnService{serviceBase: newServiceBase(txScope, settings)}
}

// ProcessReturn increments physical stock by quantity, leaving reserved
// untouched. The quantity may not exceed what was fulfilled for the
// product on that order minus what was already returned.
func (s *ReturnService) ProcessReturn(ctx context.Context, req ProcessReturnRequest, actor string) (*ProcessReturnResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity must be positive")
	}

	var (
		rec    *order.ReturnRecord
		result *MutationResult
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		res, err := repos.ReservationRepo().FindByOrderID(ctx, req.OrderID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewNotFoundError(fmt.Sprintf("No fulfillment of product %s on order %s", req.ProductID, req.OrderID))
			}
			return err
		}
		if err := res.RecordReturn(req.ProductID, req.Quantity); err != nil {
			return err
		}

		rec = order.NewReturnRecord(req.OrderID, req.ProductID, req.Quantity, req.Reason, actor)
		result, err = s.ledger.apply(ctx, repos, Mutation{
			ProductID:     req.ProductID,
			PhysicalDelta: req.Quantity,
			Operation:     inventory.OperationReturnProcessing,
			Quantity:      req.Quantity,
			OrderID:       &req.OrderID,
			AdjustmentID:  &rec.ID,
			Actor:         actor,
			Notes:         req.Reason,
		})
		if err != nil {
			return err
		}
		if err := repos.ReservationRepo().Save(ctx, res); err != nil {
			return err
		}
		return repos.ReturnRepo().Append(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.recordMutations(ctx, result)
	s.publishDomainEvents(ctx, result.Record)
	return &ProcessReturnResponse{
		ReturnID:       rec.ID,
		PhysicalAfter:  result.Audit.PhysicalAfter,
		AvailableAfter: result.Audit.AvailableAfter,
	}, nil
}

// ListReturns lists the returns booked against an order
func (s *ReturnService) ListReturns(ctx context.Context, orderID uuid.UUID) ([]ReturnRecordResponse, error) {
	var records []order.ReturnRecord
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		records, err = repos.ReturnRepo().FindByOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]ReturnRecordResponse, len(records))
	for i := range records {
		out[i] = ToReturnRecordResponse(&records[i])
	}
	return out, nil
}
