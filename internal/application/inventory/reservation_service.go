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

// ReservationService drives the order-scoped reservation state machine:
// reserve, release and fulfill.
type ReservationService struct {
	serviceBase
}

// NewReservationService creates a new ReservationService
func NewReservationService(txScope TransactionScope, settings Settings) *ReservationService {
	return &ReservationService{serviceBase: newServiceBase(txScope, settings)}
}

// Reserve holds stock for every remaining line of an order. Either every
// line is reserved or none is: any short line rolls back the whole unit
// of work and the error names every short line.
func (s *ReservationService) Reserve(ctx context.Context, orderID uuid.UUID, actor string) (*ReservationResponse, error) {
	var (
		o       *order.Order
		res     *order.Reservation
		results []*MutationResult
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		o, err = loadOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if err := o.EnsureReservable(); err != nil {
			return err
		}

		res, err = repos.ReservationRepo().FindByOrderID(ctx, orderID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			res = order.NewReservation(o)
		case err != nil:
			return err
		}

		plan, err := res.PlanReserve()
		if err != nil {
			return err
		}
		if err := s.checkAvailability(ctx, repos, plan); err != nil {
			return err
		}

		for _, line := range plan {
			result, err := s.ledger.apply(ctx, repos, Mutation{
				ProductID:     line.ProductID,
				ReservedDelta: line.Quantity,
				Operation:     inventory.OperationReservation,
				Quantity:      line.Quantity,
				OrderID:       &orderID,
				Actor:         actor,
			})
			if err != nil {
				return s.shortageFromLedger(ctx, repos, line, err)
			}
			results = append(results, result)
		}

		res.MarkReserved()
		return repos.ReservationRepo().Save(ctx, res)
	})
	if err != nil {
		s.metrics.RecordReservation(ctx, false, shared.CodeOf(err))
		return nil, err
	}

	s.metrics.RecordReservation(ctx, true, "")
	s.recordMutations(ctx, results...)
	s.publishResults(ctx, results)
	resp := ToReservationResponse(o, res)
	return &resp, nil
}

// checkAvailability compares every planned line against current available
// stock and reports all short lines at once. The conditional update in the
// ledger still guards against a concurrent reservation winning in between.
func (s *ReservationService) checkAvailability(ctx context.Context, repos TransactionalRepositories, plan []order.ReservationRequest) error {
	productIDs := make([]uuid.UUID, 0, len(plan))
	requested := make(map[uuid.UUID]int, len(plan))
	for _, line := range plan {
		if _, seen := requested[line.ProductID]; !seen {
			productIDs = append(productIDs, line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
	}

	records, err := repos.StockRepo().FindByProductIDs(ctx, productIDs)
	if err != nil {
		return err
	}
	available := make(map[uuid.UUID]int, len(records))
	for i := range records {
		available[records[i].ProductID] = records[i].AvailableStock()
	}

	var short []inventory.ShortageLine
	for _, line := range plan {
		if requested[line.ProductID] > available[line.ProductID] {
			short = append(short, inventory.ShortageLine{
				OrderItemID: line.OrderItemID,
				ProductID:   line.ProductID,
				Requested:   line.Quantity,
				Available:   available[line.ProductID],
			})
		}
	}
	if len(short) > 0 {
		return inventory.NewInsufficientStockError(short)
	}
	return nil
}

// shortageFromLedger turns a failed reservation delta into
// INSUFFICIENT_STOCK naming the line. Other errors pass through.
func (s *ReservationService) shortageFromLedger(ctx context.Context, repos TransactionalRepositories, line order.ReservationRequest, err error) error {
	if !errors.Is(err, inventory.ErrStockGuardFailed) && !errors.Is(err, inventory.ErrInvalidMutation) {
		return err
	}
	availableNow := 0
	if rec, findErr := repos.StockRepo().FindByProductID(ctx, line.ProductID); findErr == nil {
		availableNow = rec.AvailableStock()
	}
	return inventory.NewInsufficientStockError([]inventory.ShortageLine{{
		OrderItemID: line.OrderItemID,
		ProductID:   line.ProductID,
		Requested:   line.Quantity,
		Available:   availableNow,
	}})
}

// Release frees whatever the order still holds. Releasing an order with
// nothing reserved succeeds without touching the ledger.
func (s *ReservationService) Release(ctx context.Context, orderID uuid.UUID, actor string) (*ReservationResponse, error) {
	var (
		o       *order.Order
		res     *order.Reservation
		results []*MutationResult
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		o, err = loadOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		res, err = repos.ReservationRepo().FindByOrderID(ctx, orderID)
		if errors.Is(err, shared.ErrNotFound) {
			res = order.NewReservation(o)
			return nil
		}
		if err != nil {
			return err
		}

		plan := res.PlanRelease()
		if len(plan) == 0 {
			return nil
		}
		for _, line := range plan {
			result, err := s.ledger.apply(ctx, repos, Mutation{
				ProductID:     line.ProductID,
				ReservedDelta: -line.Quantity,
				Operation:     inventory.OperationRelease,
				Quantity:      line.Quantity,
				OrderID:       &orderID,
				Actor:         actor,
			})
			if err != nil {
				return err
			}
			results = append(results, result)
		}

		res.MarkReleased()
		return repos.ReservationRepo().Save(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	s.recordMutations(ctx, results...)
	s.publishResults(ctx, results)
	resp := ToReservationResponse(o, res)
	return &resp, nil
}

// Fulfill ships quantity of one order line: physical and reserved stock
// both drop by quantity. Completing the last line moves the order to
// fulfilled and records the transition.
func (s *ReservationService) Fulfill(ctx context.Context, orderID, itemID uuid.UUID, req FulfillItemRequest, actor string) (*FulfillItemResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity must be positive")
	}

	var (
		o        *order.Order
		res      *order.Reservation
		line     *order.FulfillmentLine
		result   *MutationResult
		complete bool
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		o, err = loadOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if err := o.EnsureFulfillable(); err != nil {
			return err
		}
		if _, ok := o.ItemByID(itemID); !ok {
			return shared.NewNotFoundError(fmt.Sprintf("Order item %s not found in order %s", itemID, orderID))
		}

		res, err = repos.ReservationRepo().FindByOrderID(ctx, orderID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewInvalidStateError(fmt.Sprintf("Order %s has no stock reserved", orderID))
		}
		if err != nil {
			return err
		}

		line, complete, err = res.Fulfill(itemID, req.Quantity, req.Method)
		if err != nil {
			return err
		}

		result, err = s.ledger.apply(ctx, repos, Mutation{
			ProductID:     line.ProductID,
			PhysicalDelta: -req.Quantity,
			ReservedDelta: -req.Quantity,
			Operation:     inventory.OperationFulfillment,
			Quantity:      req.Quantity,
			OrderID:       &orderID,
			Actor:         actor,
			Notes:         req.Method,
		})
		if err != nil {
			return err
		}
		if err := repos.ReservationRepo().Save(ctx, res); err != nil {
			return err
		}

		if !complete {
			return nil
		}
		change, err := o.MarkFulfilled(actor, "all lines fulfilled")
		if err != nil {
			return err
		}
		if err := repos.OrderRepo().UpdateStatus(ctx, o, change.FromStatus); err != nil {
			return err
		}
		return repos.OrderRepo().AppendStatusChange(ctx, change)
	})
	if err != nil {
		return nil, err
	}

	s.recordMutations(ctx, result)
	s.publishDomainEvents(ctx, result.Record, res)
	return &FulfillItemResponse{
		Line:           toFulfillmentLineResponse(line),
		OrderStatus:    o.Status,
		OrderFulfilled: complete,
		PhysicalAfter:  result.Record.PhysicalStock,
		ReservedAfter:  result.Record.ReservedStock,
	}, nil
}

// GetFulfillment returns the fulfillment lines and overall status of an order
func (s *ReservationService) GetFulfillment(ctx context.Context, orderID uuid.UUID) (*ReservationResponse, error) {
	var resp ReservationResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := loadOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		res, err := repos.ReservationRepo().FindByOrderID(ctx, orderID)
		if errors.Is(err, shared.ErrNotFound) {
			res = order.NewReservation(o)
		} else if err != nil {
			return err
		}
		resp = ToReservationResponse(o, res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *ReservationService) publishResults(ctx context.Context, results []*MutationResult) {
	for _, r := range results {
		s.publishDomainEvents(ctx, r.Record)
	}
}

func loadOrder(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID) (*order.Order, error) {
	o, err := repos.OrderRepo().FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Order %s not found", orderID))
		}
		return nil, err
	}
	return o, nil
}
