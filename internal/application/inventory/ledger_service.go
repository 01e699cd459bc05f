package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/catalog"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
)

// LedgerService exposes the stock ledger: record CRUD, raw mutations and
// settings updates. Every write goes through the ledger primitive.
type LedgerService struct {
	serviceBase
	stockRepo inventory.StockRecordRepository
	products  catalog.ProductReader
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	txScope TransactionScope,
	stockRepo inventory.StockRecordRepository,
	products catalog.ProductReader,
	settings Settings,
) *LedgerService {
	return &LedgerService{
		serviceBase: newServiceBase(txScope, settings),
		stockRepo:   stockRepo,
		products:    products,
	}
}

// Create adds the stock record of a catalog product. Unit cost and price
// default to the catalog's declared values.
func (s *LedgerService) Create(ctx context.Context, req CreateStockRecordRequest) (*StockRecordResponse, error) {
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Product %s not found in catalog", req.ProductID))
		}
		return nil, err
	}

	cost, price := product.Cost, product.Price
	if req.UnitCost != nil {
		cost = *req.UnitCost
	}
	if req.UnitPrice != nil {
		price = *req.UnitPrice
	}
	rec, err := inventory.NewStockRecord(product.ID, req.PhysicalStock, cost, price)
	if err != nil {
		return nil, err
	}
	if err := rec.ApplySettings(inventory.SettingsChange{
		MinStock:     &req.MinStock,
		MaxStock:     &req.MaxStock,
		ReorderPoint: req.ReorderPoint,
	}); err != nil {
		return nil, err
	}

	if err := s.stockRepo.Create(ctx, rec); err != nil {
		return nil, err
	}
	rec.AddDomainEvent(inventory.NewStockRecordCreatedEvent(rec))
	s.publishDomainEvents(ctx, rec)

	resp := ToStockRecordResponse(rec, s.settings.LowStockThreshold)
	return &resp, nil
}

// GetByProductID retrieves the stock record of a product
func (s *LedgerService) GetByProductID(ctx context.Context, productID uuid.UUID) (*StockRecordResponse, error) {
	rec, err := s.findByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := ToStockRecordResponse(rec, s.settings.LowStockThreshold)
	return &resp, nil
}

// List returns one page of stock records
func (s *LedgerService) List(ctx context.Context, f StockListFilter) (shared.Paginated[StockRecordResponse], error) {
	filter := inventory.StockFilter{
		Search:       f.Search,
		LowStockOnly: f.LowStockOnly,
		Threshold:    f.Threshold,
		SortBy:       f.SortBy,
		SortDesc:     f.SortOrder == "desc",
		Page:         shared.Pagination{Offset: f.Offset, Limit: f.Limit}.Normalize(),
	}
	if f.Status != "" {
		status := inventory.StockStatus(f.Status)
		filter.Status = &status
	}
	if err := filter.Validate(); err != nil {
		return shared.Paginated[StockRecordResponse]{}, err
	}

	records, total, err := s.stockRepo.List(ctx, filter, s.settings.LowStockThreshold)
	if err != nil {
		return shared.Paginated[StockRecordResponse]{}, err
	}
	items := make([]StockRecordResponse, len(records))
	for i := range records {
		items[i] = ToStockRecordResponse(&records[i], s.settings.LowStockThreshold)
	}
	return shared.NewPaginated(items, total, filter.Page), nil
}

// Delete removes a stock record. Records holding reserved stock or carrying
// movement history are kept.
func (s *LedgerService) Delete(ctx context.Context, productID uuid.UUID) error {
	rec, err := s.findByProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := rec.EnsureDeletable(); err != nil {
		return err
	}
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		hasHistory, err := repos.MovementRepo().ExistsForInventory(ctx, rec.ID)
		if err != nil {
			return err
		}
		if hasHistory {
			return shared.NewConflictError("Cannot delete stock record with movement history")
		}
		if err := repos.StockRepo().Delete(ctx, rec.ID); err != nil {
			if errors.Is(err, inventory.ErrStockGuardFailed) {
				return shared.NewConflictError("Stock record gained reservations while being deleted")
			}
			return err
		}
		return nil
	})
}

// Mutate applies an operator's physical correction through the ledger,
// audited as manual_adjustment. Reserved stock belongs to order
// reservations and is refused here; a stale expected_version fails with
// CONFLICT.
func (s *LedgerService) Mutate(ctx context.Context, productID uuid.UUID, req MutateStockRequest, actor string) (*MutationResponse, error) {
	if req.ReservedDelta != 0 {
		return nil, shared.NewValidationError("Reserved stock only changes through order reservations")
	}
	if req.OperationType != "" && inventory.OperationType(req.OperationType) != inventory.OperationManualAdjustment {
		return nil, shared.NewValidationError(fmt.Sprintf("Operation %q cannot be recorded by a manual mutation", req.OperationType))
	}
	if req.PhysicalDelta == 0 {
		return nil, shared.NewValidationError("physical_delta must not be zero")
	}
	adjustmentID := uuid.New()
	m := Mutation{
		ProductID:       productID,
		PhysicalDelta:   req.PhysicalDelta,
		ExpectedVersion: req.ExpectedVersion,
		Operation:       inventory.OperationManualAdjustment,
		AdjustmentID:    &adjustmentID,
		Actor:           actor,
		Notes:           req.Notes,
	}
	return s.mutate(ctx, m)
}

// UpdateSettings changes thresholds, prices or status. The change is
// audited as a manual_adjustment with zero quantity.
func (s *LedgerService) UpdateSettings(ctx context.Context, productID uuid.UUID, req UpdateSettingsRequest, actor string) (*MutationResponse, error) {
	change := req.ToSettingsChange()
	if change.IsEmpty() {
		return nil, shared.NewValidationError("No settings to update")
	}
	notes := req.Notes
	if notes == "" {
		notes = "settings updated"
	}
	return s.mutate(ctx, Mutation{
		ProductID:       productID,
		ExpectedVersion: req.ExpectedVersion,
		Operation:       inventory.OperationManualAdjustment,
		Actor:           actor,
		Notes:           notes,
		Settings:        &change,
	})
}

func (s *LedgerService) mutate(ctx context.Context, m Mutation) (*MutationResponse, error) {
	var result *MutationResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		result, err = s.ledger.apply(ctx, repos, m)
		return err
	})
	if err != nil {
		if shared.CodeOf(err) == shared.CodeConflict {
			s.metrics.RecordConflict(ctx, string(m.Operation))
		}
		return nil, err
	}

	s.recordMutations(ctx, result)
	s.publishDomainEvents(ctx, result.Record)
	return &MutationResponse{
		Record: ToStockRecordResponse(result.Record, s.settings.LowStockThreshold),
		Audit:  ToAuditEntryResponse(result.Audit),
	}, nil
}

func (s *LedgerService) findByProduct(ctx context.Context, productID uuid.UUID) (*inventory.StockRecord, error) {
	rec, err := s.stockRepo.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("No stock record for product %s", productID))
		}
		return nil, err
	}
	return rec, nil
}
