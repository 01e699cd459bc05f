package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/catalog"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"golang.org/x/sync/errgroup"
)

// Bulk run kinds reported to metrics
const (
	BulkKindUpdate = "bulk_update"
	BulkKindImport = "import"
	BulkKindSync   = "sync"
)

type itemOutcomeKind int

const (
	outcomeSkipped itemOutcomeKind = iota
	outcomeUpdated
	outcomeCreated
	outcomeFailed
)

// itemOutcome is what happened to one bulk item
type itemOutcome struct {
	kind itemOutcomeKind
	err  *BulkItemError
}

func failed(item int, productID *uuid.UUID, sku string, err error) itemOutcome {
	return itemOutcome{
		kind: outcomeFailed,
		err: &BulkItemError{
			Item:      item,
			ProductID: productID,
			SKU:       sku,
			Code:      shared.CodeOf(err),
			Reason:    err.Error(),
		},
	}
}

// BulkService applies independent per-item ledger mutations. One item's
// failure never aborts the run; items run concurrently in batches and the
// run stops at the next batch boundary once ctx is cancelled. Items that
// already committed are never rolled back.
type BulkService struct {
	serviceBase
	products catalog.ProductReader
}

// NewBulkService creates a new BulkService
func NewBulkService(txScope TransactionScope, products catalog.ProductReader, settings Settings) *BulkService {
	return &BulkService{
		serviceBase: newServiceBase(txScope, settings),
		products:    products,
	}
}

// BulkUpdate applies the same changes to every listed product. Each item
// is its own unit of work guarded by the version read inside it, so a
// concurrent reservation is never overwritten.
func (s *BulkService) BulkUpdate(ctx context.Context, req BulkUpdateRequest, actor string) (*BulkResult, error) {
	if len(req.ProductIDs) == 0 {
		return nil, shared.NewValidationError("item_ids cannot be empty")
	}
	if len(req.ProductIDs) > s.settings.MaxBulkItems {
		return nil, shared.NewValidationError(fmt.Sprintf("at most %d items per bulk update", s.settings.MaxBulkItems))
	}
	if req.Changes.IsEmpty() {
		return nil, shared.NewValidationError("changes cannot be empty")
	}
	settings := req.Changes.settings()
	notes := req.Notes
	if notes == "" {
		notes = "bulk update"
	}

	outcomes, cancelled := s.run(ctx, len(req.ProductIDs), func(ctx context.Context, i int) itemOutcome {
		productID := req.ProductIDs[i]
		if productID == uuid.Nil {
			return failed(i+1, nil, "", shared.NewValidationError("item id cannot be empty"))
		}
		var change *inventory.SettingsChange
		if settings != nil {
			copied := *settings
			change = &copied
		}
		result, err := s.applyInTx(ctx, Mutation{
			ProductID:     productID,
			PhysicalDelta: req.Changes.PhysicalDelta,
			PinVersion:    true,
			Operation:     inventory.OperationBulkUpdate,
			Actor:         actor,
			Notes:         notes,
			Settings:      change,
		})
		if err != nil {
			return failed(i+1, &productID, "", err)
		}
		s.recordMutations(ctx, result)
		s.publishDomainEvents(ctx, result.Record)
		return itemOutcome{kind: outcomeUpdated}
	})
	return s.tally(ctx, BulkKindUpdate, outcomes, cancelled), nil
}

// Import creates or updates stock records from parsed rows. Rows match a
// product by product_id or by sku. Existing records are only touched when
// updateExisting is set; their physical stock is set to the imported value
// through a ledger delta.
func (s *BulkService) Import(ctx context.Context, req ImportRequest, actor string) (*BulkResult, error) {
	if err := s.validateImport(req); err != nil {
		return nil, err
	}

	outcomes, cancelled := s.run(ctx, len(req.Records), func(ctx context.Context, i int) itemOutcome {
		row := req.Records[i]
		product, err := s.resolveProduct(ctx, row)
		if err != nil {
			return failed(i+1, row.ProductID, row.SKU, err)
		}
		outcome, err := s.importRow(ctx, product, row, req.UpdateExisting, actor)
		if err != nil {
			return failed(i+1, &product.ID, product.SKU, err)
		}
		return outcome
	})
	return s.tally(ctx, BulkKindImport, outcomes, cancelled), nil
}

func (s *BulkService) validateImport(req ImportRequest) error {
	if len(req.Records) == 0 {
		return shared.NewValidationError("records cannot be empty")
	}
	if len(req.Records) > s.settings.MaxBulkItems {
		return shared.NewValidationError(fmt.Sprintf("at most %d records per import", s.settings.MaxBulkItems))
	}
	var problems []string
	for i, row := range req.Records {
		if (row.ProductID == nil || *row.ProductID == uuid.Nil) && strings.TrimSpace(row.SKU) == "" {
			problems = append(problems, fmt.Sprintf("record %d: product_id or sku is required", i+1))
		}
		if row.PhysicalStock < 0 {
			problems = append(problems, fmt.Sprintf("record %d: physical_stock cannot be negative", i+1))
		}
	}
	if len(problems) > 0 {
		return shared.NewValidationError("Import records are malformed").WithDetails(problems)
	}
	return nil
}

func (s *BulkService) resolveProduct(ctx context.Context, row ImportRecord) (*catalog.Product, error) {
	var (
		product *catalog.Product
		err     error
	)
	if row.ProductID != nil && *row.ProductID != uuid.Nil {
		product, err = s.products.FindByID(ctx, *row.ProductID)
	} else {
		product, err = s.products.FindBySKU(ctx, strings.TrimSpace(row.SKU))
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewNotFoundError("Product not found in catalog")
	}
	return product, err
}

func (s *BulkService) importRow(ctx context.Context, product *catalog.Product, row ImportRecord, updateExisting bool, actor string) (itemOutcome, error) {
	settings := inventory.SettingsChange{
		MinStock:     row.MinStock,
		MaxStock:     row.MaxStock,
		ReorderPoint: row.ReorderPoint,
		UnitCost:     row.UnitCost,
		UnitPrice:    row.UnitPrice,
	}

	var (
		outcome itemOutcome
		created *inventory.StockRecord
		result  *MutationResult
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.StockRepo().FindByProductID(ctx, product.ID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			created, err = s.createImported(ctx, repos, product, row.PhysicalStock, settings, actor)
			if err != nil {
				return err
			}
			outcome = itemOutcome{kind: outcomeCreated}
			return nil
		case err != nil:
			return err
		}

		if !updateExisting {
			return shared.NewConflictError(fmt.Sprintf("Stock record already exists for product %s", product.ID))
		}
		m := Mutation{
			ProductID:     product.ID,
			PhysicalDelta: row.PhysicalStock - existing.PhysicalStock,
			PinVersion:    true,
			Operation:     inventory.OperationBulkUpdate,
			Actor:         actor,
			Notes:         "import",
		}
		if !settings.IsEmpty() {
			m.Settings = &settings
		}
		outcome = itemOutcome{kind: outcomeUpdated}
		if m.PhysicalDelta == 0 && m.Settings == nil {
			return nil
		}
		result, err = s.ledger.apply(ctx, repos, m)
		return err
	})
	if err != nil {
		return itemOutcome{}, err
	}

	if created != nil {
		s.publishDomainEvents(ctx, created)
	}
	if result != nil {
		s.recordMutations(ctx, result)
		s.publishDomainEvents(ctx, result.Record)
	}
	return outcome, nil
}

// createImported inserts a new record seeded from the catalog and appends
// an audit entry for the opening balance in the same transaction.
func (s *BulkService) createImported(ctx context.Context, repos TransactionalRepositories, product *catalog.Product, physical int, settings inventory.SettingsChange, actor string) (*inventory.StockRecord, error) {
	rec, err := inventory.NewStockRecord(product.ID, physical, product.Cost, product.Price)
	if err != nil {
		return nil, err
	}
	if !settings.IsEmpty() {
		if err := rec.ApplySettings(settings); err != nil {
			return nil, err
		}
	}
	if err := repos.StockRepo().Create(ctx, rec); err != nil {
		return nil, err
	}
	entry := inventory.NewAuditLogEntry(rec.ProductID, inventory.OperationBulkUpdate,
		inventory.NewStockSnapshot(0, 0), rec.Snapshot(), physical, actor)
	entry.Notes = "import: opening balance"
	if err := repos.AuditRepo().Append(ctx, entry); err != nil {
		return nil, err
	}
	rec.AddDomainEvent(inventory.NewStockRecordCreatedEvent(rec))
	return rec, nil
}

func (s *BulkService) applyInTx(ctx context.Context, m Mutation) (*MutationResult, error) {
	var result *MutationResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		result, err = s.ledger.apply(ctx, repos, m)
		return err
	})
	return result, err
}

// run executes fn for items [0, n) in batches of BulkBatchSize with at most
// BulkWorkers items in flight. Cancellation is checked between batches only.
func (s *BulkService) run(ctx context.Context, n int, fn func(ctx context.Context, i int) itemOutcome) ([]itemOutcome, bool) {
	return runBatched(ctx, n, s.settings.BulkBatchSize, s.settings.BulkWorkers, fn)
}

func runBatched(ctx context.Context, n, batchSize, workers int, fn func(ctx context.Context, i int) itemOutcome) ([]itemOutcome, bool) {
	outcomes := make([]itemOutcome, n)
	for start := 0; start < n; start += batchSize {
		select {
		case <-ctx.Done():
			return outcomes, true
		default:
		}

		end := min(start+batchSize, n)
		var g errgroup.Group
		g.SetLimit(workers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				// Items are isolated: an item only ever reports through its outcome.
				outcomes[i] = fn(ctx, i)
				return nil
			})
		}
		_ = g.Wait()
	}
	return outcomes, false
}

// tally folds per-item outcomes into the result in item order
func (s *BulkService) tally(ctx context.Context, kind string, outcomes []itemOutcome, cancelled bool) *BulkResult {
	return tallyOutcomes(ctx, s.metrics, kind, outcomes, cancelled, s.settings.MaxBulkErrors)
}

func tallyOutcomes(ctx context.Context, metrics MetricsRecorder, kind string, outcomes []itemOutcome, cancelled bool, maxErrors int) *BulkResult {
	result := &BulkResult{
		Errors:    []BulkItemError{},
		Total:     len(outcomes),
		Cancelled: cancelled,
	}
	for _, o := range outcomes {
		switch o.kind {
		case outcomeUpdated:
			result.UpdatedCount++
		case outcomeCreated:
			result.CreatedCount++
		case outcomeFailed:
			result.ErrorCount++
			if len(result.Errors) < maxErrors {
				result.Errors = append(result.Errors, *o.err)
			} else {
				result.ErrorsTruncated = true
			}
		}
	}
	metrics.RecordBulkRun(ctx, kind, result.UpdatedCount+result.CreatedCount, result.ErrorCount)
	return result
}
