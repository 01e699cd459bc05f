package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/catalog"
	"github.com/handmade/backend/internal/domain/inventory"
	"go.uber.org/zap"
)

// SyncService reconciles the ledger with the product catalog
type SyncService struct {
	serviceBase
	products  catalog.ProductReader
	stockRepo inventory.StockRecordRepository
	logger    *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	txScope TransactionScope,
	products catalog.ProductReader,
	stockRepo inventory.StockRecordRepository,
	settings Settings,
	logger *zap.Logger,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		serviceBase: newServiceBase(txScope, settings),
		products:    products,
		stockRepo:   stockRepo,
		logger:      logger,
	}
}

// SyncWithCatalog creates a stock record for every catalog product that
// lacks one, seeded with the declared stock quantity, price and cost.
// Records whose physical stock differs from the declared quantity are
// reported as drifted and left untouched.
func (s *SyncService) SyncWithCatalog(ctx context.Context, actor string) (*SyncResult, error) {
	missing, err := s.products.FindWithoutStockRecord(ctx)
	if err != nil {
		return nil, err
	}

	outcomes, cancelled := runBatched(ctx, len(missing), s.settings.BulkBatchSize, s.settings.BulkWorkers,
		func(ctx context.Context, i int) itemOutcome {
			p := missing[i]
			var created *inventory.StockRecord
			err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
				var err error
				created, err = s.createFromCatalog(ctx, repos, &p, actor)
				return err
			})
			if err != nil {
				return failed(i+1, &p.ID, p.SKU, err)
			}
			s.publishDomainEvents(ctx, created)
			return itemOutcome{kind: outcomeCreated}
		})
	bulk := tallyOutcomes(ctx, s.metrics, BulkKindSync, outcomes, cancelled, s.settings.MaxBulkErrors)

	drifted, err := s.findDrift(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Catalog sync finished",
		zap.Int("missing", len(missing)),
		zap.Int("synced", bulk.CreatedCount),
		zap.Int("errors", bulk.ErrorCount),
		zap.Int("drifted", len(drifted)),
		zap.Bool("cancelled", cancelled),
	)
	return &SyncResult{
		SyncedCount: bulk.CreatedCount,
		Errors:      bulk.Errors,
		Drifted:     drifted,
	}, nil
}

func (s *SyncService) createFromCatalog(ctx context.Context, repos TransactionalRepositories, p *catalog.Product, actor string) (*inventory.StockRecord, error) {
	declared := max(p.DeclaredStock, 0)
	rec, err := inventory.NewStockRecord(p.ID, declared, p.Cost, p.Price)
	if err != nil {
		return nil, err
	}
	if p.Status == catalog.ProductStatusInactive || p.Status == catalog.ProductStatusDiscontinued {
		status := inventory.StockStatus(p.Status)
		if err := rec.ApplySettings(inventory.SettingsChange{Status: &status}); err != nil {
			return nil, err
		}
	}
	if err := repos.StockRepo().Create(ctx, rec); err != nil {
		return nil, err
	}
	entry := inventory.NewAuditLogEntry(rec.ProductID, inventory.OperationBulkUpdate,
		inventory.NewStockSnapshot(0, 0), rec.Snapshot(), declared, actor)
	entry.Notes = "catalog sync: opening balance"
	if err := repos.AuditRepo().Append(ctx, entry); err != nil {
		return nil, err
	}
	rec.AddDomainEvent(inventory.NewStockRecordCreatedEvent(rec))
	return rec, nil
}

// findDrift pages through the catalog and compares declared stock with
// the ledger's physical stock
func (s *SyncService) findDrift(ctx context.Context) ([]SyncDrift, error) {
	drifted := []SyncDrift{}
	pageSize := s.settings.BulkBatchSize
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return drifted, nil
		}
		products, err := s.products.FindAll(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}
		if len(products) == 0 {
			return drifted, nil
		}

		ids := make([]uuid.UUID, len(products))
		for i := range products {
			ids[i] = products[i].ID
		}
		records, err := s.stockRepo.FindByProductIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		physical := make(map[uuid.UUID]int, len(records))
		for i := range records {
			physical[records[i].ProductID] = records[i].PhysicalStock
		}
		for _, p := range products {
			stock, ok := physical[p.ID]
			if ok && stock != p.DeclaredStock {
				drifted = append(drifted, SyncDrift{
					ProductID:     p.ID,
					SKU:           p.SKU,
					DeclaredStock: p.DeclaredStock,
					PhysicalStock: stock,
				})
			}
		}
		if len(products) < pageSize {
			return drifted, nil
		}
	}
}
