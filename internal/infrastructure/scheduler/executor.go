package scheduler

import (
	"context"
	"fmt"

	appinv "github.com/handmade/backend/internal/application/inventory"
	"github.com/handmade/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SchedulerActor is the actor recorded on audit entries written by jobs
const SchedulerActor = "system:scheduler"

const maxLoggedProducts = 20

// CatalogSyncer reconciles the ledger with the catalog
type CatalogSyncer interface {
	SyncWithCatalog(ctx context.Context, actor string) (*appinv.SyncResult, error)
}

// LowStockLister lists records at or below their reorder point
type LowStockLister interface {
	LowStockItems(ctx context.Context) (*appinv.LowStockResponse, error)
}

// GaugeCollector samples inventory gauges from a stats provider
type GaugeCollector interface {
	CollectGauges(ctx context.Context, provider telemetry.StatsProvider) error
}

// InventoryJobExecutor runs the inventory background jobs
type InventoryJobExecutor struct {
	syncer   CatalogSyncer
	lowStock LowStockLister
	stats    telemetry.StatsProvider
	gauges   GaugeCollector
	logger   *zap.Logger
}

// NewInventoryJobExecutor creates an executor. gauges may be nil when
// metrics are disabled; the gauge job then does nothing.
func NewInventoryJobExecutor(
	syncer CatalogSyncer,
	lowStock LowStockLister,
	stats telemetry.StatsProvider,
	gauges GaugeCollector,
	logger *zap.Logger,
) *InventoryJobExecutor {
	return &InventoryJobExecutor{
		syncer:   syncer,
		lowStock: lowStock,
		stats:    stats,
		gauges:   gauges,
		logger:   logger,
	}
}

// Execute runs job inside a span and with profiling labels naming the job
func (e *InventoryJobExecutor) Execute(ctx context.Context, job *Job) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "scheduler."+string(job.Name),
		telemetry.SpanAttrJob, string(job.Name),
		"retry_count", job.RetryCount,
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	telemetry.WithProfilingLabels(ctx, map[string]string{telemetry.ProfilingLabelJob: string(job.Name)}, func(ctx context.Context) {
		err = e.run(ctx, job.Name)
	})
	return err
}

func (e *InventoryJobExecutor) run(ctx context.Context, name JobName) error {
	switch name {
	case JobCatalogSync:
		return e.catalogSync(ctx)
	case JobInventoryGauges:
		if e.gauges == nil {
			return nil
		}
		return e.gauges.CollectGauges(ctx, e.stats)
	case JobLowStockScan:
		return e.lowStockScan(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
}

func (e *InventoryJobExecutor) catalogSync(ctx context.Context) error {
	result, err := e.syncer.SyncWithCatalog(ctx, SchedulerActor)
	if err != nil {
		return fmt.Errorf("catalog sync: %w", err)
	}
	if len(result.Drifted) > 0 {
		e.logger.Warn("Ledger drifted from declared catalog stock",
			zap.Int("drifted", len(result.Drifted)),
		)
	}
	return nil
}

func (e *InventoryJobExecutor) lowStockScan(ctx context.Context) error {
	resp, err := e.lowStock.LowStockItems(ctx)
	if err != nil {
		return fmt.Errorf("low stock scan: %w", err)
	}
	if resp.Count == 0 {
		return nil
	}
	ids := make([]string, 0, min(len(resp.Items), maxLoggedProducts))
	for _, item := range resp.Items[:min(len(resp.Items), maxLoggedProducts)] {
		ids = append(ids, item.ProductID.String())
	}
	e.logger.Warn("Products at or below reorder point",
		zap.Int("count", resp.Count),
		zap.String("total_value", resp.TotalValue.StringFixed(2)),
		zap.Strings("product_ids", ids),
	)
	return nil
}
