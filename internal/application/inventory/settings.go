package inventory

import (
	"context"

	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
)

// Settings tunes the inventory services. Zero values fall back to defaults.
type Settings struct {
	// LowStockThreshold is the reorder point used when a record has none
	LowStockThreshold int
	// BulkWorkers bounds concurrent per-item mutations in bulk and import runs
	BulkWorkers int
	// BulkBatchSize is the number of items between cancellation checks
	BulkBatchSize int
	// MaxBulkItems caps item_ids / records per request
	MaxBulkItems int
	// MaxBulkErrors caps the per-item errors kept in a result
	MaxBulkErrors int
}

// DefaultSettings returns the defaults used by the server
func DefaultSettings() Settings {
	return Settings{
		LowStockThreshold: inventory.DefaultLowStockThreshold,
		BulkWorkers:       4,
		BulkBatchSize:     100,
		MaxBulkItems:      5000,
		MaxBulkErrors:     500,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.LowStockThreshold <= 0 {
		s.LowStockThreshold = d.LowStockThreshold
	}
	if s.BulkWorkers <= 0 {
		s.BulkWorkers = d.BulkWorkers
	}
	if s.BulkBatchSize <= 0 {
		s.BulkBatchSize = d.BulkBatchSize
	}
	if s.MaxBulkItems <= 0 {
		s.MaxBulkItems = d.MaxBulkItems
	}
	if s.MaxBulkErrors <= 0 {
		s.MaxBulkErrors = d.MaxBulkErrors
	}
	return s
}

// MetricsRecorder receives business measurements from the services.
// The telemetry package provides the OpenTelemetry implementation.
type MetricsRecorder interface {
	RecordMutation(ctx context.Context, op inventory.OperationType, quantity int)
	RecordReservation(ctx context.Context, succeeded bool, errCode string)
	RecordConflict(ctx context.Context, operation string)
	RecordBulkRun(ctx context.Context, kind string, succeeded, failed int)
	RecordLowStockAlert(ctx context.Context, alertType string)
}

type noopMetrics struct{}

func (noopMetrics) RecordMutation(context.Context, inventory.OperationType, int) {}
func (noopMetrics) RecordReservation(context.Context, bool, string)              {}
func (noopMetrics) RecordConflict(context.Context, string)                       {}
func (noopMetrics) RecordBulkRun(context.Context, string, int, int)              {}
func (noopMetrics) RecordLowStockAlert(context.Context, string)                  {}

// serviceBase holds what every inventory service shares: the transaction
// scope, the ledger primitive, the optional event publisher and metrics.
type serviceBase struct {
	txScope        TransactionScope
	ledger         *ledger
	settings       Settings
	eventPublisher shared.EventPublisher
	metrics        MetricsRecorder
}

func newServiceBase(txScope TransactionScope, settings Settings) serviceBase {
	settings = settings.withDefaults()
	return serviceBase{
		txScope:  txScope,
		ledger:   &ledger{lowStockFallback: settings.LowStockThreshold},
		settings: settings,
		metrics:  noopMetrics{},
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *serviceBase) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *serviceBase) SetMetrics(metrics MetricsRecorder) {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	s.metrics = metrics
}

// publishDomainEvents publishes and clears the pending events of the
// given aggregates. Called after commit; publish errors are logged by the
// event bus, not propagated.
func (s *serviceBase) publishDomainEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		_ = s.eventPublisher.Publish(ctx, events...)
		agg.ClearDomainEvents()
	}
}

// recordMutations reports each committed ledger mutation to metrics
func (s *serviceBase) recordMutations(ctx context.Context, results ...*MutationResult) {
	for _, r := range results {
		if r == nil || r.Audit == nil {
			continue
		}
		s.metrics.RecordMutation(ctx, r.Audit.OperationType, r.Audit.QuantityAffected)
	}
}
