package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/handmade/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBBuckets are bucket boundaries for query duration in seconds
var DBBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

type queryStartKey struct{}

// DBInstrumentation traces and times GORM statements. Each statement gets
// an otelgorm span; statements slower than the threshold are flagged on the
// span, counted and logged.
type DBInstrumentation struct {
	slowThreshold time.Duration
	logger        *zap.Logger
	duration      *Histogram
	slowQueries   *Counter
}

// RegisterDBInstrumentation installs tracing (when enabled) and query
// metrics on db, and exports the connection pool state as observable gauges
func RegisterDBInstrumentation(db *gorm.DB, cfg config.TelemetryConfig, meter metric.Meter, logger *zap.Logger) (*DBInstrumentation, error) {
	duration, err := NewHistogram(meter, "inventory_db_query_duration_seconds", "Database statement duration", DBBuckets...)
	if err != nil {
		return nil, err
	}
	slow, err := NewCounter(meter, "inventory_db_slow_queries_total", "Statements slower than the slow query threshold", "{queries}")
	if err != nil {
		return nil, err
	}
	d := &DBInstrumentation{
		slowThreshold: cfg.DBSlowQueryThresh,
		logger:        logger,
		duration:      duration,
		slowQueries:   slow,
	}

	if cfg.Enabled && cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, fmt.Errorf("failed to register otelgorm: %w", err)
		}
	}
	if err := d.registerCallbacks(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := registerPoolGauges(meter, sqlDB); err != nil {
		return nil, err
	}

	logger.Info("Database instrumentation registered",
		zap.Bool("tracing", cfg.Enabled && cfg.DBTraceEnabled),
		zap.Duration("slow_query_threshold", cfg.DBSlowQueryThresh),
	)
	return d, nil
}

func (d *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []struct {
		name   string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, r := range registrations {
		if err := r.before("inventory_db:before_"+r.name, d.before); err != nil {
			return err
		}
		op := r.name
		if err := r.after("inventory_db:after_"+r.name, func(tx *gorm.DB) { d.after(tx, op) }); err != nil {
			return err
		}
	}
	return nil
}

func (d *DBInstrumentation) before(tx *gorm.DB) {
	if tx.Statement.Context != nil {
		tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (d *DBInstrumentation) after(tx *gorm.DB, operation string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	table := tx.Statement.Table
	if table == "" {
		table = "unknown"
	}
	attrs := []attribute.KeyValue{AttrOperation.String(operation), AttrDBTable.String(table)}
	d.duration.RecordDuration(ctx, elapsed, attrs...)

	span := trace.SpanFromContext(ctx)
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) && span.IsRecording() {
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	if d.slowThreshold <= 0 || elapsed <= d.slowThreshold {
		return
	}
	d.slowQueries.Inc(ctx, attrs...)
	span.SetAttributes(attribute.Bool("db.slow_query", true), attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()))
	d.logger.Warn("Slow query",
		zap.String("table", table),
		zap.String("operation", operation),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", tx.Statement.RowsAffected),
	)
}

func registerPoolGauges(meter metric.Meter, sqlDB *sql.DB) error {
	conns, err := meter.Int64ObservableGauge("inventory_db_pool_connections",
		metric.WithDescription("Database pool connections by state"),
		metric.WithUnit("{connections}"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrStatus.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrStatus.String("in_use")))
		return nil
	}, conns)
	if err != nil {
		return fmt.Errorf("failed to register pool gauge callback: %w", err)
	}
	return nil
}
