package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyMetrics counts what an IdempotentHandler did
type IdempotencyMetrics struct {
	EventsProcessed atomic.Int64
	EventsDuplicate atomic.Int64
	EventsFailed    atomic.Int64
}

// IdempotencyStats is a snapshot of IdempotencyMetrics
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// Stats returns a snapshot of the counters
func (m *IdempotencyMetrics) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: m.EventsProcessed.Load(),
		EventsDuplicate: m.EventsDuplicate.Load(),
		EventsFailed:    m.EventsFailed.Load(),
	}
}

// KeyFunc derives the deduplication key of an event
type KeyFunc func(event shared.DomainEvent) string

// EventIDKey deduplicates redeliveries of the same event
func EventIDKey(event shared.DomainEvent) string {
	return "event:" + event.EventID().String()
}

// LowStockKey deduplicates low-stock alerts per record version, so two
// events describing the same committed state alert once
func LowStockKey(event shared.DomainEvent) string {
	if e, ok := event.(*inventory.LowStockDetectedEvent); ok {
		return fmt.Sprintf("low_stock:%s:%d", e.StockRecordID, e.Version)
	}
	return EventIDKey(event)
}

// IdempotentHandler runs the wrapped handler at most once per key
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	keyFn   KeyFunc
	logger  *zap.Logger
	metrics *IdempotencyMetrics
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets TTL and the enabled switch
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.config = config }
}

// WithIdempotencyMetrics shares a metrics instance between handlers
func WithIdempotencyMetrics(metrics *IdempotencyMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.metrics = metrics }
}

// WithKeyFunc replaces the default event-id key
func WithKeyFunc(fn KeyFunc) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.keyFn = fn }
}

// NewIdempotentHandler wraps handler with deduplication through store
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		keyFn:   EventIDKey,
		logger:  logger,
		metrics: &IdempotencyMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes delegates to the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event's key and runs the wrapped handler. A store
// failure does not drop the event. A handler failure releases the key so
// a redelivery can retry.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	key := h.keyFn(event)
	fresh, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("Idempotency check failed, processing anyway",
			zap.String("key", key),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	case !fresh:
		h.metrics.EventsDuplicate.Add(1)
		h.logger.Debug("Duplicate event skipped",
			zap.String("key", key),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.metrics.EventsFailed.Add(1)
		if forgetErr := h.store.Forget(ctx, key); forgetErr != nil {
			h.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(forgetErr))
		}
		return err
	}
	h.metrics.EventsProcessed.Add(1)
	return nil
}

// Metrics returns the handler's counters
func (h *IdempotentHandler) Metrics() *IdempotencyMetrics {
	return h.metrics
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
