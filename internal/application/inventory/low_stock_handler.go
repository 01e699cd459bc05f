package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Alert types
const (
	AlertTypeLowStock   = "low_stock"
	AlertTypeOutOfStock = "out_of_stock"
)

// StockAlert is a low-stock notification
type StockAlert struct {
	StockRecordID  uuid.UUID `json:"stock_record_id"`
	ProductID      uuid.UUID `json:"product_id"`
	AvailableStock int       `json:"available_stock"`
	ReorderPoint   int       `json:"reorder_point"`
	AlertType      string    `json:"alert_type"`
}

// StockAlertNotifier delivers stock alerts to operators.
// Implementations may use in-app, email or chat channels.
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// LowStockHandler reacts to inventory.low_stock_detected events
type LowStockHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
	metrics  MetricsRecorder
}

// NewLowStockHandler creates a new handler for low stock events
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{
		logger:  logger,
		metrics: noopMetrics{},
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *LowStockHandler) WithNotifier(notifier StockAlertNotifier) *LowStockHandler {
	h.notifier = notifier
	return h
}

// WithMetrics sets the metrics recorder counting alerts
func (h *LowStockHandler) WithMetrics(metrics MetricsRecorder) *LowStockHandler {
	if metrics != nil {
		h.metrics = metrics
	}
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{inventory.EventTypeLowStockDetected}
}

// Handle processes a LowStockDetectedEvent
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	lowStock, ok := event.(*inventory.LowStockDetectedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeLowStockDetected, event.EventType())
	}

	alert := StockAlert{
		StockRecordID:  lowStock.StockRecordID,
		ProductID:      lowStock.ProductID,
		AvailableStock: lowStock.AvailableStock,
		ReorderPoint:   lowStock.ReorderPoint,
		AlertType:      AlertTypeLowStock,
	}
	if lowStock.AvailableStock == 0 {
		alert.AlertType = AlertTypeOutOfStock
	}

	h.logger.Warn("Low stock detected",
		zap.String("stock_record_id", alert.StockRecordID.String()),
		zap.String("product_id", alert.ProductID.String()),
		zap.Int("available_stock", alert.AvailableStock),
		zap.Int("reorder_point", alert.ReorderPoint),
		zap.String("alert_type", alert.AlertType),
		zap.Int64("version", lowStock.Version),
	)
	h.metrics.RecordLowStockAlert(ctx, alert.AlertType)

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// Notification failure must not fail event handling
			h.logger.Error("Failed to send stock alert",
				zap.String("product_id", alert.ProductID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// LoggingStockAlertNotifier writes alerts to the log. It is the default
// notifier until an operator channel is configured.
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new LoggingStockAlertNotifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Info("Stock alert",
		zap.String("product_id", alert.ProductID.String()),
		zap.String("alert_type", alert.AlertType),
		zap.Int("available_stock", alert.AvailableStock),
	)
	return nil
}

var _ shared.EventHandler = (*LowStockHandler)(nil)
