package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// StockRecordResponse represents a stock record in API responses
type StockRecordResponse struct {
	ID             uuid.UUID             `json:"id"`
	ProductID      uuid.UUID             `json:"product_id"`
	PhysicalStock  int                   `json:"physical_stock"`
	ReservedStock  int                   `json:"reserved_stock"`
	AvailableStock int                   `json:"available_stock"`
	MinStock       int                   `json:"min_stock"`
	MaxStock       int                   `json:"max_stock"`
	ReorderPoint   *int                  `json:"reorder_point"`
	UnitCost       decimal.Decimal       `json:"unit_cost"`
	UnitPrice      decimal.Decimal       `json:"unit_price"`
	InventoryValue decimal.Decimal       `json:"inventory_value"`
	Status         inventory.StockStatus `json:"status"`
	IsLowStock     bool                  `json:"is_low_stock"`
	LastRestocked  *time.Time            `json:"last_restocked,omitempty"`
	Version        int64                 `json:"version"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ToStockRecordResponse converts a domain StockRecord to a response
func ToStockRecordResponse(r *inventory.StockRecord, lowStockFallback int) StockRecordResponse {
	return StockRecordResponse{
		ID:             r.ID,
		ProductID:      r.ProductID,
		PhysicalStock:  r.PhysicalStock,
		ReservedStock:  r.ReservedStock,
		AvailableStock: r.AvailableStock(),
		MinStock:       r.MinStock,
		MaxStock:       r.MaxStock,
		ReorderPoint:   r.ReorderPoint,
		UnitCost:       r.UnitCost,
		UnitPrice:      r.UnitPrice,
		InventoryValue: r.InventoryValue(),
		Status:         r.Status,
		IsLowStock:     r.IsLowStock(lowStockFallback),
		LastRestocked:  r.LastRestocked,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// AuditEntryResponse represents an audit log entry in API responses
type AuditEntryResponse struct {
	ID                  uuid.UUID               `json:"id"`
	ProductID           uuid.UUID               `json:"product_id"`
	OperationType       inventory.OperationType `json:"operation_type"`
	PhysicalBefore      int                     `json:"physical_before"`
	PhysicalAfter       int                     `json:"physical_after"`
	ReservedBefore      int                     `json:"reserved_before"`
	ReservedAfter       int                     `json:"reserved_after"`
	AvailableBefore     int                     `json:"available_before"`
	AvailableAfter      int                     `json:"available_after"`
	QuantityAffected    int                     `json:"quantity_affected"`
	RelatedOrderID      *uuid.UUID              `json:"related_order_id,omitempty"`
	RelatedAdjustmentID *uuid.UUID              `json:"related_adjustment_id,omitempty"`
	Actor               string                  `json:"actor"`
	Timestamp           time.Time               `json:"timestamp"`
	Notes               string                  `json:"notes,omitempty"`
}

// ToAuditEntryResponse converts a domain AuditLogEntry to a response
func ToAuditEntryResponse(e *inventory.AuditLogEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:                  e.ID,
		ProductID:           e.ProductID,
		OperationType:       e.OperationType,
		PhysicalBefore:      e.PhysicalBefore,
		PhysicalAfter:       e.PhysicalAfter,
		ReservedBefore:      e.ReservedBefore,
		ReservedAfter:       e.ReservedAfter,
		AvailableBefore:     e.AvailableBefore,
		AvailableAfter:      e.AvailableAfter,
		QuantityAffected:    e.QuantityAffected,
		RelatedOrderID:      e.RelatedOrderID,
		RelatedAdjustmentID: e.RelatedAdjustmentID,
		Actor:               e.Actor,
		Timestamp:           e.Timestamp,
		Notes:               e.Notes,
	}
}

// MutationResponse is the result of a ledger mutation
type MutationResponse struct {
	Record StockRecordResponse `json:"record"`
	Audit  AuditEntryResponse  `json:"audit_entry"`
}

// CreateStockRecordRequest creates the ledger entry of a catalog product.
// Cost and price default to the catalog's declared values.
type CreateStockRecordRequest struct {
	ProductID     uuid.UUID        `json:"product_id" binding:"required"`
	PhysicalStock int              `json:"physical_stock" binding:"min=0"`
	MinStock      int              `json:"min_stock" binding:"min=0"`
	MaxStock      int              `json:"max_stock" binding:"min=0"`
	ReorderPoint  *int             `json:"reorder_point" binding:"omitempty,min=0"`
	UnitCost      *decimal.Decimal `json:"unit_cost"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
}

// StockListFilter represents filter options for the stock list
type StockListFilter struct {
	Search       string `form:"search" binding:"max=100"`
	Status       string `form:"status" binding:"omitempty,oneof=active inactive discontinued"`
	LowStockOnly bool   `form:"low_stock_only"`
	Threshold    *int   `form:"threshold" binding:"omitempty,min=0"`
	SortBy       string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at physical_stock reserved_stock available unit_cost unit_price"`
	SortOrder    string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Offset       int    `form:"offset" binding:"min=0"`
	Limit        int    `form:"limit" binding:"min=0,max=500"`
}

// MutateStockRequest is a physical correction issued by an operator.
// ReservedDelta is accepted only as zero: reservations own reserved stock.
type MutateStockRequest struct {
	PhysicalDelta   int    `json:"physical_delta"`
	ReservedDelta   int    `json:"reserved_delta"`
	ExpectedVersion *int64 `json:"expected_version" binding:"omitempty,min=1"`
	OperationType   string `json:"operation_type" binding:"omitempty,oneof=manual_adjustment"`
	Notes           string `json:"notes" binding:"max=500"`
}

// UpdateSettingsRequest changes thresholds, prices or status
type UpdateSettingsRequest struct {
	MinStock          *int             `json:"min_stock" binding:"omitempty,min=0"`
	MaxStock          *int             `json:"max_stock" binding:"omitempty,min=0"`
	ReorderPoint      *int             `json:"reorder_point" binding:"omitempty,min=0"`
	ClearReorderPoint bool             `json:"clear_reorder_point"`
	UnitCost          *decimal.Decimal `json:"unit_cost"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	Status            *string          `json:"status" binding:"omitempty,oneof=active inactive discontinued"`
	ExpectedVersion   *int64           `json:"expected_version" binding:"omitempty,min=1"`
	Notes             string           `json:"notes" binding:"max=500"`
}

// ToSettingsChange converts the request to a domain SettingsChange
func (r UpdateSettingsRequest) ToSettingsChange() inventory.SettingsChange {
	change := inventory.SettingsChange{
		MinStock:     r.MinStock,
		MaxStock:     r.MaxStock,
		ReorderPoint: r.ReorderPoint,
		ClearReorder: r.ClearReorderPoint,
		UnitCost:     r.UnitCost,
		UnitPrice:    r.UnitPrice,
	}
	if r.Status != nil {
		s := inventory.StockStatus(*r.Status)
		change.Status = &s
	}
	return change
}

// RecordMovementRequest records a named stock event
type RecordMovementRequest struct {
	Type          string `json:"type" binding:"required,oneof=restock sale adjustment return damage correction"`
	QuantityDelta int    `json:"quantity_delta" binding:"required"`
	Notes         string `json:"notes" binding:"max=500"`
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID            uuid.UUID              `json:"id"`
	InventoryID   uuid.UUID              `json:"inventory_id"`
	Type          inventory.MovementType `json:"type"`
	QuantityDelta int                    `json:"quantity_delta"`
	StockBefore   int                    `json:"stock_before"`
	StockAfter    int                    `json:"stock_after"`
	Actor         string                 `json:"actor"`
	Timestamp     time.Time              `json:"timestamp"`
	Notes         string                 `json:"notes,omitempty"`
}

// ToMovementResponse converts a domain StockMovement to a response
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		InventoryID:   m.InventoryID,
		Type:          m.Type,
		QuantityDelta: m.QuantityDelta,
		StockBefore:   m.StockBefore,
		StockAfter:    m.StockAfter,
		Actor:         m.Actor,
		Timestamp:     m.Timestamp,
		Notes:         m.Notes,
	}
}

// RecordMovementResponse is the movement plus the record after it
type RecordMovementResponse struct {
	Movement MovementResponse    `json:"movement"`
	Record   StockRecordResponse `json:"record"`
}

// MovementListFilter narrows the movement history
type MovementListFilter struct {
	Type   string     `form:"type" binding:"omitempty,oneof=restock sale adjustment return damage correction"`
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Offset int        `form:"offset" binding:"min=0"`
	Limit  int        `form:"limit" binding:"min=0,max=500"`
}

// FulfillmentLineResponse is one order line with its derived status
type FulfillmentLineResponse struct {
	OrderItemID       uuid.UUID        `json:"order_item_id"`
	ProductID         uuid.UUID        `json:"product_id"`
	OrderedQuantity   int              `json:"ordered_quantity"`
	ReservedQuantity  int              `json:"reserved_quantity"`
	FulfilledQuantity int              `json:"fulfilled_quantity"`
	ReturnedQuantity  int              `json:"returned_quantity"`
	LineStatus        order.LineStatus `json:"line_status"`
	LastMethod        string           `json:"last_method,omitempty"`
}

func toFulfillmentLineResponse(l *order.FulfillmentLine) FulfillmentLineResponse {
	return FulfillmentLineResponse{
		OrderItemID:       l.OrderItemID,
		ProductID:         l.ProductID,
		OrderedQuantity:   l.OrderedQuantity,
		ReservedQuantity:  l.ReservedQuantity,
		FulfilledQuantity: l.FulfilledQuantity,
		ReturnedQuantity:  l.ReturnedQuantity,
		LineStatus:        l.Status(),
		LastMethod:        l.LastMethod,
	}
}

// ReservationResponse describes an order's reservation and fulfillment state
type ReservationResponse struct {
	OrderID       uuid.UUID                 `json:"order_id"`
	OrderStatus   order.Status              `json:"order_status"`
	State         order.ReservationState    `json:"state"`
	OverallStatus order.LineStatus          `json:"fulfillment_status"`
	Lines         []FulfillmentLineResponse `json:"lines"`
	ReservedAt    *time.Time                `json:"reserved_at,omitempty"`
	ReleasedAt    *time.Time                `json:"released_at,omitempty"`
	FulfilledAt   *time.Time                `json:"fulfilled_at,omitempty"`
}

// ToReservationResponse converts a reservation and its order to a response
func ToReservationResponse(o *order.Order, r *order.Reservation) ReservationResponse {
	resp := ReservationResponse{
		OrderID:       r.OrderID,
		OrderStatus:   o.Status,
		State:         r.State,
		OverallStatus: r.OverallStatus(),
		Lines:         make([]FulfillmentLineResponse, len(r.Lines)),
		ReservedAt:    r.ReservedAt,
		ReleasedAt:    r.ReleasedAt,
		FulfilledAt:   r.FulfilledAt,
	}
	for i := range r.Lines {
		resp.Lines[i] = toFulfillmentLineResponse(&r.Lines[i])
	}
	return resp
}

// FulfillItemRequest fulfills part of an order line
type FulfillItemRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Method   string `json:"method" binding:"max=50"`
}

// FulfillItemResponse is the updated line and order state
type FulfillItemResponse struct {
	Line           FulfillmentLineResponse `json:"line"`
	OrderStatus    order.Status            `json:"order_status"`
	OrderFulfilled bool                    `json:"order_fulfilled"`
	PhysicalAfter  int                     `json:"physical_after"`
	ReservedAfter  int                     `json:"reserved_after"`
}

// ProcessReturnRequest returns shipped units to physical stock
type ProcessReturnRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	OrderID   uuid.UUID `json:"order_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	Reason    string    `json:"reason" binding:"max=500"`
}

// ProcessReturnResponse reports the counters after the return
type ProcessReturnResponse struct {
	ReturnID       uuid.UUID `json:"return_id"`
	PhysicalAfter  int       `json:"physical_after"`
	AvailableAfter int       `json:"available_after"`
}

// ReturnRecordResponse represents a processed return
type ReturnRecordResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason,omitempty"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// ToReturnRecordResponse converts a domain ReturnRecord to a response
func ToReturnRecordResponse(r *order.ReturnRecord) ReturnRecordResponse {
	return ReturnRecordResponse{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Reason:    r.Reason,
		Actor:     r.Actor,
		Timestamp: r.Timestamp,
	}
}

// BulkChanges is the change applied to every item of a bulk update.
// PhysicalDelta goes through the ledger; the rest are settings.
type BulkChanges struct {
	PhysicalDelta     int              `json:"physical_delta"`
	MinStock          *int             `json:"min_stock" binding:"omitempty,min=0"`
	MaxStock          *int             `json:"max_stock" binding:"omitempty,min=0"`
	ReorderPoint      *int             `json:"reorder_point" binding:"omitempty,min=0"`
	ClearReorderPoint bool             `json:"clear_reorder_point"`
	UnitCost          *decimal.Decimal `json:"unit_cost"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	Status            *string          `json:"status" binding:"omitempty,oneof=active inactive discontinued"`
}

func (c BulkChanges) settings() *inventory.SettingsChange {
	change := UpdateSettingsRequest{
		MinStock:          c.MinStock,
		MaxStock:          c.MaxStock,
		ReorderPoint:      c.ReorderPoint,
		ClearReorderPoint: c.ClearReorderPoint,
		UnitCost:          c.UnitCost,
		UnitPrice:         c.UnitPrice,
		Status:            c.Status,
	}.ToSettingsChange()
	if change.IsEmpty() {
		return nil
	}
	return &change
}

// IsEmpty reports whether the changes touch nothing
func (c BulkChanges) IsEmpty() bool {
	return c.PhysicalDelta == 0 && c.settings() == nil
}

// BulkUpdateRequest applies the same changes to many products
type BulkUpdateRequest struct {
	ProductIDs []uuid.UUID `json:"item_ids" binding:"required,min=1"`
	Changes    BulkChanges `json:"changes"`
	Notes      string      `json:"notes" binding:"max=500"`
}

// ImportRecord is one row of an inventory import. Rows are matched by
// product_id, or by sku through the catalog.
type ImportRecord struct {
	ProductID     *uuid.UUID       `json:"product_id"`
	SKU           string           `json:"sku" binding:"max=100"`
	PhysicalStock int              `json:"physical_stock" binding:"min=0"`
	MinStock      *int             `json:"min_stock" binding:"omitempty,min=0"`
	MaxStock      *int             `json:"max_stock" binding:"omitempty,min=0"`
	ReorderPoint  *int             `json:"reorder_point" binding:"omitempty,min=0"`
	UnitCost      *decimal.Decimal `json:"unit_cost"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
}

// ImportRequest carries the parsed import rows
type ImportRequest struct {
	Records        []ImportRecord `json:"records" binding:"required,min=1,dive"`
	UpdateExisting bool           `json:"update_existing"`
}

// BulkItemError is the failure of one bulk item. Item is the 1-based
// position of the item in the request.
type BulkItemError struct {
	Item      int        `json:"item"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	SKU       string     `json:"sku,omitempty"`
	Code      string     `json:"code"`
	Reason    string     `json:"reason"`
}

// BulkResult is the report of a bulk update or import
type BulkResult struct {
	UpdatedCount    int             `json:"updated_count"`
	CreatedCount    int             `json:"created_count"`
	ErrorCount      int             `json:"error_count"`
	Errors          []BulkItemError `json:"errors"`
	Total           int             `json:"total"`
	Cancelled       bool            `json:"cancelled,omitempty"`
	ErrorsTruncated bool            `json:"errors_truncated,omitempty"`
}

// AuditQuery represents filter and pagination options for audit queries.
// The id filters are parsed by the transport from product_id and order_id.
type AuditQuery struct {
	ProductID     *uuid.UUID `form:"-"`
	OrderID       *uuid.UUID `form:"-"`
	OperationType string     `form:"operation_type" binding:"omitempty,oneof=reservation release fulfillment return_processing bulk_update manual_adjustment"`
	From          *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To            *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Offset        int        `form:"offset" binding:"min=0"`
	Limit         int        `form:"limit" binding:"min=0,max=500"`
}

// AuditQueryResponse is one page of audit entries
type AuditQueryResponse struct {
	Entries []AuditEntryResponse              `json:"entries"`
	Summary map[inventory.OperationType]int64 `json:"summary"`
	Total   int64                             `json:"total"`
	Offset  int                               `json:"offset"`
	Limit   int                               `json:"limit"`
	HasMore bool                              `json:"has_more"`
}

// LowStockItem is one record at or under its reorder point
type LowStockItem struct {
	StockRecordResponse
	EffectiveReorderPoint int `json:"effective_reorder_point"`
}

// LowStockResponse lists low stock items with their total value
type LowStockResponse struct {
	Items      []LowStockItem  `json:"items"`
	Count      int             `json:"count"`
	TotalValue decimal.Decimal `json:"total_value"`
	Threshold  int             `json:"fallback_threshold"`
}

// StatsResponse is the derived view over the whole ledger
type StatsResponse struct {
	TotalProducts       int                             `json:"total_products"`
	TotalInventoryValue decimal.Decimal                 `json:"total_inventory_value"`
	AveragePrice        decimal.Decimal                 `json:"average_price"`
	TotalPhysical       int64                           `json:"total_physical"`
	TotalReserved       int64                           `json:"total_reserved"`
	LowStockCount       int                             `json:"low_stock_count"`
	OutOfStockCount     int                             `json:"out_of_stock_count"`
	CountsByStatus      map[inventory.StockStatus]int64 `json:"counts_by_status"`
}

// SyncDrift reports a record whose physical stock differs from the
// catalog's declared quantity
type SyncDrift struct {
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	DeclaredStock int       `json:"declared_stock"`
	PhysicalStock int       `json:"physical_stock"`
}

// SyncResult is the report of a catalog sync
type SyncResult struct {
	SyncedCount int             `json:"synced_count"`
	Errors      []BulkItemError `json:"errors"`
	Drifted     []SyncDrift     `json:"drifted"`
}
