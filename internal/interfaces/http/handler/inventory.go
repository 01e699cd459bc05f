package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appinv "github.com/handmade/backend/internal/application/inventory"
)

// defaultTrendWindow is the movement trend window when none is given
const defaultTrendWindow = 30 * 24 * time.Hour

// InventoryHandler serves the stock ledger and its movement history
type InventoryHandler struct {
	BaseHandler
	ledger    *appinv.LedgerService
	movements *appinv.MovementService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(ledger *appinv.LedgerService, movements *appinv.MovementService) *InventoryHandler {
	return &InventoryHandler{
		ledger:    ledger,
		movements: movements,
	}
}

// Create handles POST /inventory: opens the ledger entry of a catalog product
//
// @ID           createStockRecord
// @Summary      Open a stock record
// @Description  Creates the ledger entry of a catalog product. Cost and price default to the catalog values.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body appinv.CreateStockRecordRequest true "Stock record"
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      201 {object} APIResponse[appinv.StockRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	var req appinv.CreateStockRecordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	record, err := h.ledger.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// List handles GET /inventory
//
// @ID           listStockRecords
// @Summary      List stock records
// @Tags         inventory
// @Produce      json
// @Param        search query string false "SKU or name fragment"
// @Param        status query string false "Record status" Enums(active, inactive, discontinued)
// @Param        low_stock_only query bool false "Only records at or below their reorder point"
// @Param        threshold query int false "Fallback low stock threshold" minimum(0)
// @Param        sort_by query string false "Sort field" Enums(created_at, updated_at, physical_stock, reserved_stock, available, unit_cost, unit_price)
// @Param        sort_order query string false "Sort order" Enums(asc, desc)
// @Param        offset query int false "Offset" minimum(0)
// @Param        limit query int false "Page size" minimum(0) maximum(500)
// @Success      200 {object} APIResponse[shared.Paginated[appinv.StockRecordResponse]]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var filter appinv.StockListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Get handles GET /inventory/:product_id
//
// @ID           getStockRecord
// @Summary      Get a stock record
// @Tags         inventory
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[appinv.StockRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /inventory/{product_id} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}
	record, err := h.ledger.GetByProductID(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Delete handles DELETE /inventory/:product_id. Records holding
// reservations cannot be deleted.
//
// @ID           deleteStockRecord
// @Summary      Delete a stock record
// @Description  Refused with 409 while the record holds reservations or has movement history.
// @Tags         inventory
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/{product_id} [delete]
func (h *InventoryHandler) Delete(c *gin.Context) {
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}
	if err := h.ledger.Delete(c.Request.Context(), productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Mutate handles POST /inventory/:product_id/mutations, the raw ledger
// mutation used by operators for manual adjustments
//
// @ID           mutateStockRecord
// @Summary      Apply a manual physical correction
// @Description  Operators may only change physical stock. reserved_delta must be zero and operation_type, when given, must be manual_adjustment.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        request body appinv.MutateStockRequest true "Correction"
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      200 {object} APIResponse[appinv.MutationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/{product_id}/mutations [post]
func (h *InventoryHandler) Mutate(c *gin.Context) {
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.MutateStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.ledger.Mutate(c.Request.Context(), productID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdateSettings handles PATCH /inventory/:product_id/settings
//
// @ID           updateStockSettings
// @Summary      Update reorder settings
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        request body appinv.UpdateSettingsRequest true "Settings"
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      200 {object} APIResponse[appinv.MutationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/{product_id}/settings [patch]
func (h *InventoryHandler) UpdateSettings(c *gin.Context) {
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.ledger.UpdateSettings(c.Request.Context(), productID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RecordMovement handles POST /inventory/:product_id/movements
//
// @ID           recordStockMovement
// @Summary      Record a stock movement
// @Tags         movements
// @Accept       json
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        request body appinv.RecordMovementRequest true "Movement"
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      201 {object} APIResponse[appinv.RecordMovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/{product_id}/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.RecordMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.movements.RecordMovement(c.Request.Context(), productID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListMovements handles GET /inventory/:product_id/movements
//
// @ID           listStockMovements
// @Summary      List stock movements
// @Description  Newest first.
// @Tags         movements
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        type query string false "Movement type" Enums(restock, sale, adjustment, return, damage, correction)
// @Param        from query string false "Lower bound" format(date-time)
// @Param        to query string false "Upper bound" format(date-time)
// @Param        offset query int false "Offset" minimum(0)
// @Param        limit query int false "Page size" minimum(0) maximum(500)
// @Success      200 {object} APIResponse[shared.Paginated[appinv.MovementResponse]]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /inventory/{product_id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}
	var filter appinv.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.movements.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// MovementTrendResponse sums movement deltas per type over a window
type MovementTrendResponse struct {
	Window string         `json:"window"`
	Totals map[string]int `json:"totals"`
}

// MovementTrend handles GET /inventory/:product_id/movements/trend?window=168h
//
// @ID           getMovementTrend
// @Summary      Movement totals per type
// @Tags         movements
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        window query string false "Go duration, default 720h"
// @Success      200 {object} APIResponse[MovementTrendResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /inventory/{product_id}/movements/trend [get]
func (h *InventoryHandler) MovementTrend(c *gin.Context) {
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}
	window, ok := h.queryDuration(c, "window", defaultTrendWindow)
	if !ok {
		return
	}
	sums, err := h.movements.Trend(c.Request.Context(), productID, window)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	totals := make(map[string]int, len(sums))
	for t, n := range sums {
		totals[string(t)] = n
	}
	h.Success(c, MovementTrendResponse{Window: window.String(), Totals: totals})
}
