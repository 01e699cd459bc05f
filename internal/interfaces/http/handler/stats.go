package handler

import (
	"github.com/gin-gonic/gin"
	appinv "github.com/handmade/backend/internal/application/inventory"
)

// StatsHandler serves the derived ledger views and the catalog sync
type StatsHandler struct {
	BaseHandler
	stats *appinv.StatsService
	sync  *appinv.SyncService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats *appinv.StatsService, sync *appinv.SyncService) *StatsHandler {
	return &StatsHandler{stats: stats, sync: sync}
}

// Stats handles GET /inventory-stats
//
// @ID           getInventoryStats
// @Summary      Inventory totals and valuation
// @Tags         stats
// @Produce      json
// @Success      200 {object} APIResponse[appinv.StatsResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /inventory-stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	result, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// LowStock handles GET /inventory-stats/low-stock
//
// @ID           listLowStock
// @Summary      Records at or below their reorder point
// @Tags         stats
// @Produce      json
// @Success      200 {object} APIResponse[appinv.LowStockResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /inventory-stats/low-stock [get]
func (h *StatsHandler) LowStock(c *gin.Context) {
	result, err := h.stats.LowStockItems(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Sync handles POST /inventory/sync
//
// @ID           syncWithCatalog
// @Summary      Reconcile the ledger with the catalog
// @Tags         stats
// @Produce      json
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      200 {object} APIResponse[appinv.SyncResult]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/sync [post]
func (h *StatsHandler) Sync(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.sync.SyncWithCatalog(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
