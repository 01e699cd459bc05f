package handler

import (
	"github.com/gin-gonic/gin"
	appinv "github.com/handmade/backend/internal/application/inventory"
)

// BulkHandler serves bulk updates and imports. Both answer 200 with a
// per-item report even when some items fail.
type BulkHandler struct {
	BaseHandler
	bulk *appinv.BulkService
}

// NewBulkHandler creates a new BulkHandler
func NewBulkHandler(bulk *appinv.BulkService) *BulkHandler {
	return &BulkHandler{bulk: bulk}
}

// BulkUpdate handles POST /inventory/bulk-update
//
// @ID           bulkUpdateStock
// @Summary      Apply stock changes to many products
// @Description  Answers 200 with a per-item report even when some items fail.
// @Tags         bulk
// @Accept       json
// @Produce      json
// @Param        request body appinv.BulkUpdateRequest true "Bulk update"
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      200 {object} APIResponse[appinv.BulkResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/bulk-update [post]
func (h *BulkHandler) BulkUpdate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.BulkUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.bulk.BulkUpdate(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Import handles POST /inventory/import
//
// @ID           importStock
// @Summary      Import stock records
// @Description  Rows are matched by product_id, then by SKU.
// @Tags         bulk
// @Accept       json
// @Produce      json
// @Param        request body appinv.ImportRequest true "Import"
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      200 {object} APIResponse[appinv.BulkResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/import [post]
func (h *BulkHandler) Import(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.ImportRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.bulk.Import(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
