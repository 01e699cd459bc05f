package handler

import (
	"github.com/gin-gonic/gin"
	appinv "github.com/handmade/backend/internal/application/inventory"
)

// AuditHandler serves the audit trail
type AuditHandler struct {
	BaseHandler
	audit *appinv.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit *appinv.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// Query handles GET /audit-logs. Entries are newest first; the summary
// counts the whole filtered set, not just the page.
//
// @ID           queryAuditLog
// @Summary      Query the audit trail
// @Description  Entries are newest first; summary counts the whole filtered set.
// @Tags         audit
// @Produce      json
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        order_id query string false "Order ID" format(uuid)
// @Param        operation_type query string false "Operation" Enums(reservation, release, fulfillment, return_processing, bulk_update, manual_adjustment)
// @Param        from query string false "Lower bound" format(date-time)
// @Param        to query string false "Upper bound" format(date-time)
// @Param        offset query int false "Offset" minimum(0)
// @Param        limit query int false "Page size" minimum(0) maximum(500)
// @Success      200 {object} APIResponse[appinv.AuditQueryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /audit-logs [get]
func (h *AuditHandler) Query(c *gin.Context) {
	var q appinv.AuditQuery
	if !h.bindQuery(c, &q) {
		return
	}
	var ok bool
	if q.ProductID, ok = h.queryUUID(c, "product_id"); !ok {
		return
	}
	if q.OrderID, ok = h.queryUUID(c, "order_id"); !ok {
		return
	}
	result, err := h.audit.Query(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
