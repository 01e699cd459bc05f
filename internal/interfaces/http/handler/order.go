package handler

import (
	"github.com/gin-gonic/gin"
	appinv "github.com/handmade/backend/internal/application/inventory"
)

// OrderHandler serves order reservation, fulfillment and return history
type OrderHandler struct {
	BaseHandler
	reservations *appinv.ReservationService
	returns      *appinv.ReturnService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(reservations *appinv.ReservationService, returns *appinv.ReturnService) *OrderHandler {
	return &OrderHandler{
		reservations: reservations,
		returns:      returns,
	}
}

// Reserve handles POST /orders/:order_id/reservation. Every line is
// reserved or none is; a shortage answers 422 listing each short line.
//
// @ID           reserveOrder
// @Summary      Reserve stock for every order line
// @Description  All lines are reserved or none is. A shortage answers 422 INSUFFICIENT_STOCK with one details entry per short line.
// @Tags         orders
// @Produce      json
// @Param        order_id path string true "Order ID" format(uuid)
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      200 {object} APIResponse[appinv.ReservationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{order_id}/reservation [post]
func (h *OrderHandler) Reserve(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "order_id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.reservations.Reserve(c.Request.Context(), orderID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Release handles DELETE /orders/:order_id/reservation. Releasing twice
// is not an error.
//
// @ID           releaseOrder
// @Summary      Release the order's reservations
// @Description  Releasing an already released order is not an error.
// @Tags         orders
// @Produce      json
// @Param        order_id path string true "Order ID" format(uuid)
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      200 {object} APIResponse[appinv.ReservationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{order_id}/reservation [delete]
func (h *OrderHandler) Release(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "order_id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.reservations.Release(c.Request.Context(), orderID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Fulfill handles POST /orders/:order_id/items/:item_id/fulfillments
//
// @ID           fulfillOrderItem
// @Summary      Fulfill an order line
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id path string true "Order ID" format(uuid)
// @Param        item_id path string true "Order item ID" format(uuid)
// @Param        request body appinv.FulfillItemRequest true "Fulfillment"
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      200 {object} APIResponse[appinv.FulfillItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{order_id}/items/{item_id}/fulfillments [post]
func (h *OrderHandler) Fulfill(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "order_id")
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "item_id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.FulfillItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.reservations.Fulfill(c.Request.Context(), orderID, itemID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetFulfillment handles GET /orders/:order_id/fulfillment
//
// @ID           getOrderFulfillment
// @Summary      Fulfillment progress
// @Tags         orders
// @Produce      json
// @Param        order_id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[appinv.ReservationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /orders/{order_id}/fulfillment [get]
func (h *OrderHandler) GetFulfillment(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "order_id")
	if !ok {
		return
	}
	result, err := h.reservations.GetFulfillment(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListReturns handles GET /orders/:order_id/returns
//
// @ID           listOrderReturns
// @Summary      Returns recorded for the order
// @Tags         returns
// @Produce      json
// @Param        order_id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[[]appinv.ReturnRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /orders/{order_id}/returns [get]
func (h *OrderHandler) ListReturns(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "order_id")
	if !ok {
		return
	}
	returns, err := h.returns.ListReturns(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, returns)
}

// ProcessReturn handles POST /returns
//
// @ID           processReturn
// @Summary      Process a customer return
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        request body appinv.ProcessReturnRequest true "Return"
// @Param        Idempotency-Key header string false "Client key; a repeat is answered 409 REQUEST_IN_PROGRESS"
// @Success      201 {object} APIResponse[appinv.ProcessReturnResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /returns [post]
func (h *OrderHandler) ProcessReturn(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.ProcessReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.returns.ProcessReturn(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
