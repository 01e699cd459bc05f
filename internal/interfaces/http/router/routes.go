package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/handmade/backend/internal/interfaces/http/handler"
)

// Handlers groups the API handlers bound by RegisterInventoryAPI
type Handlers struct {
	System    *handler.SystemHandler
	Inventory *handler.InventoryHandler
	Orders    *handler.OrderHandler
	Bulk      *handler.BulkHandler
	Audit     *handler.AuditHandler
	Stats     *handler.StatsHandler
}

// RegisterInventoryAPI declares the inventory API on r. Every state
// changing route runs the write chain (actor requirement, idempotency)
// before its handler; reads run the handler alone.
func RegisterInventoryAPI(r *Router, h Handlers, write ...gin.HandlerFunc) {
	w := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(write)+1)
		chain = append(chain, write...)
		return append(chain, fn)
	}

	system := NewDomainGroup("system", "")
	system.Handle(http.MethodGet, "/health", "Service and dependency health", h.System.Health)

	inv := NewDomainGroup("inventory", "/inventory")
	inv.Handle(http.MethodPost, "", "Open a stock record for a product", w(h.Inventory.Create)...).
		Handle(http.MethodGet, "", "List stock records", h.Inventory.List).
		Handle(http.MethodPost, "/bulk-update", "Apply stock changes to many products", w(h.Bulk.BulkUpdate)...).
		Handle(http.MethodPost, "/import", "Import stock records", w(h.Bulk.Import)...).
		Handle(http.MethodPost, "/sync", "Reconcile the ledger with the catalog", w(h.Stats.Sync)...)

	record := inv.Group("stock-record", "/:product_id")
	record.Handle(http.MethodGet, "", "Get a stock record", h.Inventory.Get).
		Handle(http.MethodDelete, "", "Delete a stock record", w(h.Inventory.Delete)...).
		Handle(http.MethodPost, "/mutations", "Apply a raw ledger mutation", w(h.Inventory.Mutate)...).
		Handle(http.MethodPatch, "/settings", "Update reorder settings", w(h.Inventory.UpdateSettings)...).
		Handle(http.MethodPost, "/movements", "Record a stock movement", w(h.Inventory.RecordMovement)...).
		Handle(http.MethodGet, "/movements", "List stock movements", h.Inventory.ListMovements).
		Handle(http.MethodGet, "/movements/trend", "Movement totals per type", h.Inventory.MovementTrend)

	orders := NewDomainGroup("orders", "/orders/:order_id")
	orders.Handle(http.MethodPost, "/reservation", "Reserve stock for every order line", w(h.Orders.Reserve)...).
		Handle(http.MethodDelete, "/reservation", "Release the order's reservations", w(h.Orders.Release)...).
		Handle(http.MethodPost, "/items/:item_id/fulfillments", "Fulfill an order line", w(h.Orders.Fulfill)...).
		Handle(http.MethodGet, "/fulfillment", "Fulfillment progress", h.Orders.GetFulfillment).
		Handle(http.MethodGet, "/returns", "Returns recorded for the order", h.Orders.ListReturns)

	returns := NewDomainGroup("returns", "/returns")
	returns.Handle(http.MethodPost, "", "Process a customer return", w(h.Orders.ProcessReturn)...)

	audit := NewDomainGroup("audit", "/audit-logs")
	audit.Handle(http.MethodGet, "", "Query the audit trail", h.Audit.Query)

	stats := NewDomainGroup("stats", "/inventory-stats")
	stats.Handle(http.MethodGet, "", "Inventory totals and valuation", h.Stats.Stats).
		Handle(http.MethodGet, "/low-stock", "Records at or below their reorder point", h.Stats.LowStock)

	r.Register(system, inv, orders, returns, audit, stats)
}
