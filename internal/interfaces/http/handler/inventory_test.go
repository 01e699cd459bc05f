package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	appinv "github.com/handmade/backend/internal/application/inventory"
	"github.com/handmade/backend/internal/domain/order"
	"github.com/handmade/backend/internal/infrastructure/persistence"
	"github.com/handmade/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type handlerFixture struct {
	db        *gorm.DB
	inventory *InventoryHandler
	orders    *OrderHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	stockRepo := persistence.NewGormStockRecordRepository(db)
	settings := appinv.Settings{}

	return &handlerFixture{
		db: db,
		inventory: NewInventoryHandler(
			appinv.NewLedgerService(scope, stockRepo, persistence.NewGormProductReader(db), settings),
			appinv.NewMovementService(scope, stockRepo, persistence.NewGormStockMovementRepository(db), settings),
		),
		orders: NewOrderHandler(
			appinv.NewReservationService(scope, settings),
			appinv.NewReturnService(scope, settings),
		),
	}
}

func productParams(id uuid.UUID) map[string]string {
	return map[string]string{"product_id": id.String()}
}

type mutationData struct {
	Record struct {
		PhysicalStock  int `json:"physical_stock"`
		ReservedStock  int `json:"reserved_stock"`
		AvailableStock int `json:"available_stock"`
	} `json:"record"`
	AuditEntry struct {
		Actor         string `json:"actor"`
		OperationType string `json:"operation_type"`
	} `json:"audit_entry"`
}

func TestInventoryHandler_Ledger(t *testing.T) {
	f := newHandlerFixture(t)
	h := f.inventory
	productID := testutil.SeedProduct(t, f.db, "TEAPOT-01", "Glazed teapot", testutil.WithPricing("12.50", "40")).ID
	actor := testutil.TestActor()

	testutil.RunHTTPTestCases(t, h.Create, []testutil.HTTPTestCase{
		{
			Name:           "missing product id",
			Method:         http.MethodPost,
			Body:           map[string]any{"physical_stock": 3},
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   "VALIDATION_ERROR",
		},
		{
			Name:           "opens the ledger entry",
			Method:         http.MethodPost,
			Body:           map[string]any{"product_id": productID, "physical_stock": 6},
			ExpectedStatus: http.StatusCreated,
			Validate: func(t *testing.T, env testutil.Envelope) {
				data := testutil.DataAs[map[string]any](t, env)
				assert.Equal(t, float64(6), data["available_stock"])
				assert.Equal(t, "12.5", data["unit_cost"])
			},
		},
		{
			Name:           "second entry conflicts",
			Method:         http.MethodPost,
			Body:           map[string]any{"product_id": productID},
			ExpectedStatus: http.StatusConflict,
			ExpectedCode:   "CONFLICT",
		},
	})

	testutil.RunHTTPTestCases(t, h.Mutate, []testutil.HTTPTestCase{
		{
			Name:           "anonymous mutation refused",
			Method:         http.MethodPost,
			Params:         productParams(productID),
			Body:           map[string]any{"physical_delta": 1},
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedCode:   "UNAUTHORIZED",
		},
		{
			Name:           "physical correction",
			Method:         http.MethodPost,
			Params:         productParams(productID),
			Actor:          actor,
			Body:           map[string]any{"physical_delta": -2, "notes": "chipped in the kiln"},
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, env testutil.Envelope) {
				data := testutil.DataAs[mutationData](t, env)
				assert.Equal(t, 4, data.Record.AvailableStock)
				assert.Equal(t, actor, data.AuditEntry.Actor)
				assert.Equal(t, "manual_adjustment", data.AuditEntry.OperationType)
			},
		},
		{
			Name:           "reserved stock is not an operator field",
			Method:         http.MethodPost,
			Params:         productParams(productID),
			Actor:          actor,
			Body:           map[string]any{"reserved_delta": 2},
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   "VALIDATION_ERROR",
		},
		{
			Name:           "order scoped operation refused",
			Method:         http.MethodPost,
			Params:         productParams(productID),
			Actor:          actor,
			Body:           map[string]any{"physical_delta": -1, "operation_type": "fulfillment"},
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   "VALIDATION_ERROR",
		},
		{
			Name:           "unknown operation type",
			Method:         http.MethodPost,
			Params:         productParams(productID),
			Actor:          actor,
			Body:           map[string]any{"physical_delta": 1, "operation_type": "teleport"},
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   "VALIDATION_ERROR",
		},
	})

	testutil.RunHTTPTestCase(t, h.Get, testutil.HTTPTestCase{
		Name:           "unknown product",
		Params:         productParams(uuid.New()),
		ExpectedStatus: http.StatusNotFound,
		ExpectedCode:   "NOT_FOUND",
	})
}

func TestOrderHandler_ReserveShortage(t *testing.T) {
	f := newHandlerFixture(t)
	actor := testutil.TestActor()

	stocked := func(sku string, physical int) uuid.UUID {
		p := testutil.SeedProduct(t, f.db, sku, "Handmade "+sku)
		testutil.RunHTTPTestCase(t, f.inventory.Create, testutil.HTTPTestCase{
			Method:         http.MethodPost,
			Body:           map[string]any{"product_id": p.ID, "physical_stock": physical},
			ExpectedStatus: http.StatusCreated,
		})
		return p.ID
	}
	plenty := stocked("VASE-01", 10)
	scarce := stocked("VASE-02", 1)
	gone := stocked("VASE-03", 0)

	o := testutil.SeedOrder(t, f.db, order.StatusProcessing,
		testutil.OrderLine{ProductID: plenty, Quantity: 2},
		testutil.OrderLine{ProductID: scarce, Quantity: 3},
		testutil.OrderLine{ProductID: gone, Quantity: 1},
	)
	params := map[string]string{"order_id": o.ID.String()}

	env := testutil.RunHTTPTestCase(t, f.orders.Reserve, testutil.HTTPTestCase{
		Method:         http.MethodPost,
		Params:         params,
		Actor:          actor,
		ExpectedStatus: http.StatusUnprocessableEntity,
	})
	lines := testutil.AssertShortage(t, env, o.Items[1].ID, o.Items[2].ID)
	require.Len(t, lines, 2)
	for _, l := range lines {
		if l.ProductID == scarce {
			assert.Equal(t, 3, l.Requested)
			assert.Equal(t, 1, l.Available)
		}
	}

	testutil.RunHTTPTestCase(t, f.inventory.Get, testutil.HTTPTestCase{
		Params:         productParams(plenty),
		ExpectedStatus: http.StatusOK,
		Validate: func(t *testing.T, env testutil.Envelope) {
			data := testutil.DataAs[map[string]any](t, env)
			assert.Equal(t, float64(0), data["reserved_stock"], "a failed reservation holds nothing")
		},
	})

	testutil.RunHTTPTestCase(t, f.orders.Reserve, testutil.HTTPTestCase{
		Name:           "malformed order id",
		Method:         http.MethodPost,
		Params:         map[string]string{"order_id": "not-a-uuid"},
		Actor:          actor,
		ExpectedStatus: http.StatusBadRequest,
		ExpectedCode:   "VALIDATION_ERROR",
	})
}
