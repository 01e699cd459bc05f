package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	appinv "github.com/handmade/backend/internal/application/inventory"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/order"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/infrastructure/persistence"
	"github.com/handmade/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db           *gorm.DB
	publisher    *testutil.EventRecorder
	ledger       *appinv.LedgerService
	reservations *appinv.ReservationService
	returns      *appinv.ReturnService
	movements    *appinv.MovementService
	audit        *appinv.AuditService
	bulk         *appinv.BulkService
	stats        *appinv.StatsService
	sync         *appinv.SyncService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	stockRepo := persistence.NewGormStockRecordRepository(db)
	products := persistence.NewGormProductReader(db)
	settings := appinv.Settings{LowStockThreshold: 5, BulkWorkers: 2, BulkBatchSize: 2}

	f := &fixture{
		db:           db,
		publisher:    testutil.NewEventRecorder(),
		ledger:       appinv.NewLedgerService(scope, stockRepo, products, settings),
		reservations: appinv.NewReservationService(scope, settings),
		returns:      appinv.NewReturnService(scope, settings),
		movements:    appinv.NewMovementService(scope, stockRepo, persistence.NewGormStockMovementRepository(db), settings),
		audit:        appinv.NewAuditService(persistence.NewGormAuditLogRepository(db)),
		bulk:         appinv.NewBulkService(scope, products, settings),
		stats:        appinv.NewStatsService(stockRepo, settings),
		sync:         appinv.NewSyncService(scope, products, stockRepo, settings, nil),
	}
	f.ledger.SetEventPublisher(f.publisher)
	f.reservations.SetEventPublisher(f.publisher)
	f.returns.SetEventPublisher(f.publisher)
	f.bulk.SetEventPublisher(f.publisher)
	return f
}

// stocked seeds a catalog product and its stock record
func (f *fixture) stocked(t *testing.T, sku string, physical int) uuid.UUID {
	t.Helper()
	p := testutil.SeedProduct(t, f.db, sku, "Handmade "+sku)
	_, err := f.ledger.Create(context.Background(), appinv.CreateStockRecordRequest{
		ProductID:     p.ID,
		PhysicalStock: physical,
	})
	require.NoError(t, err)
	return p.ID
}

func (f *fixture) record(t *testing.T, productID uuid.UUID) *appinv.StockRecordResponse {
	t.Helper()
	rec, err := f.ledger.GetByProductID(context.Background(), productID)
	require.NoError(t, err)
	return rec
}

func TestOrderLifecycle_ReserveFulfillReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.TestActor()

	productID := f.stocked(t, "BOWL-BLUE", 10)
	o := testutil.SeedOrder(t, f.db, order.StatusProcessing, testutil.OrderLine{ProductID: productID, Quantity: 4})
	itemID := o.Items[0].ID

	t.Run("reserve holds the ordered quantity", func(t *testing.T) {
		resp, err := f.reservations.Reserve(ctx, o.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, order.ReservationReserved, resp.State)

		rec := f.record(t, productID)
		assert.Equal(t, 10, rec.PhysicalStock)
		assert.Equal(t, 4, rec.ReservedStock)
		assert.Equal(t, 6, rec.AvailableStock)
	})

	t.Run("reserving twice is rejected", func(t *testing.T) {
		_, err := f.reservations.Reserve(ctx, o.ID, actor)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, 4, f.record(t, productID).ReservedStock)
	})

	t.Run("fulfill ships stock and completes the order", func(t *testing.T) {
		resp, err := f.reservations.Fulfill(ctx, o.ID, itemID, appinv.FulfillItemRequest{Quantity: 4, Method: "courier"}, actor)
		require.NoError(t, err)
		assert.True(t, resp.OrderFulfilled)
		assert.Equal(t, order.StatusFulfilled, resp.OrderStatus)
		assert.Equal(t, 6, resp.PhysicalAfter)
		assert.Equal(t, 0, resp.ReservedAfter)

		fulfillment, err := f.reservations.GetFulfillment(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusFulfilled, fulfillment.OrderStatus)
		assert.Equal(t, order.LineFulfilled, fulfillment.OverallStatus)
		assert.Len(t, f.publisher.OfType(order.EventTypeOrderFulfilled), 1)
	})

	t.Run("return restores physical stock", func(t *testing.T) {
		resp, err := f.returns.ProcessReturn(ctx, appinv.ProcessReturnRequest{
			ProductID: productID,
			OrderID:   o.ID,
			Quantity:  2,
			Reason:    "chipped glaze",
		}, actor)
		require.NoError(t, err)
		assert.Equal(t, 8, resp.PhysicalAfter)
		assert.Equal(t, 8, resp.AvailableAfter)

		rec := f.record(t, productID)
		assert.Equal(t, 8, rec.PhysicalStock)
		assert.Equal(t, 0, rec.ReservedStock)

		returns, err := f.returns.ListReturns(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, returns, 1)
		assert.Equal(t, "chipped glaze", returns[0].Reason)
	})

	t.Run("return beyond what shipped is rejected", func(t *testing.T) {
		_, err := f.returns.ProcessReturn(ctx, appinv.ProcessReturnRequest{
			ProductID: productID,
			OrderID:   o.ID,
			Quantity:  3,
		}, actor)
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, 8, f.record(t, productID).PhysicalStock)
	})

	t.Run("audit trail follows the lifecycle", func(t *testing.T) {
		resp, err := f.audit.Query(ctx, appinv.AuditQuery{ProductID: &productID})
		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.Total)
		assert.Equal(t, int64(1), resp.Summary[inventory.OperationReservation])
		assert.Equal(t, int64(1), resp.Summary[inventory.OperationFulfillment])
		assert.Equal(t, int64(1), resp.Summary[inventory.OperationReturnProcessing])

		newest := resp.Entries[0]
		assert.Equal(t, inventory.OperationReturnProcessing, newest.OperationType)
		assert.Equal(t, 6, newest.PhysicalBefore)
		assert.Equal(t, 8, newest.PhysicalAfter)
	})
}

func TestReserve_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plenty := f.stocked(t, "CUP-1", 10)
	scarce := f.stocked(t, "CUP-2", 1)
	gone := f.stocked(t, "CUP-3", 0)
	o := testutil.SeedOrder(t, f.db, order.StatusPaid,
		testutil.OrderLine{ProductID: plenty, Quantity: 3},
		testutil.OrderLine{ProductID: scarce, Quantity: 2},
		testutil.OrderLine{ProductID: gone, Quantity: 1},
	)

	_, err := f.reservations.Reserve(ctx, o.ID, testutil.TestActor())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	short := inventory.ShortageLines(err)
	require.Len(t, short, 2)
	assert.Equal(t, scarce, short[0].ProductID)
	assert.Equal(t, 2, short[0].Requested)
	assert.Equal(t, 1, short[0].Available)
	assert.Equal(t, gone, short[1].ProductID)

	assert.Equal(t, 0, f.record(t, plenty).ReservedStock)
	assert.Equal(t, 0, f.record(t, scarce).ReservedStock)

	resp, err := f.audit.Query(ctx, appinv.AuditQuery{OrderID: &o.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Total)
}

func TestRelease_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.TestActor()

	productID := f.stocked(t, "SCARF-1", 6)
	o := testutil.SeedOrder(t, f.db, order.StatusPaid, testutil.OrderLine{ProductID: productID, Quantity: 5})

	t.Run("release before reserve changes nothing", func(t *testing.T) {
		resp, err := f.reservations.Release(ctx, o.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, order.ReservationUnreserved, resp.State)
		assert.Equal(t, 0, f.record(t, productID).ReservedStock)
	})

	_, err := f.reservations.Reserve(ctx, o.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, 5, f.record(t, productID).ReservedStock)

	t.Run("first release frees the hold", func(t *testing.T) {
		_, err := f.reservations.Release(ctx, o.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, 0, f.record(t, productID).ReservedStock)
	})

	t.Run("second release is a no-op", func(t *testing.T) {
		_, err := f.reservations.Release(ctx, o.ID, actor)
		require.NoError(t, err)
		rec := f.record(t, productID)
		assert.Equal(t, 0, rec.ReservedStock)
		assert.Equal(t, 6, rec.PhysicalStock)

		resp, err := f.audit.Query(ctx, appinv.AuditQuery{OrderID: &o.ID, OperationType: string(inventory.OperationRelease)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Total)
	})

	t.Run("released order can be reserved again", func(t *testing.T) {
		_, err := f.reservations.Reserve(ctx, o.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, 5, f.record(t, productID).ReservedStock)
	})
}

func TestReserve_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	productID := f.stocked(t, "LAMP-1", 5)
	first := testutil.SeedOrder(t, f.db, order.StatusPaid, testutil.OrderLine{ProductID: productID, Quantity: 5})
	second := testutil.SeedOrder(t, f.db, order.StatusPaid, testutil.OrderLine{ProductID: productID, Quantity: 5})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, o := range []*order.Order{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.reservations.Reserve(ctx, o.ID, testutil.TestActor())
		}()
	}
	wg.Wait()

	succeeded, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case shared.CodeOf(err) == shared.CodeInsufficientStock:
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, short)

	rec := f.record(t, productID)
	assert.Equal(t, 5, rec.ReservedStock)
	assert.Equal(t, 0, rec.AvailableStock)
}

func TestLedger_MutateAndSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.TestActor()

	productID := f.stocked(t, "RUG-1", 10)

	t.Run("manual adjustment is audited", func(t *testing.T) {
		resp, err := f.ledger.Mutate(ctx, productID, appinv.MutateStockRequest{PhysicalDelta: -3, Notes: "recount"}, actor)
		require.NoError(t, err)
		assert.Equal(t, 7, resp.Record.PhysicalStock)
		assert.Equal(t, inventory.OperationManualAdjustment, resp.Audit.OperationType)
		assert.Equal(t, 10, resp.Audit.PhysicalBefore)
		assert.Equal(t, 3, resp.Audit.QuantityAffected)
		assert.NotNil(t, resp.Audit.RelatedAdjustmentID)
	})

	t.Run("stale expected version conflicts", func(t *testing.T) {
		stale := int64(1)
		_, err := f.ledger.Mutate(ctx, productID, appinv.MutateStockRequest{PhysicalDelta: 1, ExpectedVersion: &stale}, actor)
		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Equal(t, 7, f.record(t, productID).PhysicalStock)
	})

	t.Run("physical below zero is rejected", func(t *testing.T) {
		_, err := f.ledger.Mutate(ctx, productID, appinv.MutateStockRequest{PhysicalDelta: -8}, actor)
		require.Error(t, err)
		assert.Equal(t, 7, f.record(t, productID).PhysicalStock)
	})

	t.Run("crossing the reorder point raises low stock once", func(t *testing.T) {
		_, err := f.ledger.Mutate(ctx, productID, appinv.MutateStockRequest{PhysicalDelta: -3}, actor)
		require.NoError(t, err)
		_, err = f.ledger.Mutate(ctx, productID, appinv.MutateStockRequest{PhysicalDelta: -1}, actor)
		require.NoError(t, err)

		low := f.publisher.OfType(inventory.EventTypeLowStockDetected)
		require.Len(t, low, 1)
		event, ok := low[0].(*inventory.LowStockDetectedEvent)
		require.True(t, ok)
		assert.Equal(t, 4, event.AvailableStock)
		assert.Equal(t, 5, event.ReorderPoint)
	})

	t.Run("settings change bumps version", func(t *testing.T) {
		before := f.record(t, productID)
		rp := 2
		resp, err := f.ledger.UpdateSettings(ctx, productID, appinv.UpdateSettingsRequest{
			ReorderPoint:    &rp,
			ExpectedVersion: &before.Version,
		}, actor)
		require.NoError(t, err)
		require.NotNil(t, resp.Record.ReorderPoint)
		assert.Equal(t, 2, *resp.Record.ReorderPoint)
		assert.Equal(t, before.Version+1, resp.Record.Version)
		assert.Equal(t, 0, resp.Audit.QuantityAffected)
	})

	t.Run("empty settings change is rejected", func(t *testing.T) {
		_, err := f.ledger.UpdateSettings(ctx, productID, appinv.UpdateSettingsRequest{}, actor)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown product is not found", func(t *testing.T) {
		_, err := f.ledger.Mutate(ctx, uuid.New(), appinv.MutateStockRequest{PhysicalDelta: 1}, actor)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestLedger_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.TestActor()

	t.Run("reserved stock blocks deletion", func(t *testing.T) {
		productID := f.stocked(t, "TILE-1", 3)
		o := testutil.SeedOrder(t, f.db, order.StatusProcessing, testutil.OrderLine{ProductID: productID, Quantity: 1})
		_, err := f.reservations.Reserve(ctx, o.ID, actor)
		require.NoError(t, err)

		err = f.ledger.Delete(ctx, productID)
		assert.ErrorIs(t, err, shared.ErrConflict)

		_, err = f.reservations.Release(ctx, o.ID, actor)
		require.NoError(t, err)
		require.NoError(t, f.ledger.Delete(ctx, productID))

		_, err = f.ledger.GetByProductID(ctx, productID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("movement history blocks deletion", func(t *testing.T) {
		productID := f.stocked(t, "TILE-2", 3)
		_, err := f.movements.RecordMovement(ctx, productID, appinv.RecordMovementRequest{
			Type:          string(inventory.MovementRestock),
			QuantityDelta: 2,
		}, actor)
		require.NoError(t, err)

		err = f.ledger.Delete(ctx, productID)
		assert.ErrorIs(t, err, shared.ErrConflict)

		rec := f.record(t, productID)
		assert.Equal(t, 5, rec.PhysicalStock)
		page, err := f.movements.ListMovements(ctx, productID, appinv.MovementListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})
}

func TestLedger_MutateLeavesReservationsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.TestActor()

	productID := f.stocked(t, "PLANTER-1", 10)
	o := testutil.SeedOrder(t, f.db, order.StatusProcessing, testutil.OrderLine{ProductID: productID, Quantity: 5})
	_, err := f.reservations.Reserve(ctx, o.ID, actor)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  appinv.MutateStockRequest
	}{
		{"reserved delta", appinv.MutateStockRequest{ReservedDelta: -5}},
		{"fulfillment with reserved delta", appinv.MutateStockRequest{ReservedDelta: -5, PhysicalDelta: -5, OperationType: string(inventory.OperationFulfillment)}},
		{"order scoped operation", appinv.MutateStockRequest{PhysicalDelta: 1, OperationType: string(inventory.OperationReturnProcessing)}},
		{"reservation operation", appinv.MutateStockRequest{PhysicalDelta: -1, OperationType: string(inventory.OperationReservation)}},
		{"nothing to change", appinv.MutateStockRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Mutate(ctx, productID, tt.req, actor)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}

	rec := f.record(t, productID)
	assert.Equal(t, 10, rec.PhysicalStock)
	assert.Equal(t, 5, rec.ReservedStock)

	audit, err := f.audit.Query(ctx, appinv.AuditQuery{ProductID: &productID, OperationType: string(inventory.OperationFulfillment)})
	require.NoError(t, err)
	assert.Empty(t, audit.Entries)

	// The reservation is intact: release works twice, then reserve and fulfill
	_, err = f.reservations.Release(ctx, o.ID, actor)
	require.NoError(t, err)
	_, err = f.reservations.Release(ctx, o.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, 0, f.record(t, productID).ReservedStock)

	_, err = f.reservations.Reserve(ctx, o.ID, actor)
	require.NoError(t, err)
	_, err = f.reservations.Fulfill(ctx, o.ID, o.Items[0].ID, appinv.FulfillItemRequest{Quantity: 5, Method: "pickup"}, actor)
	require.NoError(t, err)
	rec = f.record(t, productID)
	assert.Equal(t, 5, rec.PhysicalStock)
	assert.Equal(t, 0, rec.ReservedStock)
}

func TestMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.TestActor()

	productID := f.stocked(t, "BASKET-1", 4)

	resp, err := f.movements.RecordMovement(ctx, productID, appinv.RecordMovementRequest{
		Type:          string(inventory.MovementRestock),
		QuantityDelta: 6,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Movement.StockBefore)
	assert.Equal(t, 10, resp.Movement.StockAfter)
	assert.Equal(t, 10, resp.Record.PhysicalStock)

	_, err = f.movements.RecordMovement(ctx, productID, appinv.RecordMovementRequest{
		Type:          string(inventory.MovementDamage),
		QuantityDelta: -1,
	}, actor)
	require.NoError(t, err)

	t.Run("restock must add stock", func(t *testing.T) {
		_, err := f.movements.RecordMovement(ctx, productID, appinv.RecordMovementRequest{
			Type:          string(inventory.MovementRestock),
			QuantityDelta: -2,
		}, actor)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("history newest first", func(t *testing.T) {
		page, err := f.movements.ListMovements(ctx, productID, appinv.MovementListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, inventory.MovementDamage, page.Items[0].Type)
	})

	t.Run("each movement has a matching audit entry", func(t *testing.T) {
		audit, err := f.audit.Query(ctx, appinv.AuditQuery{ProductID: &productID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), audit.Total)
	})
}

func TestBulkUpdate_ItemFailuresAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := []uuid.UUID{
		f.stocked(t, "POT-1", 1),
		f.stocked(t, "POT-2", 2),
		uuid.New(),
		f.stocked(t, "POT-4", 4),
		f.stocked(t, "POT-5", 5),
	}

	result, err := f.bulk.BulkUpdate(ctx, appinv.BulkUpdateRequest{
		ProductIDs: ids,
		Changes:    appinv.BulkChanges{PhysicalDelta: 2},
	}, testutil.TestActor())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 4, result.UpdatedCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Item)
	assert.Equal(t, shared.CodeNotFound, result.Errors[0].Code)

	assert.Equal(t, 3, f.record(t, ids[0]).PhysicalStock)
	assert.Equal(t, 7, f.record(t, ids[4]).PhysicalStock)

	t.Run("empty changes are rejected", func(t *testing.T) {
		_, err := f.bulk.BulkUpdate(ctx, appinv.BulkUpdateRequest{ProductIDs: ids}, testutil.TestActor())
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fresh := testutil.SeedProduct(t, f.db, "QUILT-1", "Quilt")
	existing := f.stocked(t, "QUILT-2", 3)
	rp := 2

	result, err := f.bulk.Import(ctx, appinv.ImportRequest{
		Records: []appinv.ImportRecord{
			{SKU: "QUILT-1", PhysicalStock: 9, ReorderPoint: &rp},
			{ProductID: &existing, PhysicalStock: 12},
			{SKU: "NOPE-404", PhysicalStock: 1},
		},
		UpdateExisting: true,
	}, testutil.TestActor())
	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Equal(t, 1, result.UpdatedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Item)
	assert.Equal(t, "NOPE-404", result.Errors[0].SKU)

	created := f.record(t, fresh.ID)
	assert.Equal(t, 9, created.PhysicalStock)
	require.NotNil(t, created.ReorderPoint)
	assert.Equal(t, 2, *created.ReorderPoint)
	assert.Equal(t, 12, f.record(t, existing).PhysicalStock)

	t.Run("existing records conflict without update_existing", func(t *testing.T) {
		result, err := f.bulk.Import(ctx, appinv.ImportRequest{
			Records: []appinv.ImportRecord{{ProductID: &existing, PhysicalStock: 1}},
		}, testutil.TestActor())
		require.NoError(t, err)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, shared.CodeConflict, result.Errors[0].Code)
		assert.Equal(t, 12, f.record(t, existing).PhysicalStock)
	})

	t.Run("malformed rows reject the whole import", func(t *testing.T) {
		_, err := f.bulk.Import(ctx, appinv.ImportRequest{
			Records: []appinv.ImportRecord{{PhysicalStock: 1}, {SKU: "QUILT-1", PhysicalStock: -1}},
		}, testutil.TestActor())
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestSyncWithCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missing := testutil.SeedProduct(t, f.db, "SOAP-1", "Soap", testutil.WithDeclaredStock(7))
	drifting := testutil.SeedProduct(t, f.db, "SOAP-2", "Soap", testutil.WithDeclaredStock(5))
	_, err := f.ledger.Create(ctx, appinv.CreateStockRecordRequest{ProductID: drifting.ID, PhysicalStock: 3})
	require.NoError(t, err)

	result, err := f.sync.SyncWithCatalog(ctx, testutil.TestActor())
	require.NoError(t, err)
	assert.Equal(t, 1, result.SyncedCount)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Drifted, 1)
	assert.Equal(t, drifting.ID, result.Drifted[0].ProductID)
	assert.Equal(t, 5, result.Drifted[0].DeclaredStock)
	assert.Equal(t, 3, result.Drifted[0].PhysicalStock)

	assert.Equal(t, 7, f.record(t, missing.ID).PhysicalStock)
	assert.Equal(t, 3, f.record(t, drifting.ID).PhysicalStock)

	t.Run("second run creates nothing", func(t *testing.T) {
		result, err := f.sync.SyncWithCatalog(ctx, testutil.TestActor())
		require.NoError(t, err)
		assert.Equal(t, 0, result.SyncedCount)
	})
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.stocked(t, "MAT-1", 10)
	low := f.stocked(t, "MAT-2", 2)
	f.stocked(t, "MAT-3", 0)

	stats, err := f.stats.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, int64(12), stats.TotalPhysical)
	assert.Equal(t, "96", stats.TotalInventoryValue.String())
	assert.Equal(t, "20", stats.AveragePrice.String())
	assert.Equal(t, 2, stats.LowStockCount)
	assert.Equal(t, 1, stats.OutOfStockCount)
	assert.Equal(t, int64(3), stats.CountsByStatus[inventory.StockStatusActive])

	items, err := f.stats.LowStockItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, items.Count)
	assert.Equal(t, 5, items.Threshold)
	assert.Equal(t, "16", items.TotalValue.String())
	found := false
	for _, item := range items.Items {
		if item.ProductID == low {
			found = true
			assert.Equal(t, 5, item.EffectiveReorderPoint)
		}
	}
	assert.True(t, found)
}

func TestAudit_QueryHasMoreAtPageBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.TestActor()

	productID := f.stocked(t, "JAR-01", 20)
	for i := 0; i < 5; i++ {
		_, err := f.ledger.Mutate(ctx, productID, appinv.MutateStockRequest{PhysicalDelta: 1}, actor)
		require.NoError(t, err)
	}

	all, err := f.audit.Query(ctx, appinv.AuditQuery{ProductID: &productID})
	require.NoError(t, err)
	total := int(all.Total)
	require.GreaterOrEqual(t, total, 5)
	assert.False(t, all.HasMore)

	tests := []struct {
		name        string
		offset      int
		limit       int
		wantEntries int
		wantHasMore bool
	}{
		{"window ends on the last row", total - 3, 3, 3, false},
		{"one row past the window", total - 4, 3, 3, true},
		{"first page covers everything", 0, total, total, false},
		{"first page one short", 0, total - 1, total - 1, true},
		{"offset past the end", total, 3, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.audit.Query(ctx, appinv.AuditQuery{ProductID: &productID, Offset: tt.offset, Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, int64(total), resp.Total)
			assert.Equal(t, tt.offset, resp.Offset)
			assert.Equal(t, tt.limit, resp.Limit)
			assert.Len(t, resp.Entries, tt.wantEntries)
			assert.Equal(t, tt.wantHasMore, resp.HasMore)
		})
	}
}
