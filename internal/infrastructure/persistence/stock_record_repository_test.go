package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedStockRecord(t *testing.T, db *gorm.DB, sku string, physical int) *inventory.StockRecord {
	t.Helper()
	p := testutil.SeedProduct(t, db, sku, "Handmade "+sku)
	return seedStockRecordWith(t, db, p.ID, physical)
}

func seedStockRecordFor(t *testing.T, db *gorm.DB, productID uuid.UUID) *inventory.StockRecord {
	t.Helper()
	return seedStockRecordWith(t, db, productID, 1)
}

func seedStockRecordWith(t *testing.T, db *gorm.DB, productID uuid.UUID, physical int) *inventory.StockRecord {
	t.Helper()
	rec, err := inventory.NewStockRecord(productID, physical, decimal.NewFromInt(4), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, NewGormStockRecordRepository(db).Create(context.Background(), rec))
	return rec
}

func TestGormStockRecordRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormStockRecordRepository(db)
	ctx := context.Background()

	rec := seedStockRecord(t, db, "MUG-001", 10)

	t.Run("finds by product", func(t *testing.T) {
		found, err := repo.FindByProductID(ctx, rec.ProductID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, found.ID)
		assert.Equal(t, 10, found.PhysicalStock)
		assert.Equal(t, int64(1), found.Version)
		assert.True(t, found.UnitCost.Equal(decimal.NewFromInt(4)))
	})

	t.Run("missing record is not found", func(t *testing.T) {
		_, err := repo.FindByProductID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("second record for a product conflicts", func(t *testing.T) {
		dup, err := inventory.NewStockRecord(rec.ProductID, 1, decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		err = repo.Create(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("loads several products", func(t *testing.T) {
		other := seedStockRecord(t, db, "MUG-002", 3)
		records, err := repo.FindByProductIDs(ctx, []uuid.UUID{rec.ProductID, other.ProductID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestGormStockRecordRepository_ApplyDelta(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormStockRecordRepository(db)
	ctx := context.Background()

	rec := seedStockRecord(t, db, "VASE-01", 5)

	t.Run("reserve within available stock", func(t *testing.T) {
		require.NoError(t, repo.ApplyDelta(ctx, rec.ID, inventory.StockDelta{Reserved: 3}))

		found, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, found.PhysicalStock)
		assert.Equal(t, 3, found.ReservedStock)
		assert.Equal(t, 2, found.AvailableStock())
		assert.Equal(t, int64(2), found.Version)
	})

	t.Run("reserving beyond physical matches no row", func(t *testing.T) {
		err := repo.ApplyDelta(ctx, rec.ID, inventory.StockDelta{Reserved: 3})
		assert.ErrorIs(t, err, inventory.ErrStockGuardFailed)

		found, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, found.ReservedStock)
	})

	t.Run("physical cannot drop below reserved", func(t *testing.T) {
		err := repo.ApplyDelta(ctx, rec.ID, inventory.StockDelta{Physical: -3})
		assert.ErrorIs(t, err, inventory.ErrStockGuardFailed)
	})

	t.Run("stale version matches no row", func(t *testing.T) {
		stale := int64(1)
		err := repo.ApplyDelta(ctx, rec.ID, inventory.StockDelta{Physical: 1, ExpectedVersion: &stale})
		assert.ErrorIs(t, err, inventory.ErrStockGuardFailed)
	})

	t.Run("settings written with the delta", func(t *testing.T) {
		current, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		rp := 4
		require.NoError(t, current.ApplySettings(inventory.SettingsChange{ReorderPoint: &rp}))

		version := current.Version
		require.NoError(t, repo.ApplyDelta(ctx, rec.ID, inventory.StockDelta{
			Physical:        2,
			ExpectedVersion: &version,
			Settings:        current,
		}))

		found, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, found.PhysicalStock)
		require.NotNil(t, found.ReorderPoint)
		assert.Equal(t, 4, *found.ReorderPoint)
		assert.NotNil(t, found.LastRestocked)
		assert.Equal(t, version+1, found.Version)
	})
}

func TestGormStockRecordRepository_ApplyDeltaStatement(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := NewGormStockRecordRepository(mockDB.DB)
	id := uuid.New()
	version := int64(3)

	t.Run("guards counters and version in one update", func(t *testing.T) {
		mockDB.Mock.ExpectExec(`UPDATE "stock_records" SET .*"reserved_stock"=reserved_stock \+ .*WHERE id = \$\d+ AND .*reserved_stock \+ \$\d+ <= physical_stock \+ \$\d+.* AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyDelta(context.Background(), id, inventory.StockDelta{Reserved: 2, ExpectedVersion: &version})
		require.NoError(t, err)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("no affected row is a guard failure", func(t *testing.T) {
		mockDB.Mock.ExpectExec(`UPDATE "stock_records" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ApplyDelta(context.Background(), id, inventory.StockDelta{Reserved: 2})
		assert.ErrorIs(t, err, inventory.ErrStockGuardFailed)
		mockDB.ExpectationsWereMet(t)
	})
}

func TestGormStockRecordRepository_ListAndAggregates(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormStockRecordRepository(db)
	ctx := context.Background()

	mug := seedStockRecord(t, db, "MUG-RED", 20)
	plate := seedStockRecord(t, db, "PLATE-01", 4)
	bowl := seedStockRecord(t, db, "BOWL-01", 0)

	discontinued := inventory.StockStatusDiscontinued
	plate.Status = discontinued
	require.NoError(t, repo.ApplyDelta(ctx, plate.ID, inventory.StockDelta{Physical: 1, Settings: plate}))

	t.Run("search matches sku case-insensitively", func(t *testing.T) {
		records, total, err := repo.List(ctx, inventory.StockFilter{Search: "mug"}, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, records, 1)
		assert.Equal(t, mug.ID, records[0].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		records, total, err := repo.List(ctx, inventory.StockFilter{Status: &discontinued}, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, plate.ID, records[0].ID)
	})

	t.Run("low stock only uses the fallback", func(t *testing.T) {
		_, total, err := repo.List(ctx, inventory.StockFilter{LowStockOnly: true}, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("sorted and paged", func(t *testing.T) {
		records, total, err := repo.List(ctx, inventory.StockFilter{
			SortBy:   "physical_stock",
			SortDesc: true,
			Page:     shared.Pagination{Offset: 0, Limit: 2},
		}, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, records, 2)
		assert.Equal(t, mug.ID, records[0].ID)
		assert.Equal(t, plate.ID, records[1].ID)
	})

	t.Run("find low stock orders by available", func(t *testing.T) {
		records, err := repo.FindLowStock(ctx, 5)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, bowl.ID, records[0].ID)
	})

	t.Run("counts every status", func(t *testing.T) {
		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[inventory.StockStatusActive])
		assert.Equal(t, int64(1), counts[inventory.StockStatusDiscontinued])
		assert.Equal(t, int64(0), counts[inventory.StockStatusInactive])
	})

	t.Run("valuation rows", func(t *testing.T) {
		rows, err := repo.ValuationRows(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})
}

func TestGormStockRecordRepository_Delete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormStockRecordRepository(db)
	ctx := context.Background()

	rec := seedStockRecord(t, db, "CANDLE-1", 3)
	require.NoError(t, repo.ApplyDelta(ctx, rec.ID, inventory.StockDelta{Reserved: 1}))

	err := repo.Delete(ctx, rec.ID)
	assert.ErrorIs(t, err, inventory.ErrStockGuardFailed)

	require.NoError(t, repo.ApplyDelta(ctx, rec.ID, inventory.StockDelta{Reserved: -1}))
	require.NoError(t, repo.Delete(ctx, rec.ID))

	_, err = repo.FindByID(ctx, rec.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
