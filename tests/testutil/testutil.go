// Package testutil provides shared helpers for inventory tests: mocked and
// in-memory databases, catalog and order fixtures, handler cases decoded
// through the response envelope, and event recording.
package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/catalog"
	"github.com/handmade/backend/internal/domain/order"
	"github.com/handmade/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-dialect GORM database backed by sqlmock.
// The caller is responsible for calling Close() when done.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// Close closes the mock database connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	err := m.Mock.ExpectationsWereMet()
	require.NoError(t, err, "Unmet database expectations")
}

// NewSQLiteDB opens an in-memory SQLite database with every model migrated.
// The pool is pinned to one connection: each :memory: connection is its own
// database, and a single connection also serialises concurrent transactions.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open SQLite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...), "Failed to migrate SQLite schema")
	return db
}

// ProductOption customises a seeded catalog product
type ProductOption func(*catalog.Product)

// WithDeclaredStock sets the catalog's declared stock quantity
func WithDeclaredStock(n int) ProductOption {
	return func(p *catalog.Product) { p.DeclaredStock = n }
}

// WithPricing sets the declared cost and price
func WithPricing(cost, price string) ProductOption {
	return func(p *catalog.Product) {
		p.Cost = decimal.RequireFromString(cost)
		p.Price = decimal.RequireFromString(price)
	}
}

// SeedProduct inserts a catalog product and returns it
func SeedProduct(t *testing.T, db *gorm.DB, sku, name string, opts ...ProductOption) catalog.Product {
	t.Helper()

	p := catalog.Product{
		ID:     uuid.New(),
		SKU:    sku,
		Name:   name,
		Price:  decimal.NewFromInt(20),
		Cost:   decimal.NewFromInt(8),
		Status: catalog.ProductStatusActive,
	}
	for _, opt := range opts {
		opt(&p)
	}
	require.NoError(t, db.Create(models.ProductModelFromDomain(&p)).Error, "Failed to seed product")
	return p
}

// OrderLine is one line of a seeded order
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// SeedOrder inserts an order with its items and returns it
func SeedOrder(t *testing.T, db *gorm.DB, status order.Status, lines ...OrderLine) *order.Order {
	t.Helper()

	now := time.Now()
	o := &order.Order{
		ID:          uuid.New(),
		OrderNumber: "HM-" + uuid.NewString()[:8],
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, l := range lines {
		o.Items = append(o.Items, order.Item{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		})
	}
	require.NoError(t, db.Create(models.OrderModelFromDomain(o)).Error, "Failed to seed order")
	return o
}

// NewTestUUID generates a deterministic UUID for testing.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestActor returns the standard actor id used in tests.
func TestActor() string {
	return NewTestUUID("test-actor").String()
}

// AssertEventually retries an assertion function until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	t.Fatalf("Condition not met within %v: %v", timeout, msgAndArgs)
}
