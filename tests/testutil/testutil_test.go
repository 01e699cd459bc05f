package testutil

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/catalog"
	"github.com/handmade/backend/internal/domain/order"
	"github.com/handmade/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	mockDB.ExpectationsWereMet(t)
}

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)

	for _, table := range []string{"products", "orders", "stock_records", "audit_log_entries", "stock_movements", "order_reservations", "returns"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSeedProduct(t *testing.T) {
	db := NewSQLiteDB(t)

	p := SeedProduct(t, db, "MUG-001", "Stoneware mug",
		WithDeclaredStock(12),
		WithPricing("7.50", "24.00"))

	var stored models.ProductModel
	require.NoError(t, db.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, "MUG-001", stored.SKU)
	assert.Equal(t, 12, stored.DeclaredStock)
	assert.True(t, stored.Cost.Equal(p.Cost))
	assert.Equal(t, catalog.ProductStatusActive, stored.Status)
}

func TestSeedOrder(t *testing.T) {
	db := NewSQLiteDB(t)
	p := SeedProduct(t, db, "BOWL-01", "Glazed bowl")

	o := SeedOrder(t, db, order.StatusProcessing, OrderLine{ProductID: p.ID, Quantity: 3})

	var items []models.OrderItemModel
	require.NoError(t, db.Where("order_id = ?", o.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, p.ID, items[0].ProductID)
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed"), NewTestUUID("other"))
	assert.Equal(t, TestActor(), TestActor())
}

func TestRunHTTPTestCase(t *testing.T) {
	handler := func(c *gin.Context) {
		if c.GetString("actor_id") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"},
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"product_id": c.Param("product_id")}})
	}

	RunHTTPTestCases(t, handler, []HTTPTestCase{
		{
			Name:           "anonymous",
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedCode:   "UNAUTHORIZED",
		},
		{
			Name:           "params and actor reach the handler",
			Method:         http.MethodPost,
			Params:         map[string]string{"product_id": "abc"},
			Actor:          TestActor(),
			Body:           map[string]any{"quantity": 1},
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, env Envelope) {
				data := DataAs[map[string]string](t, env)
				assert.Equal(t, "abc", data["product_id"])
			},
		},
	})
}

func TestAssertShortage(t *testing.T) {
	item := uuid.New()
	body := []byte(`{"success":false,"error":{"code":"INSUFFICIENT_STOCK","message":"short",` +
		`"details":[{"order_item_id":"` + item.String() + `","product_id":"` + uuid.NewString() + `","requested":4,"available":1}]}}`)

	lines := AssertShortage(t, DecodeEnvelope(t, body), item)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Requested)
	assert.Equal(t, 1, lines[0].Available)
}
