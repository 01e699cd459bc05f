package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus mirrors the catalog's product status
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product is the inventory core's read model of a catalog product.
// The catalog owns it; inventory only reads existence, identity,
// declared pricing and the declared stock quantity.
type Product struct {
	ID            uuid.UUID
	SKU           string
	Name          string
	Price         decimal.Decimal
	Cost          decimal.Decimal
	DeclaredStock int
	Status        ProductStatus
}

// ProductReader reads catalog products
type ProductReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// FindWithoutStockRecord lists catalog products lacking a stock record
	FindWithoutStockRecord(ctx context.Context) ([]Product, error)
	// FindAll streams the whole catalog in pages of batchSize
	FindAll(ctx context.Context, offset, limit int) ([]Product, error)
}
