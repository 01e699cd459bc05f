package models

import (
	"github.com/handmade/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model of the catalog's product table.
// Inventory only reads it.
type ProductModel struct {
	BaseModel
	SKU           string                `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name          string                `gorm:"type:varchar(200);not null"`
	Price         decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Cost          decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	DeclaredStock int                   `gorm:"column:stock_quantity;not null;default:0"`
	Status        catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() catalog.Product {
	return catalog.Product{
		ID:            m.ID,
		SKU:           m.SKU,
		Name:          m.Name,
		Price:         m.Price,
		Cost:          m.Cost,
		DeclaredStock: m.DeclaredStock,
		Status:        m.Status,
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	return &ProductModel{
		BaseModel:     BaseModel{ID: p.ID},
		SKU:           p.SKU,
		Name:          p.Name,
		Price:         p.Price,
		Cost:          p.Cost,
		DeclaredStock: p.DeclaredStock,
		Status:        p.Status,
	}
}
