package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/catalog"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductReader implements catalog.ProductReader over the catalog's
// products table
type GormProductReader struct {
	db *gorm.DB
}

// NewGormProductReader creates a new GormProductReader
func NewGormProductReader(db *gorm.DB) *GormProductReader {
	return &GormProductReader{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductReader) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.first(ctx, "id = ?", id)
}

// FindBySKU finds a product by SKU
func (r *GormProductReader) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.first(ctx, "sku = ?", sku)
}

func (r *GormProductReader) first(ctx context.Context, query string, args ...any) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	p := model.ToDomain()
	return &p, nil
}

// FindByIDs loads several products at once
func (r *GormProductReader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return toProducts(rows), nil
}

// FindWithoutStockRecord lists catalog products that have no stock record yet
func (r *GormProductReader) FindWithoutStockRecord(ctx context.Context) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM stock_records sr WHERE sr.product_id = products.id)").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find products without stock record: %w", err)
	}
	return toProducts(rows), nil
}

// FindAll returns one page of the catalog in stable order
func (r *GormProductReader) FindAll(ctx context.Context, offset, limit int) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return toProducts(rows), nil
}

func toProducts(rows []models.ProductModel) []catalog.Product {
	out := make([]catalog.Product, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ catalog.ProductReader = (*GormProductReader)(nil)
