package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/order"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return model.ToDomain(), nil
}

// UpdateStatus writes the new status only if the stored one is still from
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, o *order.Order, from order.Status) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", o.ID, from).
		Updates(map[string]any{
			"status":     o.Status,
			"updated_at": o.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError(fmt.Sprintf("Order %s is no longer in %s status", o.ID, from))
	}
	return nil
}

// AppendStatusChange records a status transition
func (r *GormOrderRepository) AppendStatusChange(ctx context.Context, change *order.StatusChange) error {
	if err := r.db.WithContext(ctx).Create(models.OrderStatusChangeModelFromDomain(change)).Error; err != nil {
		return fmt.Errorf("failed to append order status change: %w", err)
	}
	return nil
}

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByOrderID loads the reservation of an order with its lines
func (r *GormReservationRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*order.Reservation, error) {
	var model models.OrderReservationModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("order_item_id ASC") }).
		First(&model, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	return model.ToDomain(), nil
}

// Save inserts a new reservation with its lines, or updates an existing one
// guarded by its version
func (r *GormReservationRepository) Save(ctx context.Context, res *order.Reservation) error {
	model := models.OrderReservationModelFromDomain(res)
	db := r.db.WithContext(ctx)

	if !res.IsPersisted() {
		if err := db.Create(model).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.NewConflictError(fmt.Sprintf("Reservation for order %s already exists", res.OrderID))
			}
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		res.MarkPersisted()
		return nil
	}

	result := db.Model(&models.OrderReservationModel{}).
		Where("id = ? AND version = ?", res.ID, res.Version).
		Updates(map[string]any{
			"state":        res.State,
			"reserved_at":  res.ReservedAt,
			"released_at":  res.ReleasedAt,
			"fulfilled_at": res.FulfilledAt,
			"updated_at":   res.UpdatedAt,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError(fmt.Sprintf("Reservation for order %s was modified concurrently", res.OrderID))
	}

	for i := range model.Lines {
		if err := db.Omit(clause.Associations).Save(&model.Lines[i]).Error; err != nil {
			return fmt.Errorf("failed to save fulfillment line: %w", err)
		}
	}
	res.IncrementVersion()
	return nil
}

// GormReturnRepository implements ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// Append inserts a return record
func (r *GormReturnRepository) Append(ctx context.Context, rec *order.ReturnRecord) error {
	if err := r.db.WithContext(ctx).Create(models.ReturnRecordModelFromDomain(rec)).Error; err != nil {
		return fmt.Errorf("failed to append return record: %w", err)
	}
	return nil
}

// FindByOrder lists the returns booked against an order
func (r *GormReturnRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]order.ReturnRecord, error) {
	var rows []models.ReturnRecordModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	out := make([]order.ReturnRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var (
	_ order.OrderRepository       = (*GormOrderRepository)(nil)
	_ order.ReservationRepository = (*GormReservationRepository)(nil)
	_ order.ReturnRepository      = (*GormReturnRepository)(nil)
)
