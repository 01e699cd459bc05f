package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// StockRecordModel is the persistence model for the StockRecord aggregate root.
type StockRecordModel struct {
	AggregateModel
	ProductID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_records_product"`
	PhysicalStock int       `gorm:"not null;default:0"`
	ReservedStock int       `gorm:"not null;default:0"`
	MinStock      int       `gorm:"not null;default:0"`
	MaxStock      int       `gorm:"not null;default:0"`
	ReorderPoint  *int
	UnitCost      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice     decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Status        inventory.StockStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	LastRestocked *time.Time
}

// TableName returns the table name for GORM
func (StockRecordModel) TableName() string {
	return "stock_records"
}

// ToDomain converts the persistence model to a domain StockRecord.
func (m *StockRecordModel) ToDomain() *inventory.StockRecord {
	return &inventory.StockRecord{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductID:         m.ProductID,
		PhysicalStock:     m.PhysicalStock,
		ReservedStock:     m.ReservedStock,
		MinStock:          m.MinStock,
		MaxStock:          m.MaxStock,
		ReorderPoint:      m.ReorderPoint,
		UnitCost:          m.UnitCost,
		UnitPrice:         m.UnitPrice,
		Status:            m.Status,
		LastRestocked:     m.LastRestocked,
	}
}

// FromDomain populates the persistence model from a domain StockRecord.
func (m *StockRecordModel) FromDomain(r *inventory.StockRecord) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ProductID = r.ProductID
	m.PhysicalStock = r.PhysicalStock
	m.ReservedStock = r.ReservedStock
	m.MinStock = r.MinStock
	m.MaxStock = r.MaxStock
	m.ReorderPoint = r.ReorderPoint
	m.UnitCost = r.UnitCost
	m.UnitPrice = r.UnitPrice
	m.Status = r.Status
	m.LastRestocked = r.LastRestocked
}

// StockRecordModelFromDomain creates a new persistence model from a domain StockRecord.
func StockRecordModelFromDomain(r *inventory.StockRecord) *StockRecordModel {
	m := &StockRecordModel{}
	m.FromDomain(r)
	return m
}

// AuditLogEntryModel is the persistence model for an audit log entry.
// Rows are never updated.
type AuditLogEntryModel struct {
	ID                  uuid.UUID               `gorm:"type:uuid;primary_key"`
	ProductID           uuid.UUID               `gorm:"type:uuid;not null;index:idx_audit_product_ts,priority:1"`
	OperationType       inventory.OperationType `gorm:"type:varchar(30);not null;index"`
	PhysicalBefore      int                     `gorm:"not null"`
	PhysicalAfter       int                     `gorm:"not null"`
	ReservedBefore      int                     `gorm:"not null"`
	ReservedAfter       int                     `gorm:"not null"`
	AvailableBefore     int                     `gorm:"not null"`
	AvailableAfter      int                     `gorm:"not null"`
	QuantityAffected    int                     `gorm:"not null"`
	RelatedOrderID      *uuid.UUID              `gorm:"type:uuid;index"`
	RelatedAdjustmentID *uuid.UUID              `gorm:"type:uuid"`
	Actor               string                  `gorm:"type:varchar(100);not null"`
	Timestamp           time.Time               `gorm:"column:occurred_at;not null;index:idx_audit_product_ts,priority:2"`
	Notes               string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AuditLogEntryModel) TableName() string {
	return "audit_log_entries"
}

// ToDomain converts the persistence model to a domain AuditLogEntry.
func (m *AuditLogEntryModel) ToDomain() *inventory.AuditLogEntry {
	return &inventory.AuditLogEntry{
		ID:                  m.ID,
		ProductID:           m.ProductID,
		OperationType:       m.OperationType,
		PhysicalBefore:      m.PhysicalBefore,
		PhysicalAfter:       m.PhysicalAfter,
		ReservedBefore:      m.ReservedBefore,
		ReservedAfter:       m.ReservedAfter,
		AvailableBefore:     m.AvailableBefore,
		AvailableAfter:      m.AvailableAfter,
		QuantityAffected:    m.QuantityAffected,
		RelatedOrderID:      m.RelatedOrderID,
		RelatedAdjustmentID: m.RelatedAdjustmentID,
		Actor:               m.Actor,
		Timestamp:           m.Timestamp,
		Notes:               m.Notes,
	}
}

// AuditLogEntryModelFromDomain creates a new persistence model from a domain AuditLogEntry.
func AuditLogEntryModelFromDomain(e *inventory.AuditLogEntry) *AuditLogEntryModel {
	return &AuditLogEntryModel{
		ID:                  e.ID,
		ProductID:           e.ProductID,
		OperationType:       e.OperationType,
		PhysicalBefore:      e.PhysicalBefore,
		PhysicalAfter:       e.PhysicalAfter,
		ReservedBefore:      e.ReservedBefore,
		ReservedAfter:       e.ReservedAfter,
		AvailableBefore:     e.AvailableBefore,
		AvailableAfter:      e.AvailableAfter,
		QuantityAffected:    e.QuantityAffected,
		RelatedOrderID:      e.RelatedOrderID,
		RelatedAdjustmentID: e.RelatedAdjustmentID,
		Actor:               e.Actor,
		Timestamp:           e.Timestamp,
		Notes:               e.Notes,
	}
}

// StockMovementModel is the persistence model for a stock movement.
type StockMovementModel struct {
	ID            uuid.UUID              `gorm:"type:uuid;primary_key"`
	InventoryID   uuid.UUID              `gorm:"type:uuid;not null;index:idx_movements_inventory_ts,priority:1"`
	Type          inventory.MovementType `gorm:"column:movement_type;type:varchar(20);not null"`
	QuantityDelta int                    `gorm:"not null"`
	StockBefore   int                    `gorm:"not null"`
	StockAfter    int                    `gorm:"not null"`
	Actor         string                 `gorm:"type:varchar(100);not null"`
	Timestamp     time.Time              `gorm:"column:occurred_at;not null;index:idx_movements_inventory_ts,priority:2"`
	Notes         string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:            m.ID,
		InventoryID:   m.InventoryID,
		Type:          m.Type,
		QuantityDelta: m.QuantityDelta,
		StockBefore:   m.StockBefore,
		StockAfter:    m.StockAfter,
		Actor:         m.Actor,
		Timestamp:     m.Timestamp,
		Notes:         m.Notes,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:            mv.ID,
		InventoryID:   mv.InventoryID,
		Type:          mv.Type,
		QuantityDelta: mv.QuantityDelta,
		StockBefore:   mv.StockBefore,
		StockAfter:    mv.StockAfter,
		Actor:         mv.Actor,
		Timestamp:     mv.Timestamp,
		Notes:         mv.Notes,
	}
}
