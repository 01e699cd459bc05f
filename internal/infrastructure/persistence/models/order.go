package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/order"
)

// OrderModel is the persistence model for storefront orders. The order
// lifecycle owns the table; inventory only reads it and writes the
// fulfillment transition.
type OrderModel struct {
	BaseModel
	OrderNumber string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status      order.Status     `gorm:"type:varchar(20);not null;index"`
	Items       []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		Status:      m.Status,
		Items:       make([]order.Item, len(m.Items)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for i, item := range m.Items {
		o.Items[i] = item.ToDomain()
	}
	return o
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		BaseModel:   BaseModel{ID: o.ID, CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt},
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Items:       make([]OrderItemModel, len(o.Items)),
	}
	for i, item := range o.Items {
		m.Items[i] = OrderItemModel{
			ID:        item.ID,
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}
	return m
}

// OrderItemModel is one order line
type OrderItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *OrderItemModel) ToDomain() order.Item {
	return order.Item{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
	}
}

// OrderReservationModel is the persistence model for the Reservation aggregate root.
type OrderReservationModel struct {
	AggregateModel
	OrderID     uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex"`
	State       order.ReservationState `gorm:"type:varchar(20);not null"`
	ReservedAt  *time.Time
	ReleasedAt  *time.Time
	FulfilledAt *time.Time
	Lines       []FulfillmentLineModel `gorm:"foreignKey:OrderID;references:OrderID"`
}

// TableName returns the table name for GORM
func (OrderReservationModel) TableName() string {
	return "order_reservations"
}

// ToDomain converts the persistence model to a domain Reservation.
func (m *OrderReservationModel) ToDomain() *order.Reservation {
	r := &order.Reservation{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderID:           m.OrderID,
		State:             m.State,
		ReservedAt:        m.ReservedAt,
		ReleasedAt:        m.ReleasedAt,
		FulfilledAt:       m.FulfilledAt,
		Lines:             make([]order.FulfillmentLine, len(m.Lines)),
	}
	for i := range m.Lines {
		r.Lines[i] = m.Lines[i].ToDomain()
	}
	r.MarkPersisted()
	return r
}

// FromDomain populates the persistence model from a domain Reservation.
func (m *OrderReservationModel) FromDomain(r *order.Reservation) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.OrderID = r.OrderID
	m.State = r.State
	m.ReservedAt = r.ReservedAt
	m.ReleasedAt = r.ReleasedAt
	m.FulfilledAt = r.FulfilledAt
	m.Lines = make([]FulfillmentLineModel, len(r.Lines))
	for i := range r.Lines {
		m.Lines[i] = *FulfillmentLineModelFromDomain(&r.Lines[i])
	}
}

// OrderReservationModelFromDomain creates a new persistence model from a domain Reservation.
func OrderReservationModelFromDomain(r *order.Reservation) *OrderReservationModel {
	m := &OrderReservationModel{}
	m.FromDomain(r)
	return m
}

// FulfillmentLineModel is the fulfillment record of one order item
type FulfillmentLineModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_fulfillment_order_item,priority:1"`
	OrderItemID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fulfillment_order_item,priority:2"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderedQuantity   int       `gorm:"not null"`
	ReservedQuantity  int       `gorm:"not null;default:0"`
	FulfilledQuantity int       `gorm:"not null;default:0"`
	ReturnedQuantity  int       `gorm:"not null;default:0"`
	LastMethod        string    `gorm:"type:varchar(50)"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FulfillmentLineModel) TableName() string {
	return "order_fulfillment_lines"
}

// ToDomain converts the persistence model to a domain FulfillmentLine.
func (m *FulfillmentLineModel) ToDomain() order.FulfillmentLine {
	return order.FulfillmentLine{
		ID:                m.ID,
		OrderID:           m.OrderID,
		OrderItemID:       m.OrderItemID,
		ProductID:         m.ProductID,
		OrderedQuantity:   m.OrderedQuantity,
		ReservedQuantity:  m.ReservedQuantity,
		FulfilledQuantity: m.FulfilledQuantity,
		ReturnedQuantity:  m.ReturnedQuantity,
		LastMethod:        m.LastMethod,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FulfillmentLineModelFromDomain creates a new persistence model from a domain FulfillmentLine.
func FulfillmentLineModelFromDomain(l *order.FulfillmentLine) *FulfillmentLineModel {
	return &FulfillmentLineModel{
		ID:                l.ID,
		OrderID:           l.OrderID,
		OrderItemID:       l.OrderItemID,
		ProductID:         l.ProductID,
		OrderedQuantity:   l.OrderedQuantity,
		ReservedQuantity:  l.ReservedQuantity,
		FulfilledQuantity: l.FulfilledQuantity,
		ReturnedQuantity:  l.ReturnedQuantity,
		LastMethod:        l.LastMethod,
		UpdatedAt:         l.UpdatedAt,
	}
}

// OrderStatusChangeModel records an order status transition
type OrderStatusChangeModel struct {
	ID         uuid.UUID    `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	FromStatus order.Status `gorm:"type:varchar(20);not null"`
	ToStatus   order.Status `gorm:"type:varchar(20);not null"`
	Actor      string       `gorm:"type:varchar(100);not null"`
	Notes      string       `gorm:"type:text"`
	Timestamp  time.Time    `gorm:"column:occurred_at;not null"`
}

// TableName returns the table name for GORM
func (OrderStatusChangeModel) TableName() string {
	return "order_status_history"
}

// OrderStatusChangeModelFromDomain creates a new persistence model from a domain StatusChange.
func OrderStatusChangeModelFromDomain(c *order.StatusChange) *OrderStatusChangeModel {
	return &OrderStatusChangeModel{
		ID:         c.ID,
		OrderID:    c.OrderID,
		FromStatus: c.FromStatus,
		ToStatus:   c.ToStatus,
		Actor:      c.Actor,
		Notes:      c.Notes,
		Timestamp:  c.Timestamp,
	}
}

// ReturnRecordModel is one processed customer return
type ReturnRecordModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int       `gorm:"not null"`
	Reason    string    `gorm:"type:text"`
	Actor     string    `gorm:"type:varchar(100);not null"`
	Timestamp time.Time `gorm:"column:occurred_at;not null"`
}

// TableName returns the table name for GORM
func (ReturnRecordModel) TableName() string {
	return "returns"
}

// ToDomain converts the persistence model to a domain ReturnRecord.
func (m *ReturnRecordModel) ToDomain() order.ReturnRecord {
	return order.ReturnRecord{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		Actor:     m.Actor,
		Timestamp: m.Timestamp,
	}
}

// ReturnRecordModelFromDomain creates a new persistence model from a domain ReturnRecord.
func ReturnRecordModelFromDomain(r *order.ReturnRecord) *ReturnRecordModel {
	return &ReturnRecordModel{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Reason:    r.Reason,
		Actor:     r.Actor,
		Timestamp: r.Timestamp,
	}
}
