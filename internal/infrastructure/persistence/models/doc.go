// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - inventory.go: stock records, audit log entries, stock movements
//   - order.go: orders, order items, reservations, fulfillment lines,
//     status history and returns
//   - catalog.go: the product read model
package models
