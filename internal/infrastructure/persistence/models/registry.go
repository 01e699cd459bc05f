package models

// AllModels lists every persistence model, in dependency order, for
// AutoMigrate in tests and local development. Production schemas come from
// the SQL migrations.
func AllModels() []any {
	return []any{
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&StockRecordModel{},
		&AuditLogEntryModel{},
		&StockMovementModel{},
		&OrderReservationModel{},
		&FulfillmentLineModel{},
		&OrderStatusChangeModel{},
		&ReturnRecordModel{},
	}
}
