package persistence

import (
	"context"

	appinv "github.com/handmade/backend/internal/application/inventory"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error or a
// panic rolls the transaction back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) StockRepo() inventory.StockRecordRepository {
	return NewGormStockRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) AuditRepo() inventory.AuditLogRepository {
	return NewGormAuditLogRepository(r.tx)
}

func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) ReservationRepo() order.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}

func (r *gormTransactionalRepositories) OrderRepo() order.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) ReturnRepo() order.ReturnRepository {
	return NewGormReturnRepository(r.tx)
}

var _ appinv.TransactionScope = (*GormTransactionScope)(nil)
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
