package inventory

import (
	"context"

	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/order"
)

// TransactionScope provides transactional access to the ledger repositories.
// Every repository handed to fn shares one database transaction, which is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories a unit of work may touch.
//
// Aggregate boundary notes:
//   - StockRepo owns StockRecord; quantity changes only go through ApplyDelta.
//   - AuditRepo and MovementRepo are append-only and must be written in the
//     same transaction as the mutation they describe.
//   - ReservationRepo persists the Reservation aggregate with its lines.
//   - OrderRepo is read-mostly; inventory only writes the fulfilled transition.
type TransactionalRepositories interface {
	StockRepo() inventory.StockRecordRepository
	AuditRepo() inventory.AuditLogRepository
	MovementRepo() inventory.StockMovementRepository
	ReservationRepo() order.ReservationRepository
	OrderRepo() order.OrderRepository
	ReturnRepo() order.ReturnRepository
}

// NoOpTransactionScope runs fn against fixed repositories without a
// transaction. Used by unit tests with mocked repositories.
type NoOpTransactionScope struct {
	stockRepo       inventory.StockRecordRepository
	auditRepo       inventory.AuditLogRepository
	movementRepo    inventory.StockMovementRepository
	reservationRepo order.ReservationRepository
	orderRepo       order.OrderRepository
	returnRepo      order.ReturnRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	stockRepo inventory.StockRecordRepository,
	auditRepo inventory.AuditLogRepository,
	movementRepo inventory.StockMovementRepository,
	reservationRepo order.ReservationRepository,
	orderRepo order.OrderRepository,
	returnRepo order.ReturnRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo:       stockRepo,
		auditRepo:       auditRepo,
		movementRepo:    movementRepo,
		reservationRepo: reservationRepo,
		orderRepo:       orderRepo,
		returnRepo:      returnRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRepo returns the stock record repository
func (s *NoOpTransactionScope) StockRepo() inventory.StockRecordRepository {
	return s.stockRepo
}

// AuditRepo returns the audit log repository
func (s *NoOpTransactionScope) AuditRepo() inventory.AuditLogRepository {
	return s.auditRepo
}

// MovementRepo returns the stock movement repository
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

// ReservationRepo returns the reservation repository
func (s *NoOpTransactionScope) ReservationRepo() order.ReservationRepository {
	return s.reservationRepo
}

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() order.OrderRepository {
	return s.orderRepo
}

// ReturnRepo returns the return repository
func (s *NoOpTransactionScope) ReturnRepo() order.ReturnRepository {
	return s.returnRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
