package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/resta-pos/api/internal/directory"
)

// Errors returned by the assignment coordinator.
var (
	ErrInvalidOrderType         = errors.New("order type does not support assignment")
	ErrAlreadyAssigned          = errors.New("order is already assigned to this employee")
	ErrEmployeeInactive         = errors.New("employee is not active")
	ErrIneligibleRole           = errors.New("employee role is not eligible for assignment")
	ErrUnassignmentNotSupported = errors.New("order type does not support unassignment")
	ErrRestoreNotAllowed        = errors.New("only completed or cancelled orders can be restored")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewStore creates a Store bound to the given transaction.
type NewStore func(tx pgx.Tx) Store

// NewDirectory creates an employee directory bound to the given transaction.
type NewDirectory func(tx pgx.Tx) directory.Directory

// AssignmentService attaches and detaches employees on orders. Every
// operation runs its check and its update inside one transaction with the
// order row locked, so two concurrent claims for the same order cannot both
// succeed: the loser re-reads the committed row and observes the winner's
// assignment.
type AssignmentService struct {
	pool         TxBeginner
	newStore     NewStore
	newDirectory NewDirectory
}

// NewAssignmentService creates an AssignmentService.
func NewAssignmentService(pool TxBeginner, newStore NewStore, newDirectory NewDirectory) *AssignmentService {
	return &AssignmentService{pool: pool, newStore: newStore, newDirectory: newDirectory}
}

// Assign attaches the employee to the order and forces the status to
// ASSIGNED. Assignment is itself a status-changing action, so it bypasses
// the regular transition table.
func (s *AssignmentService) Assign(ctx context.Context, orderID, employeeID uuid.UUID) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	o, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status.Finalized() || o.Status == StatusHistorical {
		return nil, ErrOrderFinalized
	}
	if !o.Type.Assignable() {
		return nil, ErrInvalidOrderType
	}
	if o.AssignedEmployeeID != nil && *o.AssignedEmployeeID == employeeID {
		// Surfaced as a rejection so callers can tell a no-op from a fresh
		// assignment; also what the loser of a concurrent claim sees.
		return nil, ErrAlreadyAssigned
	}

	emp, err := s.newDirectory(tx).GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !emp.IsActive {
		return nil, ErrEmployeeInactive
	}
	if !emp.Role.AssignableToOrders() {
		return nil, ErrIneligibleRole
	}

	updated, err := store.AssignOrder(ctx, orderID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("assign order: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// Unassign detaches the employee and recomputes the status: an order already
// in motion (ON_THE_WAY) or staged (READY) stays READY for redispatch,
// anything else drops back into the OPEN pool.
func (s *AssignmentService) Unassign(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	o, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Type != TypeDelivery {
		return nil, ErrUnassignmentNotSupported
	}

	next := StatusOpen
	if o.Status == StatusOnTheWay || o.Status == StatusReady {
		next = StatusReady
	}

	updated, err := store.UnassignOrder(ctx, orderID, next)
	if err != nil {
		return nil, fmt.Errorf("unassign order: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// Restore resets a finalized order back to OPEN. Any other current status is
// rejected; live orders move through the regular transition table instead.
func (s *AssignmentService) Restore(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	o, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.Status.Finalized() {
		return nil, ErrRestoreNotAllowed
	}

	next := StatusOpen
	updated, err := store.UpdateOrder(ctx, UpdateOrderParams{
		ID:         orderID,
		PrevStatus: o.Status,
		Status:     &next,
	})
	if err != nil {
		return nil, fmt.Errorf("restore order: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}
