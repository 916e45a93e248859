package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Errors returned by the status and assignment services.
var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrConflict       = errors.New("order changed concurrently, please retry")
	ErrOrderFinalized = errors.New("order is already completed or cancelled")
)

// Store defines the persistence methods the lifecycle services need.
// Implementations are atomic at the row level; UpdateOrder is a
// compare-and-set guarded by the previously read status.
type Store interface {
	GetOrder(ctx context.Context, id uuid.UUID) (Order, error)
	// GetOrderForUpdate reads the order under a row lock; only meaningful
	// inside a transaction.
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error)
	UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error)
	AssignOrder(ctx context.Context, id, employeeID uuid.UUID) (Order, error)
	UnassignOrder(ctx context.Context, id uuid.UUID, next Status) (Order, error)
}

// UpdateOrderParams is a partial order update. Nil fields are left untouched.
// PrevStatus is the optimistic-concurrency guard: the update applies only if
// the row still holds that status, otherwise the store reports ErrConflict.
type UpdateOrderParams struct {
	ID            uuid.UUID
	PrevStatus    Status
	Status        *Status
	PaymentMethod *PaymentMethod
	CompletedByID *uuid.UUID
}

// StatusService runs the state machine against persisted orders.
type StatusService struct {
	store Store
}

// NewStatusService creates a StatusService over the given store.
func NewStatusService(store Store) *StatusService {
	return &StatusService{store: store}
}

// UpdateStatus loads the order, applies the state machine, and persists the
// accepted changes with a compare-and-set on the status read here. A lost
// race (kitchen marks READY while dispatch cancels) surfaces as ErrConflict
// rather than a silently overwritten update.
func (s *StatusService) UpdateStatus(ctx context.Context, orderID uuid.UUID, upd StatusUpdate) (*Order, error) {
	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	_, ch, err := ApplyUpdate(current, upd)
	if err != nil {
		return nil, err
	}
	if ch.Status == nil && ch.PaymentMethod == nil && ch.CompletedByID == nil {
		// Nothing survived normalization (e.g. payment method dropped on a
		// cancelled order). Partial success: return the order as-is.
		return &current, nil
	}

	updated, err := s.store.UpdateOrder(ctx, UpdateOrderParams{
		ID:            orderID,
		PrevStatus:    current.Status,
		Status:        ch.Status,
		PaymentMethod: ch.PaymentMethod,
		CompletedByID: ch.CompletedByID,
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return &updated, nil
}
