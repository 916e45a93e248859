// Package order holds the order lifecycle core: the status state machine
// that gates every transition an order may take, and the assignment
// coordinator that attaches drivers and employees to orders atomically.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the closed set of order lifecycle states. Statuses arriving over
// the wire go through ParseStatus, so comparisons inside the core are always
// against normalized values.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusAssigned   Status = "ASSIGNED"
	StatusOnTheWay   Status = "ON_THE_WAY"
	StatusDelivered  Status = "DELIVERED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusHistorical Status = "HISTORICAL"
)

// ParseStatus normalizes and validates a wire-format status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusInProgress, StatusReady,
		StatusAssigned, StatusOnTheWay, StatusDelivered,
		StatusCompleted, StatusCancelled, StatusHistorical:
		return true
	}
	return false
}

// Finalized reports whether s is a terminal business state. Finalized orders
// feed revenue reporting and may only move to HISTORICAL bookkeeping (or be
// explicitly restored to OPEN).
func (s Status) Finalized() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Type is the fulfillment kind of an order.
type Type string

const (
	TypeDineIn   Type = "DINE_IN"
	TypeTakeaway Type = "TAKEAWAY"
	TypeDelivery Type = "DELIVERY"
)

// Assignable reports whether employees can be attached to orders of this
// type. The business tracks fulfillment for all three kinds.
func (t Type) Assignable() bool {
	switch t {
	case TypeDineIn, TypeTakeaway, TypeDelivery:
		return true
	}
	return false
}

// PaymentMethod is how an order was (or will be) paid.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentOnline PaymentMethod = "ONLINE"
)

// ParsePaymentMethod normalizes and validates a wire-format payment method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	pm := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch pm {
	case PaymentCash, PaymentCard, PaymentOnline:
		return pm, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// Order is the lifecycle entity. It is created by order intake and mutated
// exclusively through the state machine and the assignment coordinator.
type Order struct {
	ID                 uuid.UUID
	Number             string
	Status             Status
	Type               Type
	Total              decimal.Decimal
	PaymentMethod      PaymentMethod // empty until payment is recorded
	AssignedEmployeeID *uuid.UUID
	CompletedByID      *uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
