package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Errors returned by the state machine.
var (
	ErrNoUpdateFields    = errors.New("at least one of status or payment_method is required")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// allowedTransitions defines, per current status, the set of statuses an
// order may move to. HISTORICAL has no entry: it is terminal.
var allowedTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusReady, StatusCompleted, StatusCancelled, StatusAssigned, StatusPending},
	StatusPending:    {StatusOpen, StatusInProgress, StatusReady, StatusCompleted, StatusCancelled, StatusAssigned},
	StatusInProgress: {StatusOpen, StatusReady, StatusCompleted, StatusCancelled, StatusAssigned},
	StatusReady:      {StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled, StatusAssigned, StatusOnTheWay},
	StatusAssigned:   {StatusOnTheWay, StatusCompleted, StatusCancelled, StatusDelivered},
	StatusOnTheWay:   {StatusDelivered, StatusCompleted, StatusCancelled},
	StatusDelivered:  {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusHistorical},
	StatusCancelled:  {StatusHistorical},
}

// CanTransition reports whether the table allows moving from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StatusUpdate is the mutation payload for a single order. Nil fields are
// absent; the machine intentionally supports partial single-field updates.
type StatusUpdate struct {
	Status        *Status
	PaymentMethod *PaymentMethod
	ActorID       *uuid.UUID
}

// Changes lists the fields an accepted update actually modified; the store
// persists exactly these.
type Changes struct {
	Status        *Status
	PaymentMethod *PaymentMethod
	CompletedByID *uuid.UUID
}

// ApplyUpdate runs the state machine over a snapshot of the order and the
// requested update. It returns the updated order and the field-level changes,
// or a typed rejection. It is a pure function: persistence and concurrency
// control stay with the caller.
//
// Normalization happens before the transition table is consulted: a payment
// method arriving for a DELIVERED order finalizes it, and an explicit
// DELIVERED target accompanied by a payment method collapses straight to
// COMPLETED (no delivered-unpaid intermediate state).
func ApplyUpdate(o Order, upd StatusUpdate) (Order, Changes, error) {
	if upd.Status == nil && upd.PaymentMethod == nil {
		return o, Changes{}, ErrNoUpdateFields
	}

	current := o.Status
	var ch Changes

	target := upd.Status
	if upd.PaymentMethod != nil {
		switch {
		case target == nil && current == StatusDelivered:
			t := StatusCompleted
			target = &t
		case target != nil && *target == StatusDelivered:
			t := StatusCompleted
			target = &t
		}
	}

	if target != nil {
		if !CanTransition(current, *target) {
			return o, Changes{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, *target)
		}
		o.Status = *target
		ch.Status = target
	}

	// Payment method is immaterial once an order is void; drop the field
	// silently instead of failing the rest of the update.
	if upd.PaymentMethod != nil && current != StatusCancelled {
		o.PaymentMethod = *upd.PaymentMethod
		ch.PaymentMethod = upd.PaymentMethod
	}

	if upd.ActorID != nil && target != nil &&
		(*target == StatusCompleted || *target == StatusDelivered) &&
		o.CompletedByID == nil {
		o.CompletedByID = upd.ActorID
		ch.CompletedByID = upd.ActorID
	}

	return o, ch, nil
}
