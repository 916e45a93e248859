// Package directory exposes the employee records the order core consults:
// who an employee is, whether they are active, and what role they hold.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the employee id does not resolve.
var ErrNotFound = errors.New("employee not found")

// Role is the closed set of employee roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
	RoleDriver  Role = "DRIVER"
	RoleKitchen Role = "KITCHEN"
)

// AssignableToOrders reports whether employees with this role may be
// attached to an order for fulfillment.
func (r Role) AssignableToOrders() bool {
	switch r {
	case RoleDriver, RoleStaff, RoleManager:
		return true
	}
	return false
}

// Employee is a directory record.
type Employee struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           Role
	IsActive       bool
}

// Directory resolves employees by id.
type Directory interface {
	GetEmployee(ctx context.Context, id uuid.UUID) (Employee, error)
}
