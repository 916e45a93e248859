// Package catalog defines the read-only snapshot of the menu configuration
// that the quote engine prices against: categories, dishes, sizes, priced
// dish-size rows, addon groups with their items, selection modifiers, and
// the assignments that make a group applicable to a dish or category.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by Provider getters when the entity does not exist.
var ErrNotFound = errors.New("catalog: not found")

// VATSource says where a dish-size row takes its VAT rate from.
type VATSource string

const (
	VATSourceInherit  VATSource = "INHERIT"
	VATSourceOverride VATSource = "OVERRIDE"
)

// SelectionType constrains how many distinct units of an addon may be picked.
type SelectionType string

const (
	SelectionSingle SelectionType = "SINGLE"
	SelectionMulti  SelectionType = "MULTI"
)

// AssignmentTarget is the kind of entity a group assignment points at.
type AssignmentTarget string

const (
	AssignmentTargetCategory AssignmentTarget = "CATEGORY"
	AssignmentTargetDish     AssignmentTarget = "DISH"
)

// Category groups dishes and carries the inheritable VAT rate.
type Category struct {
	ID       uuid.UUID
	Name     string
	VATRate  decimal.Decimal // percentage, e.g. 8 for 8%
	IsOnline bool
}

// Dish is a sellable menu entry. It is priced only through DishSize rows.
type Dish struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Name       string
	IsOnline   bool
}

// Size is a per-category portion size (e.g. 26cm, 32cm).
type Size struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Name       string
	IsOnline   bool
	IsDefault  bool
}

// DishSize is the priced combination of a dish at a specific size.
type DishSize struct {
	DishID    uuid.UUID
	SizeID    uuid.UUID
	Price     decimal.Decimal
	VATSource VATSource
	VATRate   decimal.Decimal // only meaningful when VATSource is OVERRIDE
	IsOnline  bool
}

// AddonGroup is a named collection of addon items (e.g. "Extra toppings").
type AddonGroup struct {
	ID       uuid.UUID
	Name     string
	IsOnline bool
}

// AddonItem is a single pickable addon within a group.
type AddonItem struct {
	ID       uuid.UUID
	GroupID  uuid.UUID
	Name     string
	Price    decimal.Decimal
	IsOnline bool
}

// Modifier is the optional selection-constraint configuration of a group.
// When no modifier exists for a group, the whole quantity is chargeable and
// selection counts are unconstrained.
type Modifier struct {
	GroupID         uuid.UUID
	SelectionType   SelectionType
	MinSelect       int32
	MaxSelect       *int32 // nil means no upper bound
	IncludedFreeQty int32  // units chargeable only above this count
}

// GroupAssignment links an addon group to a dish or to a whole category.
type GroupAssignment struct {
	ID         uuid.UUID
	GroupID    uuid.UUID
	Target     AssignmentTarget
	CategoryID uuid.UUID // set when Target is CATEGORY
	DishID     uuid.UUID // set when Target is DISH
}

// AppliesTo reports whether the assignment makes its group usable on the dish.
func (a GroupAssignment) AppliesTo(d Dish) bool {
	switch a.Target {
	case AssignmentTargetDish:
		return a.DishID == d.ID
	case AssignmentTargetCategory:
		return a.CategoryID == d.CategoryID
	}
	return false
}

// Provider supplies the current catalog state. Implementations must be safe
// for concurrent use; the quote engine invokes them read-only, once per
// referenced entity, with no side effects. Absent entities are signalled with
// ErrNotFound (possibly wrapped).
type Provider interface {
	GetDish(ctx context.Context, id uuid.UUID) (Dish, error)
	GetSize(ctx context.Context, id uuid.UUID) (Size, error)
	GetDishSize(ctx context.Context, dishID, sizeID uuid.UUID) (DishSize, error)
	GetCategory(ctx context.Context, id uuid.UUID) (Category, error)
	GetAddonGroup(ctx context.Context, id uuid.UUID) (AddonGroup, error)
	GetAddonItem(ctx context.Context, id uuid.UUID) (AddonItem, error)
	GetModifier(ctx context.Context, groupID uuid.UUID) (Modifier, error)
	GetGroupAssignments(ctx context.Context, groupID uuid.UUID) ([]GroupAssignment, error)
}
