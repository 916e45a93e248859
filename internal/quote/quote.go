// Package quote prices a dish configuration (size + addon selections)
// against the current catalog snapshot. The engine is a pure function over
// the catalog provider: it never writes, and identical requests against an
// unchanged snapshot produce identical quotes.
package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/resta-pos/api/internal/catalog"
	"github.com/shopspring/decimal"
)

// Errors returned by the quote engine. Not-found errors mean the request
// references an unknown identifier; rule violations mean the configuration
// is known but not purchasable as requested; ErrCatalogCorrupt means the
// catalog itself is inconsistent and the request cannot be judged.
var (
	ErrDishNotFound      = errors.New("dish not found")
	ErrSizeNotFound      = errors.New("size not found")
	ErrDishSizeNotFound  = errors.New("dish has no price for this size")
	ErrAddonItemNotFound = errors.New("addon item not found")

	ErrNotAvailableOnline      = errors.New("dish size is not available online")
	ErrGroupNotAssigned        = errors.New("addon group is not assigned to this dish")
	ErrAddonNotAvailableOnline = errors.New("addon is not available online")
	ErrAddonItemMismatch       = errors.New("addon item does not belong to group")
	ErrSelectionTypeViolation  = errors.New("single-select group allows at most one unit")
	ErrMinSelectViolation      = errors.New("selection below minimum count")
	ErrMaxSelectViolation      = errors.New("selection above maximum count")
	ErrNegativeQuantity        = errors.New("quantity must be >= 0")

	ErrCatalogCorrupt = errors.New("catalog integrity error")
)

// Selection is one addon pick in a quote request.
type Selection struct {
	GroupID uuid.UUID
	ItemID  uuid.UUID
	Qty     int32
}

// Line is a single display row of the quote breakdown.
type Line struct {
	Label string
	Price decimal.Decimal
}

// Quote is the itemized result of a successful price computation.
type Quote struct {
	BasePrice  decimal.Decimal
	AddonPrice decimal.Decimal
	VATRate    decimal.Decimal
	VATAmount  decimal.Decimal
	Total      decimal.Decimal
	Lines      []Line
}

// Engine computes quotes against a catalog snapshot.
type Engine struct {
	catalog catalog.Provider
}

// NewEngine creates a quote engine reading from the given provider.
func NewEngine(c catalog.Provider) *Engine {
	return &Engine{catalog: c}
}

var hundred = decimal.NewFromInt(100)

// ComputeQuote validates the dish/size/selection configuration and returns
// the itemized price. Breakdown lines preserve selection input order: the
// dish line first, then per selection an included-free line (when the
// modifier grants free units) followed by the chargeable line, and the VAT
// line last.
func (e *Engine) ComputeQuote(ctx context.Context, dishID, sizeID uuid.UUID, selections []Selection) (*Quote, error) {
	dish, err := e.catalog.GetDish(ctx, dishID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrDishNotFound
		}
		return nil, fmt.Errorf("get dish: %w", err)
	}

	size, err := e.catalog.GetSize(ctx, sizeID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrSizeNotFound
		}
		return nil, fmt.Errorf("get size: %w", err)
	}

	dishSize, err := e.catalog.GetDishSize(ctx, dishID, sizeID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrDishSizeNotFound
		}
		return nil, fmt.Errorf("get dish size: %w", err)
	}

	category, err := e.catalog.GetCategory(ctx, dish.CategoryID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			// A dish always references an existing category; a priced dish
			// without one is upstream corruption, not caller input.
			return nil, fmt.Errorf("%w: dish %s references missing category %s",
				ErrCatalogCorrupt, dish.ID, dish.CategoryID)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	if size.CategoryID != dish.CategoryID {
		return nil, fmt.Errorf("%w: dish size %s/%s spans categories",
			ErrCatalogCorrupt, dishID, sizeID)
	}

	// Online purchasability is AND-composed over the whole chain.
	if !category.IsOnline || !dish.IsOnline || !dishSize.IsOnline {
		return nil, ErrNotAvailableOnline
	}

	vatRate := category.VATRate
	if dishSize.VATSource == catalog.VATSourceOverride {
		vatRate = dishSize.VATRate
	}

	q := &Quote{
		BasePrice: dishSize.Price,
		VATRate:   vatRate,
	}
	q.Lines = append(q.Lines, Line{
		Label: fmt.Sprintf("%s (%s)", dish.Name, size.Name),
		Price: dishSize.Price,
	})

	for i, sel := range selections {
		lines, amount, err := e.priceSelection(ctx, dish, sel)
		if err != nil {
			return nil, fmt.Errorf("selections[%d]: %w", i, err)
		}
		q.Lines = append(q.Lines, lines...)
		q.AddonPrice = q.AddonPrice.Add(amount)
	}

	subtotal := q.BasePrice.Add(q.AddonPrice)
	q.VATAmount = subtotal.Mul(vatRate).Div(hundred)
	q.Total = subtotal.Add(q.VATAmount)
	q.Lines = append(q.Lines, Line{
		Label: fmt.Sprintf("VAT %s%%", vatRate.String()),
		Price: q.VATAmount,
	})

	return q, nil
}

// priceSelection validates one addon selection and returns its display lines
// plus the chargeable amount it contributes.
func (e *Engine) priceSelection(ctx context.Context, dish catalog.Dish, sel Selection) ([]Line, decimal.Decimal, error) {
	if sel.Qty < 0 {
		return nil, decimal.Zero, ErrNegativeQuantity
	}

	group, err := e.catalog.GetAddonGroup(ctx, sel.GroupID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			// An unknown group can have no assignment to the dish either.
			return nil, decimal.Zero, ErrGroupNotAssigned
		}
		return nil, decimal.Zero, fmt.Errorf("get addon group: %w", err)
	}

	assignments, err := e.catalog.GetGroupAssignments(ctx, sel.GroupID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("get group assignments: %w", err)
	}
	assigned := false
	for _, a := range assignments {
		if a.AppliesTo(dish) {
			assigned = true
			break
		}
	}
	if !assigned {
		return nil, decimal.Zero, ErrGroupNotAssigned
	}

	item, err := e.catalog.GetAddonItem(ctx, sel.ItemID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, decimal.Zero, ErrAddonItemNotFound
		}
		return nil, decimal.Zero, fmt.Errorf("get addon item: %w", err)
	}
	if item.GroupID != group.ID {
		return nil, decimal.Zero, ErrAddonItemMismatch
	}

	if !group.IsOnline || !item.IsOnline {
		return nil, decimal.Zero, ErrAddonNotAvailableOnline
	}

	// The modifier, when present, is the sole source of truth for selection
	// count legality and free units. Absence means unconstrained, full price.
	chargeableQty := sel.Qty
	freeQty := int32(0)
	mod, err := e.catalog.GetModifier(ctx, sel.GroupID)
	switch {
	case err == nil:
		if mod.SelectionType == catalog.SelectionSingle && sel.Qty > 1 {
			return nil, decimal.Zero, ErrSelectionTypeViolation
		}
		if sel.Qty < mod.MinSelect {
			return nil, decimal.Zero, fmt.Errorf("%w: min %d", ErrMinSelectViolation, mod.MinSelect)
		}
		if mod.MaxSelect != nil && sel.Qty > *mod.MaxSelect {
			return nil, decimal.Zero, fmt.Errorf("%w: max %d", ErrMaxSelectViolation, *mod.MaxSelect)
		}
		freeQty = min(sel.Qty, mod.IncludedFreeQty)
		chargeableQty = sel.Qty - freeQty
	case errors.Is(err, catalog.ErrNotFound):
		// no modifier configured
	default:
		return nil, decimal.Zero, fmt.Errorf("get modifier: %w", err)
	}

	var lines []Line
	if freeQty > 0 {
		lines = append(lines, Line{
			Label: fmt.Sprintf("%s x%d (included)", item.Name, freeQty),
			Price: decimal.Zero,
		})
	}
	amount := decimal.Zero
	if chargeableQty > 0 {
		amount = item.Price.Mul(decimal.NewFromInt32(chargeableQty))
		lines = append(lines, Line{
			Label: fmt.Sprintf("%s x%d", item.Name, chargeableQty),
			Price: amount,
		})
	}
	return lines, amount, nil
}

// IsNotFound reports whether err belongs to the not-found class (404).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDishNotFound) ||
		errors.Is(err, ErrSizeNotFound) ||
		errors.Is(err, ErrDishSizeNotFound) ||
		errors.Is(err, ErrAddonItemNotFound)
}

// IsRuleViolation reports whether err belongs to the rule-violation class (422).
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrNotAvailableOnline) ||
		errors.Is(err, ErrGroupNotAssigned) ||
		errors.Is(err, ErrAddonNotAvailableOnline) ||
		errors.Is(err, ErrAddonItemMismatch) ||
		errors.Is(err, ErrSelectionTypeViolation) ||
		errors.Is(err, ErrMinSelectViolation) ||
		errors.Is(err, ErrMaxSelectViolation) ||
		errors.Is(err, ErrNegativeQuantity)
}

// Kind returns the stable discriminator for a quote rejection, or "" for
// errors outside the expected taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrDishNotFound):
		return "DishNotFound"
	case errors.Is(err, ErrSizeNotFound):
		return "SizeNotFound"
	case errors.Is(err, ErrDishSizeNotFound):
		return "DishSizeNotFound"
	case errors.Is(err, ErrAddonItemNotFound):
		return "AddonItemNotFound"
	case errors.Is(err, ErrNotAvailableOnline):
		return "NotAvailableOnline"
	case errors.Is(err, ErrGroupNotAssigned):
		return "AddonGroupNotAssigned"
	case errors.Is(err, ErrAddonNotAvailableOnline):
		return "AddonNotAvailableOnline"
	case errors.Is(err, ErrAddonItemMismatch):
		return "AddonItemMismatch"
	case errors.Is(err, ErrSelectionTypeViolation):
		return "SelectionTypeViolation"
	case errors.Is(err, ErrMinSelectViolation):
		return "MinSelectViolation"
	case errors.Is(err, ErrMaxSelectViolation):
		return "MaxSelectViolation"
	case errors.Is(err, ErrNegativeQuantity):
		return "NegativeQuantity"
	}
	return ""
}
