package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/resta-pos/api/internal/catalog"
	"github.com/shopspring/decimal"
)

type fixtureIDs struct {
	category uuid.UUID
	dish     uuid.UUID
	size     uuid.UUID
	group    uuid.UUID
	item     uuid.UUID
}

// newTestCatalog builds a category with 8% VAT, one online dish priced at
// 20.00 for one size, and an addon group ("Extra cheese" at 2.00) assigned
// to the category with a MULTI modifier: min 0, max 3, first unit free.
func newTestCatalog() (*catalog.Fixture, fixtureIDs) {
	ids := fixtureIDs{
		category: uuid.New(),
		dish:     uuid.New(),
		size:     uuid.New(),
		group:    uuid.New(),
		item:     uuid.New(),
	}

	f := catalog.NewFixture()
	f.AddCategory(catalog.Category{
		ID:       ids.category,
		Name:     "Pizza",
		VATRate:  decimal.NewFromInt(8),
		IsOnline: true,
	})
	f.AddDish(catalog.Dish{
		ID:         ids.dish,
		CategoryID: ids.category,
		Name:       "Margherita",
		IsOnline:   true,
	})
	f.AddSize(catalog.Size{
		ID:         ids.size,
		CategoryID: ids.category,
		Name:       "26cm",
		IsOnline:   true,
		IsDefault:  true,
	})
	f.AddDishSize(catalog.DishSize{
		DishID:    ids.dish,
		SizeID:    ids.size,
		Price:     decimal.RequireFromString("20.00"),
		VATSource: catalog.VATSourceInherit,
		IsOnline:  true,
	})
	f.AddGroup(catalog.AddonGroup{ID: ids.group, Name: "Extra toppings", IsOnline: true})
	f.AddItem(catalog.AddonItem{
		ID:       ids.item,
		GroupID:  ids.group,
		Name:     "Extra cheese",
		Price:    decimal.RequireFromString("2.00"),
		IsOnline: true,
	})
	maxSel := int32(3)
	f.AddModifier(catalog.Modifier{
		GroupID:         ids.group,
		SelectionType:   catalog.SelectionMulti,
		MinSelect:       0,
		MaxSelect:       &maxSel,
		IncludedFreeQty: 1,
	})
	f.AddAssignment(catalog.GroupAssignment{
		ID:         uuid.New(),
		GroupID:    ids.group,
		Target:     catalog.AssignmentTargetCategory,
		CategoryID: ids.category,
	})
	return f, ids
}

func TestComputeQuoteFullBreakdown(t *testing.T) {
	f, ids := newTestCatalog()
	engine := NewEngine(f)

	q, err := engine.ComputeQuote(context.Background(), ids.dish, ids.size, []Selection{
		{GroupID: ids.group, ItemID: ids.item, Qty: 3},
	})
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}

	// 20.00 base + 2 chargeable units of 2.00 (first is free) = 24.00
	// subtotal, 8% VAT = 1.92, total 25.92.
	if got := q.BasePrice.StringFixed(2); got != "20.00" {
		t.Errorf("BasePrice = %s, want 20.00", got)
	}
	if got := q.AddonPrice.StringFixed(2); got != "4.00" {
		t.Errorf("AddonPrice = %s, want 4.00", got)
	}
	if got := q.VATAmount.StringFixed(2); got != "1.92" {
		t.Errorf("VATAmount = %s, want 1.92", got)
	}
	if got := q.Total.StringFixed(2); got != "25.92" {
		t.Errorf("Total = %s, want 25.92", got)
	}

	wantLines := []struct {
		label string
		price string
	}{
		{"Margherita (26cm)", "20.00"},
		{"Extra cheese x1 (included)", "0.00"},
		{"Extra cheese x2", "4.00"},
		{"VAT 8%", "1.92"},
	}
	if len(q.Lines) != len(wantLines) {
		t.Fatalf("got %d breakdown lines, want %d: %+v", len(q.Lines), len(wantLines), q.Lines)
	}
	for i, want := range wantLines {
		if q.Lines[i].Label != want.label {
			t.Errorf("line %d label = %q, want %q", i, q.Lines[i].Label, want.label)
		}
		if got := q.Lines[i].Price.StringFixed(2); got != want.price {
			t.Errorf("line %d price = %s, want %s", i, got, want.price)
		}
	}
}

func TestComputeQuoteDeterministic(t *testing.T) {
	f, ids := newTestCatalog()
	engine := NewEngine(f)
	sel := []Selection{{GroupID: ids.group, ItemID: ids.item, Qty: 2}}

	first, err := engine.ComputeQuote(context.Background(), ids.dish, ids.size, sel)
	if err != nil {
		t.Fatalf("first ComputeQuote: %v", err)
	}
	second, err := engine.ComputeQuote(context.Background(), ids.dish, ids.size, sel)
	if err != nil {
		t.Fatalf("second ComputeQuote: %v", err)
	}
	if !first.Total.Equal(second.Total) || len(first.Lines) != len(second.Lines) {
		t.Errorf("quotes differ on identical input: %+v vs %+v", first, second)
	}
}

func TestComputeQuoteNotFound(t *testing.T) {
	f, ids := newTestCatalog()
	engine := NewEngine(f)
	ctx := context.Background()

	t.Run("unknown dish", func(t *testing.T) {
		_, err := engine.ComputeQuote(ctx, uuid.New(), ids.size, nil)
		if !errors.Is(err, ErrDishNotFound) {
			t.Errorf("got %v, want ErrDishNotFound", err)
		}
	})

	t.Run("unknown size", func(t *testing.T) {
		_, err := engine.ComputeQuote(ctx, ids.dish, uuid.New(), nil)
		if !errors.Is(err, ErrSizeNotFound) {
			t.Errorf("got %v, want ErrSizeNotFound", err)
		}
	})

	t.Run("unpriced dish size", func(t *testing.T) {
		other := uuid.New()
		f.AddSize(catalog.Size{ID: other, CategoryID: ids.category, Name: "32cm", IsOnline: true})
		_, err := engine.ComputeQuote(ctx, ids.dish, other, nil)
		if !errors.Is(err, ErrDishSizeNotFound) {
			t.Errorf("got %v, want ErrDishSizeNotFound", err)
		}
	})

	t.Run("unknown addon item", func(t *testing.T) {
		_, err := engine.ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: uuid.New(), Qty: 1},
		})
		if !errors.Is(err, ErrAddonItemNotFound) {
			t.Errorf("got %v, want ErrAddonItemNotFound", err)
		}
	})

	for _, err := range []error{ErrDishNotFound, ErrSizeNotFound, ErrDishSizeNotFound, ErrAddonItemNotFound} {
		if !IsNotFound(err) {
			t.Errorf("IsNotFound(%v) = false, want true", err)
		}
		if IsRuleViolation(err) {
			t.Errorf("IsRuleViolation(%v) = true, want false", err)
		}
	}
}

func TestComputeQuoteOnlineVisibility(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		prep func(f *catalog.Fixture, ids fixtureIDs)
	}{
		{"category offline", func(f *catalog.Fixture, ids fixtureIDs) {
			c := f.Categories[ids.category]
			c.IsOnline = false
			f.AddCategory(c)
		}},
		{"dish offline", func(f *catalog.Fixture, ids fixtureIDs) {
			d := f.Dishes[ids.dish]
			d.IsOnline = false
			f.AddDish(d)
		}},
		{"dish size offline", func(f *catalog.Fixture, ids fixtureIDs) {
			ds := f.DishSizes[[2]uuid.UUID{ids.dish, ids.size}]
			ds.IsOnline = false
			f.AddDishSize(ds)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, ids := newTestCatalog()
			tc.prep(f, ids)
			_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, nil)
			if !errors.Is(err, ErrNotAvailableOnline) {
				t.Errorf("got %v, want ErrNotAvailableOnline", err)
			}
		})
	}
}

func TestComputeQuoteVATOverride(t *testing.T) {
	f, ids := newTestCatalog()
	ds := f.DishSizes[[2]uuid.UUID{ids.dish, ids.size}]
	ds.VATSource = catalog.VATSourceOverride
	ds.VATRate = decimal.NewFromInt(19)
	f.AddDishSize(ds)

	q, err := NewEngine(f).ComputeQuote(context.Background(), ids.dish, ids.size, nil)
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}
	if got := q.VATRate.String(); got != "19" {
		t.Errorf("VATRate = %s, want 19", got)
	}
	if got := q.VATAmount.StringFixed(2); got != "3.80" {
		t.Errorf("VATAmount = %s, want 3.80", got)
	}
	if got := q.Total.StringFixed(2); got != "23.80" {
		t.Errorf("Total = %s, want 23.80", got)
	}
}

func TestComputeQuoteGroupAssignment(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown group", func(t *testing.T) {
		f, ids := newTestCatalog()
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: uuid.New(), ItemID: ids.item, Qty: 1},
		})
		if !errors.Is(err, ErrGroupNotAssigned) {
			t.Errorf("got %v, want ErrGroupNotAssigned", err)
		}
	})

	t.Run("assigned to a different dish", func(t *testing.T) {
		f, ids := newTestCatalog()
		f.Assignments[ids.group] = []catalog.GroupAssignment{{
			ID:      uuid.New(),
			GroupID: ids.group,
			Target:  catalog.AssignmentTargetDish,
			DishID:  uuid.New(),
		}}
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: ids.item, Qty: 1},
		})
		if !errors.Is(err, ErrGroupNotAssigned) {
			t.Errorf("got %v, want ErrGroupNotAssigned", err)
		}
	})

	t.Run("dish-level assignment applies", func(t *testing.T) {
		f, ids := newTestCatalog()
		f.Assignments[ids.group] = []catalog.GroupAssignment{{
			ID:      uuid.New(),
			GroupID: ids.group,
			Target:  catalog.AssignmentTargetDish,
			DishID:  ids.dish,
		}}
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: ids.item, Qty: 1},
		})
		if err != nil {
			t.Errorf("ComputeQuote: %v", err)
		}
	})
}

func TestComputeQuoteAddonRules(t *testing.T) {
	ctx := context.Background()

	t.Run("item from another group", func(t *testing.T) {
		f, ids := newTestCatalog()
		stray := catalog.AddonItem{
			ID:       uuid.New(),
			GroupID:  uuid.New(),
			Name:     "Stray",
			Price:    decimal.NewFromInt(1),
			IsOnline: true,
		}
		f.AddItem(stray)
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: stray.ID, Qty: 1},
		})
		if !errors.Is(err, ErrAddonItemMismatch) {
			t.Errorf("got %v, want ErrAddonItemMismatch", err)
		}
	})

	t.Run("group offline", func(t *testing.T) {
		f, ids := newTestCatalog()
		g := f.Groups[ids.group]
		g.IsOnline = false
		f.AddGroup(g)
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: ids.item, Qty: 1},
		})
		if !errors.Is(err, ErrAddonNotAvailableOnline) {
			t.Errorf("got %v, want ErrAddonNotAvailableOnline", err)
		}
	})

	t.Run("item offline", func(t *testing.T) {
		f, ids := newTestCatalog()
		it := f.Items[ids.item]
		it.IsOnline = false
		f.AddItem(it)
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: ids.item, Qty: 1},
		})
		if !errors.Is(err, ErrAddonNotAvailableOnline) {
			t.Errorf("got %v, want ErrAddonNotAvailableOnline", err)
		}
	})

	t.Run("negative quantity", func(t *testing.T) {
		f, ids := newTestCatalog()
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: ids.item, Qty: -1},
		})
		if !errors.Is(err, ErrNegativeQuantity) {
			t.Errorf("got %v, want ErrNegativeQuantity", err)
		}
	})
}

func TestComputeQuoteModifierConstraints(t *testing.T) {
	ctx := context.Background()

	t.Run("single select over one unit", func(t *testing.T) {
		f, ids := newTestCatalog()
		m := f.Modifiers[ids.group]
		m.SelectionType = catalog.SelectionSingle
		f.AddModifier(m)
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: ids.item, Qty: 2},
		})
		if !errors.Is(err, ErrSelectionTypeViolation) {
			t.Errorf("got %v, want ErrSelectionTypeViolation", err)
		}
	})

	t.Run("below minimum", func(t *testing.T) {
		f, ids := newTestCatalog()
		m := f.Modifiers[ids.group]
		m.MinSelect = 2
		f.AddModifier(m)
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: ids.item, Qty: 1},
		})
		if !errors.Is(err, ErrMinSelectViolation) {
			t.Errorf("got %v, want ErrMinSelectViolation", err)
		}
	})

	t.Run("above maximum", func(t *testing.T) {
		f, ids := newTestCatalog()
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: ids.item, Qty: 4},
		})
		if !errors.Is(err, ErrMaxSelectViolation) {
			t.Errorf("got %v, want ErrMaxSelectViolation", err)
		}
	})

	t.Run("no modifier means unconstrained full price", func(t *testing.T) {
		f, ids := newTestCatalog()
		delete(f.Modifiers, ids.group)
		q, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, []Selection{
			{GroupID: ids.group, ItemID: ids.item, Qty: 10},
		})
		if err != nil {
			t.Fatalf("ComputeQuote: %v", err)
		}
		if got := q.AddonPrice.StringFixed(2); got != "20.00" {
			t.Errorf("AddonPrice = %s, want 20.00", got)
		}
	})
}

func TestComputeQuoteFreeUnitSplit(t *testing.T) {
	f, ids := newTestCatalog()
	it := f.Items[ids.item]
	it.Price = decimal.RequireFromString("3.00")
	f.AddItem(it)
	maxSel := int32(10)
	f.AddModifier(catalog.Modifier{
		GroupID:         ids.group,
		SelectionType:   catalog.SelectionMulti,
		MaxSelect:       &maxSel,
		IncludedFreeQty: 2,
	})

	q, err := NewEngine(f).ComputeQuote(context.Background(), ids.dish, ids.size, []Selection{
		{GroupID: ids.group, ItemID: ids.item, Qty: 5},
	})
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}
	// 2 of 5 units free, 3 chargeable at 3.00.
	if got := q.AddonPrice.StringFixed(2); got != "9.00" {
		t.Errorf("AddonPrice = %s, want 9.00", got)
	}
	if q.Lines[1].Label != "Extra cheese x2 (included)" {
		t.Errorf("free line label = %q", q.Lines[1].Label)
	}
	if q.Lines[2].Label != "Extra cheese x3" {
		t.Errorf("chargeable line label = %q", q.Lines[2].Label)
	}
}

func TestComputeQuoteFreeUnitsCoverWholeSelection(t *testing.T) {
	f, ids := newTestCatalog()

	q, err := NewEngine(f).ComputeQuote(context.Background(), ids.dish, ids.size, []Selection{
		{GroupID: ids.group, ItemID: ids.item, Qty: 1},
	})
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}
	if !q.AddonPrice.IsZero() {
		t.Errorf("AddonPrice = %s, want 0", q.AddonPrice)
	}
	// Only dish, free and VAT lines; no chargeable addon line.
	if len(q.Lines) != 3 {
		t.Fatalf("got %d lines, want 3: %+v", len(q.Lines), q.Lines)
	}
	if q.Lines[1].Label != "Extra cheese x1 (included)" {
		t.Errorf("free line label = %q", q.Lines[1].Label)
	}
}

func TestComputeQuoteCatalogCorrupt(t *testing.T) {
	ctx := context.Background()

	t.Run("dish references missing category", func(t *testing.T) {
		f, ids := newTestCatalog()
		delete(f.Categories, ids.category)
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, nil)
		if !errors.Is(err, ErrCatalogCorrupt) {
			t.Errorf("got %v, want ErrCatalogCorrupt", err)
		}
	})

	t.Run("size from another category", func(t *testing.T) {
		f, ids := newTestCatalog()
		s := f.Sizes[ids.size]
		s.CategoryID = uuid.New()
		f.AddSize(s)
		_, err := NewEngine(f).ComputeQuote(ctx, ids.dish, ids.size, nil)
		if !errors.Is(err, ErrCatalogCorrupt) {
			t.Errorf("got %v, want ErrCatalogCorrupt", err)
		}
	})
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrDishNotFound, "DishNotFound"},
		{ErrGroupNotAssigned, "AddonGroupNotAssigned"},
		{ErrSelectionTypeViolation, "SelectionTypeViolation"},
		{ErrMaxSelectViolation, "MaxSelectViolation"},
		{ErrCatalogCorrupt, ""},
		{errors.New("boom"), ""},
	}
	for _, tc := range tests {
		if got := Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
