package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is the subset of pgx querying methods the provider needs.
// Satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGProvider reads catalog state from Postgres. Each getter is a single
// point read; the provider holds no state of its own.
type PGProvider struct {
	db DBTX
}

// NewPGProvider creates a catalog provider backed by the given pool or tx.
func NewPGProvider(db DBTX) *PGProvider {
	return &PGProvider{db: db}
}

func (p *PGProvider) GetDish(ctx context.Context, id uuid.UUID) (Dish, error) {
	var d Dish
	err := p.db.QueryRow(ctx,
		`SELECT id, category_id, name, is_online FROM dishes WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.CategoryID, &d.Name, &d.IsOnline)
	if err != nil {
		return Dish{}, wrapNotFound("dish", err)
	}
	return d, nil
}

func (p *PGProvider) GetSize(ctx context.Context, id uuid.UUID) (Size, error) {
	var s Size
	err := p.db.QueryRow(ctx,
		`SELECT id, category_id, name, is_online, is_default FROM sizes WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.CategoryID, &s.Name, &s.IsOnline, &s.IsDefault)
	if err != nil {
		return Size{}, wrapNotFound("size", err)
	}
	return s, nil
}

func (p *PGProvider) GetDishSize(ctx context.Context, dishID, sizeID uuid.UUID) (DishSize, error) {
	var (
		ds    DishSize
		price pgtype.Numeric
		rate  pgtype.Numeric
	)
	err := p.db.QueryRow(ctx,
		`SELECT dish_id, size_id, price, vat_source, vat_rate, is_online
		 FROM dish_sizes WHERE dish_id = $1 AND size_id = $2`,
		dishID, sizeID,
	).Scan(&ds.DishID, &ds.SizeID, &price, &ds.VATSource, &rate, &ds.IsOnline)
	if err != nil {
		return DishSize{}, wrapNotFound("dish size", err)
	}
	ds.Price = numericToDecimal(price)
	ds.VATRate = numericToDecimal(rate)
	return ds, nil
}

func (p *PGProvider) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	var (
		c    Category
		rate pgtype.Numeric
	)
	err := p.db.QueryRow(ctx,
		`SELECT id, name, vat_rate, is_online FROM categories WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &rate, &c.IsOnline)
	if err != nil {
		return Category{}, wrapNotFound("category", err)
	}
	c.VATRate = numericToDecimal(rate)
	return c, nil
}

func (p *PGProvider) GetAddonGroup(ctx context.Context, id uuid.UUID) (AddonGroup, error) {
	var g AddonGroup
	err := p.db.QueryRow(ctx,
		`SELECT id, name, is_online FROM addon_groups WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.Name, &g.IsOnline)
	if err != nil {
		return AddonGroup{}, wrapNotFound("addon group", err)
	}
	return g, nil
}

func (p *PGProvider) GetAddonItem(ctx context.Context, id uuid.UUID) (AddonItem, error) {
	var (
		it    AddonItem
		price pgtype.Numeric
	)
	err := p.db.QueryRow(ctx,
		`SELECT id, group_id, name, price, is_online FROM addon_items WHERE id = $1`,
		id,
	).Scan(&it.ID, &it.GroupID, &it.Name, &price, &it.IsOnline)
	if err != nil {
		return AddonItem{}, wrapNotFound("addon item", err)
	}
	it.Price = numericToDecimal(price)
	return it, nil
}

func (p *PGProvider) GetModifier(ctx context.Context, groupID uuid.UUID) (Modifier, error) {
	var (
		m         Modifier
		maxSelect pgtype.Int4
	)
	err := p.db.QueryRow(ctx,
		`SELECT group_id, selection_type, min_select, max_select, included_free_qty
		 FROM modifiers WHERE group_id = $1`,
		groupID,
	).Scan(&m.GroupID, &m.SelectionType, &m.MinSelect, &maxSelect, &m.IncludedFreeQty)
	if err != nil {
		return Modifier{}, wrapNotFound("modifier", err)
	}
	if maxSelect.Valid {
		v := maxSelect.Int32
		m.MaxSelect = &v
	}
	return m, nil
}

func (p *PGProvider) GetGroupAssignments(ctx context.Context, groupID uuid.UUID) ([]GroupAssignment, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, group_id, target, category_id, dish_id
		 FROM group_assignments WHERE group_id = $1`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list group assignments: %w", err)
	}
	defer rows.Close()

	var out []GroupAssignment
	for rows.Next() {
		var (
			a          GroupAssignment
			categoryID pgtype.UUID
			dishID     pgtype.UUID
		)
		if err := rows.Scan(&a.ID, &a.GroupID, &a.Target, &categoryID, &dishID); err != nil {
			return nil, fmt.Errorf("scan group assignment: %w", err)
		}
		if categoryID.Valid {
			a.CategoryID = uuid.UUID(categoryID.Bytes)
		}
		if dishID.Valid {
			a.DishID = uuid.UUID(dishID.Bytes)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func wrapNotFound(entity string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", entity, err)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
