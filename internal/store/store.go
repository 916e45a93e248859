// Package store implements the order and employee persistence interfaces on
// Postgres. All order mutations are single-row UPDATEs; optimistic updates
// carry the previously read status as a guard and report a conflict when the
// row moved underneath the caller.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/resta-pos/api/internal/directory"
	"github.com/resta-pos/api/internal/order"
	"github.com/shopspring/decimal"
)

// DBTX is the subset of pgx methods the store needs. Satisfied by
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles the hand-written SQL against a pool or transaction.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const orderColumns = `id, order_number, status, order_type, total,
	payment_method, assigned_employee_id, completed_by_id, created_at, updated_at`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (order.Order, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetOrderForUpdate locks the order row for the rest of the transaction.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

// ListOrdersParams filters the order list. StatusFilter accepts any live
// status plus the HISTORICAL alias, which expands to COMPLETED or CANCELLED.
type ListOrdersParams struct {
	StatusFilter string
	Limit        int32
	Offset       int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]order.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	switch {
	case strings.EqualFold(arg.StatusFilter, string(order.StatusHistorical)):
		sql += ` WHERE status IN ('COMPLETED', 'CANCELLED')`
	case arg.StatusFilter != "":
		sql += ` WHERE status = $1`
		args = append(args, strings.ToUpper(arg.StatusFilter))
	}
	sql += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, arg.Limit, arg.Offset)

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateOrder applies a partial update guarded by the previously read status.
// Zero matched rows means the order moved concurrently.
func (q *Queries) UpdateOrder(ctx context.Context, arg order.UpdateOrderParams) (order.Order, error) {
	sets := []string{"updated_at = now()"}
	args := []any{arg.ID, string(arg.PrevStatus)}
	if arg.Status != nil {
		args = append(args, string(*arg.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if arg.PaymentMethod != nil {
		args = append(args, string(*arg.PaymentMethod))
		sets = append(sets, fmt.Sprintf("payment_method = $%d", len(args)))
	}
	if arg.CompletedByID != nil {
		args = append(args, *arg.CompletedByID)
		sets = append(sets, fmt.Sprintf("completed_by_id = $%d", len(args)))
	}

	sql := `UPDATE orders SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND status = $2 RETURNING ` + orderColumns
	o, err := scanOrder(q.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, order.ErrOrderNotFound) {
		return order.Order{}, order.ErrConflict
	}
	return o, err
}

func (q *Queries) AssignOrder(ctx context.Context, id, employeeID uuid.UUID) (order.Order, error) {
	row := q.db.QueryRow(ctx,
		`UPDATE orders
		 SET assigned_employee_id = $2, status = 'ASSIGNED', updated_at = now()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		id, employeeID)
	return scanOrder(row)
}

func (q *Queries) UnassignOrder(ctx context.Context, id uuid.UUID, next order.Status) (order.Order, error) {
	row := q.db.QueryRow(ctx,
		`UPDATE orders
		 SET assigned_employee_id = NULL, status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		id, string(next))
	return scanOrder(row)
}

// GetEmployee resolves an employee by id for the assignment coordinator.
func (q *Queries) GetEmployee(ctx context.Context, id uuid.UUID) (directory.Employee, error) {
	var e directory.Employee
	err := q.db.QueryRow(ctx,
		`SELECT id, full_name, email, hashed_password, role, is_active
		 FROM employees WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.FullName, &e.Email, &e.HashedPassword, &e.Role, &e.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return directory.Employee{}, directory.ErrNotFound
		}
		return directory.Employee{}, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// GetEmployeeByEmail resolves an employee for login.
func (q *Queries) GetEmployeeByEmail(ctx context.Context, email string) (directory.Employee, error) {
	var e directory.Employee
	err := q.db.QueryRow(ctx,
		`SELECT id, full_name, email, hashed_password, role, is_active
		 FROM employees WHERE lower(email) = lower($1)`,
		email,
	).Scan(&e.ID, &e.FullName, &e.Email, &e.HashedPassword, &e.Role, &e.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return directory.Employee{}, directory.ErrNotFound
		}
		return directory.Employee{}, fmt.Errorf("get employee by email: %w", err)
	}
	return e, nil
}

// --- Row scanning helpers ---

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o           order.Order
		total       pgtype.Numeric
		payment     pgtype.Text
		assignedTo  pgtype.UUID
		completedBy pgtype.UUID
	)
	err := row.Scan(&o.ID, &o.Number, &o.Status, &o.Type, &total,
		&payment, &assignedTo, &completedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("scan order: %w", err)
	}
	o.Total = numericToDecimal(total)
	if payment.Valid {
		o.PaymentMethod = order.PaymentMethod(payment.String)
	}
	if assignedTo.Valid {
		id := uuid.UUID(assignedTo.Bytes)
		o.AssignedEmployeeID = &id
	}
	if completedBy.Valid {
		id := uuid.UUID(completedBy.Bytes)
		o.CompletedByID = &id
	}
	return o, nil
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
