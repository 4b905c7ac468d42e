package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/domain/order"
)

const (
	orderColumns = `o.id, o.order_number, o.items, o.total, COALESCE(o.customer_id, ''),
		o.customer_name, o.phone, o.location, o.status, o.day, o.created_at`

	createOrderSQL = `INSERT INTO orders
		(id, order_number, items, total, customer_id, customer_name, phone, location, status, day, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

	getOrderByNumberSQL = `SELECT ` + orderColumns + ` FROM orders o WHERE o.order_number = $1`

	listOrdersByCustomerSQL = `SELECT ` + orderColumns + ` FROM orders o
		WHERE o.customer_id = $1 ORDER BY o.order_number DESC`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders o
		WHERE ($1::date IS NULL OR o.day = $1)
		  AND ($2::text = '' OR lower(o.location) = lower($2))
		  AND ($3::text = '' OR o.order_number::text LIKE $3 || '%')
		ORDER BY o.order_number DESC`

	// The subquery locks the row and captures the status being replaced.
	// An empty $3 makes the update unconditional.
	updateOrderStatusSQL = `UPDATE orders o SET status = $2
		FROM (SELECT id, status FROM orders WHERE id = $1 FOR UPDATE) prev
		WHERE o.id = prev.id
		  AND (cardinality($3::text[]) = 0 OR prev.status = ANY($3::text[]))
		RETURNING prev.status, ` + orderColumns

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`

	deleteOrdersByDaySQL = `DELETE FROM orders WHERE day = $1`

	dailyIncomeSQL = `SELECT day, count(*), COALESCE(sum(total), 0)
		FROM orders
		WHERE status <> 'Cancelled' AND day BETWEEN $1 AND $2
		GROUP BY day ORDER BY day`

	incomeByLocationSQL = `SELECT location, count(*), COALESCE(sum(total), 0)
		FROM orders
		WHERE status <> 'Cancelled' AND day = $1
		GROUP BY location ORDER BY location`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items are stored as one JSONB document per order.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order in a single insert.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.OrderNumber, itemsJSON, o.Total, o.CustomerID,
		o.CustomerName, o.Phone, o.Location, string(o.Status), o.Day.Date(), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %d: %w", o.OrderNumber, err)
	}
	return nil
}

// Get returns an order by id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, getOrderSQL, id)
}

// GetByNumber returns an order by its order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number int64) (*order.Order, error) {
	return r.getOne(ctx, getOrderByNumberSQL, number)
}

func (r *OrderRepository) getOne(ctx context.Context, sql string, arg any) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting order %v: %w", arg, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %v: %w", arg, err)
	}
	return &o, nil
}

// ListByCustomer returns the customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByCustomerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of %q: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List returns orders matching f, newest first.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	var day *time.Time
	if f.Day != "" {
		d := f.Day.Date()
		day = &d
	}

	rows, err := r.pool.Query(ctx, listOrdersSQL, day, f.Location, f.OrderNumberPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus sets the status in one conditional statement.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, to order.Status, from []order.Status) (*order.Order, order.Status, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, updateOrderStatusSQL, id, string(to), allowed)
	if err != nil {
		return nil, "", fmt.Errorf("updating status of order %q: %w", id, err)
	}

	var prev string
	o, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (order.Order, error) {
		return scanOrderWith(row, &prev)
	})
	if err == nil {
		return &o, order.Status(prev), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", fmt.Errorf("updating status of order %q: %w", id, err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, id).Scan(&exists); err != nil {
		return nil, "", fmt.Errorf("checking order %q: %w", id, err)
	}
	if !exists {
		return nil, "", order.ErrNotFound
	}
	return nil, "", order.ErrStatusConflict
}

// DeleteByDay removes every order of day.
func (r *OrderRepository) DeleteByDay(ctx context.Context, day catalog.Day) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteOrdersByDaySQL, day.Date())
	if err != nil {
		return 0, fmt.Errorf("deleting orders of %s: %w", day, err)
	}
	return tag.RowsAffected(), nil
}

// DailyIncome aggregates non-cancelled orders per day in [from, to].
func (r *OrderRepository) DailyIncome(ctx context.Context, from, to catalog.Day) ([]order.DailyIncome, error) {
	rows, err := r.pool.Query(ctx, dailyIncomeSQL, from.Date(), to.Date())
	if err != nil {
		return nil, fmt.Errorf("daily income %s..%s: %w", from, to, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.DailyIncome, error) {
		var (
			d   order.DailyIncome
			day time.Time
		)
		err := row.Scan(&day, &d.Orders, &d.Income)
		d.Day = catalog.DayFromDate(day)
		return d, err
	})
}

// IncomeByLocation aggregates non-cancelled orders of day per location.
func (r *OrderRepository) IncomeByLocation(ctx context.Context, day catalog.Day) ([]order.LocationSummary, error) {
	rows, err := r.pool.Query(ctx, incomeByLocationSQL, day.Date())
	if err != nil {
		return nil, fmt.Errorf("income by location for %s: %w", day, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LocationSummary, error) {
		var s order.LocationSummary
		err := row.Scan(&s.Location, &s.Orders, &s.Income)
		return s, err
	})
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	return scanOrderWith(row)
}

// scanOrderWith scans extra leading columns into prefix before the order
// columns.
func scanOrderWith(row pgx.CollectableRow, prefix ...any) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		status    string
		day       time.Time
	)
	dest := append(prefix,
		&o.ID, &o.OrderNumber, &itemsJSON, &o.Total, &o.CustomerID,
		&o.CustomerName, &o.Phone, &o.Location, &status, &day, &o.CreatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items of order %d: %w", o.OrderNumber, err)
	}
	o.Status = order.Status(status)
	o.Day = catalog.DayFromDate(day)
	return o, nil
}
