package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/dailymenu/internal/domain/catalog"
)

// NumberAllocator hands out order numbers. *sequence.Generator implements it.
type NumberAllocator interface {
	Next(ctx context.Context) (int64, error)
}

// Draft is an order before it has a number.
type Draft struct {
	Items        []LineItem
	Total        decimal.Decimal
	CustomerID   string
	CustomerName string
	Phone        string
	Location     string
	Day          catalog.Day
	CreatedAt    time.Time
}

// Ledger is the append-only record of placed orders. It is the only place
// where order numbers are attached to orders.
type Ledger struct {
	orders  Repository
	numbers NumberAllocator
}

// NewLedger creates a Ledger that numbers orders with numbers.
func NewLedger(orders Repository, numbers NumberAllocator) *Ledger {
	return &Ledger{orders: orders, numbers: numbers}
}

// Create allocates the next order number and persists the draft as one
// Pending order. An allocation failure leaves nothing behind; a persistence
// failure discards the allocated number.
func (l *Ledger) Create(ctx context.Context, d Draft) (*Order, error) {
	if len(d.Items) == 0 {
		return nil, ErrNoItems
	}
	if d.Total.IsNegative() {
		return nil, &ValidationError{Field: "total", Reason: "must not be negative"}
	}

	number, err := l.numbers.Next(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, len(d.Items))
	copy(items, d.Items)

	o := &Order{
		ID:           uuid.NewString(),
		OrderNumber:  number,
		Items:        items,
		Total:        d.Total,
		CustomerID:   d.CustomerID,
		CustomerName: d.CustomerName,
		Phone:        d.Phone,
		Location:     d.Location,
		Status:       StatusPending,
		Day:          d.Day,
		CreatedAt:    d.CreatedAt,
	}
	if err := l.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrapf(err, "persist order %d", number)
	}
	return o, nil
}

// FindByCustomer returns the customer's orders, newest first.
func (l *Ledger) FindByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return l.orders.ListByCustomer(ctx, customerID)
}

// FindByOrderNumber returns the order with the given number. When
// customerID is set, orders of other customers are reported as not found.
func (l *Ledger) FindByOrderNumber(ctx context.Context, number int64, customerID string) (*Order, error) {
	o, err := l.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if customerID != "" && o.CustomerID != customerID {
		return nil, ErrNotFound
	}
	return o, nil
}

// ListAll returns orders matching f, newest first.
func (l *Ledger) ListAll(ctx context.Context, f Filter) ([]Order, error) {
	return l.orders.List(ctx, f)
}

// SetStatus is the only mutator of a created order. See
// Repository.UpdateStatus for the meaning of from.
func (l *Ledger) SetStatus(ctx context.Context, id string, to Status, from []Status) (*Order, Status, error) {
	return l.orders.UpdateStatus(ctx, id, to, from)
}

// Get returns an order by its internal id.
func (l *Ledger) Get(ctx context.Context, id string) (*Order, error) {
	return l.orders.Get(ctx, id)
}

// DeleteByDate removes every order of day. It is a maintenance operation
// outside the order lifecycle.
func (l *Ledger) DeleteByDate(ctx context.Context, day catalog.Day) (int64, error) {
	return l.orders.DeleteByDay(ctx, day)
}

// DailyIncome reports income per day in [from, to].
func (l *Ledger) DailyIncome(ctx context.Context, from, to catalog.Day) ([]DailyIncome, error) {
	if to.Before(from) {
		return nil, &ValidationError{Field: "to", Reason: "must not be before from"}
	}
	return l.orders.DailyIncome(ctx, from, to)
}

// IncomeByLocation reports income per location for day.
func (l *Ledger) IncomeByLocation(ctx context.Context, day catalog.Day) ([]LocationSummary, error) {
	return l.orders.IncomeByLocation(ctx, day)
}
