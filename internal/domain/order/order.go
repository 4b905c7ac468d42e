package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/dailymenu/internal/domain/catalog"
)

// LineItem is a frozen snapshot of one catalog item at purchase time. Later
// price changes or deletion of the catalog item never touch it.
type LineItem struct {
	CatalogItemID string          `json:"catalog_item_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
}

// Subtotal returns UnitPrice × Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a placed order. Only Status changes after creation.
type Order struct {
	ID          string
	OrderNumber int64
	Items       []LineItem
	Total       decimal.Decimal
	// CustomerID is empty for orders entered manually by an administrator.
	CustomerID   string
	CustomerName string
	Phone        string
	Location     string
	Status       Status
	Day          catalog.Day
	CreatedAt    time.Time
}

// Manual reports whether the order was entered by an administrator.
func (o *Order) Manual() bool { return o.CustomerID == "" }

// Filter narrows ledger listings. Zero fields do not filter.
type Filter struct {
	Day               catalog.Day
	Location          string
	OrderNumberPrefix string
}

// DailyIncome aggregates non-cancelled orders of one day.
type DailyIncome struct {
	Day    catalog.Day
	Orders int
	Income decimal.Decimal
}

// LocationSummary aggregates non-cancelled orders for one location.
type LocationSummary struct {
	Location string
	Orders   int
	Income   decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number int64) (*Order, error)
	// ListByCustomer returns the customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	// List returns orders matching f, newest first.
	List(ctx context.Context, f Filter) ([]Order, error)
	// UpdateStatus sets the status of order id in one atomic operation and
	// returns the updated order together with the status it replaced. When
	// from is non-empty the update only applies if the current status is one
	// of from; otherwise ErrStatusConflict is returned.
	UpdateStatus(ctx context.Context, id string, to Status, from []Status) (*Order, Status, error)
	DeleteByDay(ctx context.Context, day catalog.Day) (int64, error)
	DailyIncome(ctx context.Context, from, to catalog.Day) ([]DailyIncome, error)
	IncomeByLocation(ctx context.Context, day catalog.Day) ([]LocationSummary, error)
}
