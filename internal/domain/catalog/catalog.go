// Package catalog holds the daily menu: sellable items scoped to one calendar
// day, each with its own remaining-quantity counter.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a catalog item does not exist.
	ErrNotFound = errors.New("catalog item not found")
	// ErrInsufficientStock is the category of failed stock decrements.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity is returned for non-positive decrement amounts and
	// negative menu quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// InsufficientStockError reports a decrement that would take an item below zero.
type InsufficientStockError struct {
	ItemID    string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d", e.ItemID, e.Requested)
}

// Is reports ErrInsufficientStock as the category of this error.
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// Item is one menu entry for a specific day. Name, price, description and
// image are copied from the master food when the entry is created.
type Item struct {
	ID                string
	FoodID            string
	Name              string
	Price             decimal.Decimal
	Description       string
	Image             string
	QuantityRemaining int
	Day               Day
	CreatedAt         time.Time
}

// Repository persists catalog items. DecrementStock and RestoreStock must be
// single atomic operations in the store: the quantity check is part of the
// update itself, never a separate read.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	Get(ctx context.Context, id string) (*Item, error)
	// ListByDay returns the items of day, newest created first.
	ListByDay(ctx context.Context, day Day) ([]Item, error)
	// DecrementStock lowers the remaining quantity by amount if at least
	// amount is left and returns the new quantity. It returns
	// *InsufficientStockError or ErrNotFound otherwise.
	DecrementStock(ctx context.Context, id string, amount int) (int, error)
	// RestoreStock raises the remaining quantity by amount.
	RestoreStock(ctx context.Context, id string, amount int) error
	Delete(ctx context.Context, id string) error
	// PurgeBefore deletes every item whose day is strictly before cutoff and
	// returns how many were removed.
	PurgeBefore(ctx context.Context, cutoff Day) (int64, error)
}
