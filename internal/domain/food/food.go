package food

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested food does not exist.
var ErrNotFound = errors.New("food not found")

// Food is an evergreen master food definition. Daily menu entries snapshot
// it when an administrator puts it on the menu.
type Food struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Description string
	Image       string
	Category    string
}

// Repository defines operations on the master food list.
type Repository interface {
	List(ctx context.Context) ([]Food, error)
	GetByID(ctx context.Context, id string) (*Food, error)
	Upsert(ctx context.Context, f Food) error
}
