package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/dailymenu/internal/domain/food"
)

// ErrPastDay is returned when a menu entry is added for a day that is over.
var ErrPastDay = errors.New("day is in the past")

// AddRequest describes a master food being put on a day's menu.
type AddRequest struct {
	FoodID   string
	Quantity int
	// Day defaults to today when empty.
	Day Day
}

// Service is the daily catalog: it knows what "today" is in the menu time
// zone and guards the item repository's stock operations.
type Service struct {
	items Repository
	foods food.Repository
	loc   *time.Location
	now   func() time.Time
}

// NewService creates a catalog Service. Days are computed in loc.
func NewService(items Repository, foods food.Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{items: items, foods: foods, loc: loc, now: time.Now}
}

// Today returns the current calendar day in the menu time zone.
func (s *Service) Today() Day {
	return DayOf(s.now(), s.loc)
}

// Location returns the menu time zone.
func (s *Service) Location() *time.Location { return s.loc }

// ListToday returns today's items, newest created first. The result is a
// fresh slice on every call.
func (s *Service) ListToday(ctx context.Context) ([]Item, error) {
	items, err := s.items.ListByDay(ctx, s.Today())
	if err != nil {
		return nil, errors.Wrap(err, "list today")
	}
	return items, nil
}

// Get returns a single catalog item.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.items.Get(ctx, id)
}

// Add snapshots a master food into a new catalog item.
func (s *Service) Add(ctx context.Context, req AddRequest) (*Item, error) {
	if req.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	day := req.Day
	if day == "" {
		day = s.Today()
	}
	if day.Before(s.Today()) {
		return nil, ErrPastDay
	}

	f, err := s.foods.GetByID(ctx, req.FoodID)
	if err != nil {
		return nil, errors.Wrapf(err, "get food %s", req.FoodID)
	}

	item := &Item{
		ID:                uuid.NewString(),
		FoodID:            f.ID,
		Name:              f.Name,
		Price:             f.Price,
		Description:       f.Description,
		Image:             f.Image,
		QuantityRemaining: req.Quantity,
		Day:               day,
		CreatedAt:         s.now(),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, errors.Wrap(err, "create catalog item")
	}
	return item, nil
}

// Remove deletes a catalog item ahead of the rollover.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.items.Delete(ctx, id)
}

// DecrementStock atomically takes amount units of an item.
func (s *Service) DecrementStock(ctx context.Context, id string, amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	_, err := s.items.DecrementStock(ctx, id, amount)
	return err
}

// RestoreStock gives back units taken by DecrementStock.
func (s *Service) RestoreStock(ctx context.Context, id string, amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	return s.items.RestoreStock(ctx, id, amount)
}

// PurgeBefore removes all items of days strictly before cutoff.
func (s *Service) PurgeBefore(ctx context.Context, cutoff Day) (int64, error) {
	n, err := s.items.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrapf(err, "purge before %s", cutoff)
	}
	return n, nil
}
