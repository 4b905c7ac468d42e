package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/dailymenu/internal/domain/catalog"
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository holds daily menu items.
type CatalogRepository struct {
	mu    sync.Mutex
	items map[string]catalog.Item
}

// NewCatalogRepository creates an empty CatalogRepository.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{items: make(map[string]catalog.Item)}
}

func (r *CatalogRepository) Create(_ context.Context, item *catalog.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; ok {
		return errors.Errorf("catalog item %q already exists", item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *CatalogRepository) Get(_ context.Context, id string) (*catalog.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &item, nil
}

func (r *CatalogRepository) ListByDay(_ context.Context, day catalog.Day) ([]catalog.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []catalog.Item
	for _, item := range r.items {
		if item.Day == day {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *CatalogRepository) DecrementStock(_ context.Context, id string, amount int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return 0, catalog.ErrNotFound
	}
	if item.QuantityRemaining < amount {
		return item.QuantityRemaining, &catalog.InsufficientStockError{ItemID: id, Requested: amount}
	}
	item.QuantityRemaining -= amount
	r.items[id] = item
	return item.QuantityRemaining, nil
}

func (r *CatalogRepository) RestoreStock(_ context.Context, id string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return catalog.ErrNotFound
	}
	item.QuantityRemaining += amount
	r.items[id] = item
	return nil
}

func (r *CatalogRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *CatalogRepository) PurgeBefore(_ context.Context, cutoff catalog.Day) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, item := range r.items {
		if item.Day.Before(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}
