package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xenking/dailymenu/internal/domain/food"
)

var _ food.Repository = (*FoodRepository)(nil)

// FoodRepository holds the master food list.
type FoodRepository struct {
	mu    sync.RWMutex
	foods map[string]food.Food
}

// NewFoodRepository creates an empty FoodRepository.
func NewFoodRepository() *FoodRepository {
	return &FoodRepository{foods: make(map[string]food.Food)}
}

// List returns all foods ordered by category, then name.
func (r *FoodRepository) List(context.Context) ([]food.Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]food.Food, 0, len(r.foods))
	for _, f := range r.foods {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetByID returns food.ErrNotFound for unknown ids.
func (r *FoodRepository) GetByID(_ context.Context, id string) (*food.Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.foods[id]
	if !ok {
		return nil, food.ErrNotFound
	}
	return &f, nil
}

// Upsert stores f by id.
func (r *FoodRepository) Upsert(_ context.Context, f food.Food) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.foods[f.ID] = f
	return nil
}
