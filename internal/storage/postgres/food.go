package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dailymenu/internal/domain/food"
)

const (
	listFoodsSQL = `SELECT id, name, price, description, image, category
		FROM foods ORDER BY category, name`

	getFoodByIDSQL = `SELECT id, name, price, description, image, category
		FROM foods WHERE id = $1`

	upsertFoodSQL = `INSERT INTO foods (id, name, price, description, image, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			category = EXCLUDED.category`
)

var _ food.Repository = (*FoodRepository)(nil)

// FoodRepository implements food.Repository backed by PostgreSQL.
type FoodRepository struct {
	pool *pgxpool.Pool
}

// NewFoodRepository returns a FoodRepository that uses the given pool.
func NewFoodRepository(pool *pgxpool.Pool) *FoodRepository {
	return &FoodRepository{pool: pool}
}

// List returns the master food list ordered by category, then name.
func (r *FoodRepository) List(ctx context.Context) ([]food.Food, error) {
	rows, err := r.pool.Query(ctx, listFoodsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing foods: %w", err)
	}
	return pgx.CollectRows(rows, scanFood)
}

// GetByID returns a single food by its identifier.
func (r *FoodRepository) GetByID(ctx context.Context, id string) (*food.Food, error) {
	rows, err := r.pool.Query(ctx, getFoodByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting food %q: %w", id, err)
	}

	f, err := pgx.CollectExactlyOneRow(rows, scanFood)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, food.ErrNotFound
		}
		return nil, fmt.Errorf("getting food %q: %w", id, err)
	}
	return &f, nil
}

// Upsert inserts f or overwrites the food with the same id.
func (r *FoodRepository) Upsert(ctx context.Context, f food.Food) error {
	_, err := r.pool.Exec(ctx, upsertFoodSQL, f.ID, f.Name, f.Price, f.Description, f.Image, f.Category)
	if err != nil {
		return fmt.Errorf("upserting food %q: %w", f.ID, err)
	}
	return nil
}

func scanFood(row pgx.CollectableRow) (food.Food, error) {
	var f food.Food
	err := row.Scan(&f.ID, &f.Name, &f.Price, &f.Description, &f.Image, &f.Category)
	return f, err
}
