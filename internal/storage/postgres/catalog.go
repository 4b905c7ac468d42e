package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dailymenu/internal/domain/catalog"
)

const (
	catalogColumns = `id, food_id, name, price, description, image, quantity_remaining, day, created_at`

	createCatalogItemSQL = `INSERT INTO daily_foods (` + catalogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getCatalogItemSQL = `SELECT ` + catalogColumns + ` FROM daily_foods WHERE id = $1`

	listCatalogByDaySQL = `SELECT ` + catalogColumns + ` FROM daily_foods
		WHERE day = $1 ORDER BY created_at DESC, id DESC`

	// The quantity check is part of the update so concurrent decrements
	// serialize on the row lock and never overshoot zero.
	decrementStockSQL = `UPDATE daily_foods SET quantity_remaining = quantity_remaining - $2
		WHERE id = $1 AND quantity_remaining >= $2
		RETURNING quantity_remaining`

	getStockSQL = `SELECT quantity_remaining FROM daily_foods WHERE id = $1`

	restoreStockSQL = `UPDATE daily_foods SET quantity_remaining = quantity_remaining + $2 WHERE id = $1`

	deleteCatalogItemSQL = `DELETE FROM daily_foods WHERE id = $1`

	purgeCatalogSQL = `DELETE FROM daily_foods WHERE day < $1`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// Create inserts a new menu item.
func (r *CatalogRepository) Create(ctx context.Context, item *catalog.Item) error {
	_, err := r.pool.Exec(ctx, createCatalogItemSQL,
		item.ID, item.FoodID, item.Name, item.Price, item.Description, item.Image,
		item.QuantityRemaining, item.Day.Date(), item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating catalog item %q: %w", item.ID, err)
	}
	return nil
}

// Get returns a single menu item.
func (r *CatalogRepository) Get(ctx context.Context, id string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getCatalogItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting catalog item %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanCatalogItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting catalog item %q: %w", id, err)
	}
	return &item, nil
}

// ListByDay returns the menu of day, newest created first.
func (r *CatalogRepository) ListByDay(ctx context.Context, day catalog.Day) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listCatalogByDaySQL, day.Date())
	if err != nil {
		return nil, fmt.Errorf("listing catalog for %s: %w", day, err)
	}
	return pgx.CollectRows(rows, scanCatalogItem)
}

// DecrementStock takes amount units in one conditional update.
func (r *CatalogRepository) DecrementStock(ctx context.Context, id string, amount int) (int, error) {
	var left int
	err := r.pool.QueryRow(ctx, decrementStockSQL, id, amount).Scan(&left)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("decrementing stock of %q: %w", id, err)
	}

	// Nothing was updated: tell a missing row from an exhausted one.
	if err := r.pool.QueryRow(ctx, getStockSQL, id).Scan(&left); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, catalog.ErrNotFound
		}
		return 0, fmt.Errorf("reading stock of %q: %w", id, err)
	}
	return left, &catalog.InsufficientStockError{ItemID: id, Requested: amount}
}

// RestoreStock gives back amount units.
func (r *CatalogRepository) RestoreStock(ctx context.Context, id string, amount int) error {
	tag, err := r.pool.Exec(ctx, restoreStockSQL, id, amount)
	if err != nil {
		return fmt.Errorf("restoring stock of %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes one menu item.
func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCatalogItemSQL, id)
	if err != nil {
		return fmt.Errorf("deleting catalog item %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// PurgeBefore deletes every item dated before cutoff.
func (r *CatalogRepository) PurgeBefore(ctx context.Context, cutoff catalog.Day) (int64, error) {
	tag, err := r.pool.Exec(ctx, purgeCatalogSQL, cutoff.Date())
	if err != nil {
		return 0, fmt.Errorf("purging catalog before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

func scanCatalogItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		item catalog.Item
		day  time.Time
	)
	err := row.Scan(
		&item.ID, &item.FoodID, &item.Name, &item.Price, &item.Description, &item.Image,
		&item.QuantityRemaining, &day, &item.CreatedAt,
	)
	item.Day = catalog.DayFromDate(day)
	return item, err
}
