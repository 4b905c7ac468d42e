// Package postgres implements the domain repositories on PostgreSQL. Every
// contended mutation (order numbers, stock, status) is a single conditional
// statement; no row is read and then written back from application memory.
package postgres

import (
	"context"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dailymenu/db"
)

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Store bundles every repository over one pool.
type Store struct {
	pool *pgxpool.Pool

	Sequences *SequenceStore
	Foods     *FoodRepository
	Catalog   *CatalogRepository
	Orders    *OrderRepository
	APIKeys   *APIKeyRepository
}

// New creates a Store on pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:      pool,
		Sequences: NewSequenceStore(pool),
		Foods:     NewFoodRepository(pool),
		Catalog:   NewCatalogRepository(pool),
		Orders:    NewOrderRepository(pool),
		APIKeys:   NewAPIKeyRepository(pool),
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
