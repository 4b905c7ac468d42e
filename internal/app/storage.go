package app

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/dailymenu/internal/domain/auth"
	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/domain/food"
	"github.com/xenking/dailymenu/internal/domain/order"
	"github.com/xenking/dailymenu/internal/domain/sequence"
	"github.com/xenking/dailymenu/internal/storage/memory"
	"github.com/xenking/dailymenu/internal/storage/postgres"
	"github.com/xenking/dailymenu/internal/storage/redis"
)

// Storage bundles the repositories of the selected driver.
type Storage struct {
	Foods     food.Repository
	Catalog   catalog.Repository
	Orders    order.Repository
	APIKeys   auth.Repository
	Sequences sequence.Store

	ping    func(ctx context.Context) error
	closers []func()
}

// Ping checks the primary store.
func (s *Storage) Ping(ctx context.Context) error { return s.ping(ctx) }

// Close releases every connection opened by OpenStorage.
func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStorage connects the configured driver, migrates the schema and
// selects the order number backend.
func OpenStorage(ctx context.Context, cfg *Config) (*Storage, error) {
	var st Storage
	switch cfg.Storage.Driver {
	case DriverMemory:
		m := memory.New()
		st = Storage{
			Foods:     m.Foods,
			Catalog:   m.Catalog,
			Orders:    m.Orders,
			APIKeys:   m.APIKeys,
			Sequences: m.Sequences,
			ping:      m.Ping,
		}
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		pg := postgres.New(pool)
		st = Storage{
			Foods:     pg.Foods,
			Catalog:   pg.Catalog,
			Orders:    pg.Orders,
			APIKeys:   pg.APIKeys,
			Sequences: pg.Sequences,
			ping:      pg.Ping,
			closers:   []func(){pool.Close},
		}
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Sequence.Backend == SequenceRedis {
		client, err := redis.Connect(ctx, cfg.Sequence.RedisURL)
		if err != nil {
			st.Close()
			return nil, errors.Wrap(err, "connect redis")
		}
		seq := redis.NewSequenceStore(client)
		primary := st.ping
		st.Sequences = seq
		st.ping = func(ctx context.Context) error {
			if err := primary(ctx); err != nil {
				return err
			}
			return seq.Ping(ctx)
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
	}
	return &st, nil
}
