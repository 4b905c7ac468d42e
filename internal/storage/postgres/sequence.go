package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dailymenu/internal/domain/sequence"
)

// The insert seeds a missing counter at base+1; an existing one is bumped in
// place. Both paths hold the row lock for the statement only.
const incrementCounterSQL = `INSERT INTO counters (name, seq) VALUES ($1, $2::bigint + 1)
	ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
	RETURNING seq`

var _ sequence.Store = (*SequenceStore)(nil)

// SequenceStore keeps named counters in the counters table.
type SequenceStore struct {
	pool *pgxpool.Pool
}

// NewSequenceStore returns a SequenceStore that uses the given pool.
func NewSequenceStore(pool *pgxpool.Pool) *SequenceStore {
	return &SequenceStore{pool: pool}
}

// Increment advances counter name and returns the new value.
func (s *SequenceStore) Increment(ctx context.Context, name string, base int64) (int64, error) {
	var seq int64
	if err := s.pool.QueryRow(ctx, incrementCounterSQL, name, base).Scan(&seq); err != nil {
		return 0, fmt.Errorf("incrementing counter %q: %w", name, err)
	}
	return seq, nil
}
