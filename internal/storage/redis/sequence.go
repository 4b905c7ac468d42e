// Package redis implements the order-number sequence on Redis. The counter
// lives in one key and advances with INCR, so any number of service
// processes can share it.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xenking/dailymenu/internal/domain/sequence"
)

const keyPrefix = "dailymenu:seq:"

// Seeding and incrementing run as one script so a missing counter is created
// at base exactly once.
var incrementScript = redis.NewScript(`
redis.call('SET', KEYS[1], ARGV[1], 'NX')
return redis.call('INCR', KEYS[1])
`)

var _ sequence.Store = (*SequenceStore)(nil)

// SequenceStore keeps named counters in Redis.
type SequenceStore struct {
	client redis.UniversalClient
}

// NewSequenceStore returns a SequenceStore that uses client.
func NewSequenceStore(client redis.UniversalClient) *SequenceStore {
	return &SequenceStore{client: client}
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// Increment advances counter name and returns the new value.
func (s *SequenceStore) Increment(ctx context.Context, name string, base int64) (int64, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{keyPrefix + name}, base).Int64()
	if err != nil {
		return 0, fmt.Errorf("incrementing counter %q: %w", name, err)
	}
	return n, nil
}

// Ping checks connectivity.
func (s *SequenceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
