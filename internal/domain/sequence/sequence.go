// Package sequence allocates strictly increasing integers from named counters.
//
// The counter value never lives in process memory: every allocation is a
// single atomic increment-and-fetch performed by the Store, so any number of
// service processes can allocate concurrently.
package sequence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

const (
	// OrderNumber is the counter shared by all orders.
	OrderNumber = "orderNumber"
	// DefaultBase is the value a missing counter is created with. The first
	// allocation returns DefaultBase+1.
	DefaultBase int64 = 1000
)

// ErrAllocation is the category of every failed allocation.
var ErrAllocation = errors.New("sequence allocation failed")

// AllocationError reports that the counter could not be advanced.
type AllocationError struct {
	Name string
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate %q: %v", e.Name, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Is reports ErrAllocation as the category of this error.
func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }

// Store performs the atomic increment. If the counter named name does not
// exist it must be created with value base before incrementing, within the
// same atomic operation.
type Store interface {
	Increment(ctx context.Context, name string, base int64) (int64, error)
}

// Generator hands out numbers from one named counter.
type Generator struct {
	store Store
	name  string
	base  int64
}

// NewGenerator returns a Generator for the named counter.
func NewGenerator(store Store, name string, base int64) *Generator {
	return &Generator{store: store, name: name, base: base}
}

// Next returns a value strictly greater than every value returned before.
// The base only seeds a missing counter; an existing counter keeps counting
// from its stored value even when the configured base is larger.
func (g *Generator) Next(ctx context.Context) (int64, error) {
	n, err := g.store.Increment(ctx, g.name, g.base)
	if err != nil {
		return 0, &AllocationError{Name: g.name, Err: err}
	}
	if n <= 0 {
		return 0, &AllocationError{
			Name: g.name,
			Err:  errors.Errorf("store returned non-positive value %d", n),
		}
	}
	return n, nil
}
