package order

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Error categories. Typed errors below match one of them with errors.Is.
var (
	ErrValidation        = errors.New("invalid order")
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStatusConflict is returned by Repository.UpdateStatus when the
	// current status is not one of the allowed source statuses.
	ErrStatusConflict = errors.New("order status precondition failed")
)

// ValidationError rejects a request before any state is changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is reports ErrValidation as the category of this error.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ErrNoItems is returned for an empty cart.
var ErrNoItems = &ValidationError{Field: "items", Reason: "at least one item is required"}

// UnknownItemError reports a cart line that does not resolve to an item on
// today's menu.
type UnknownItemError struct {
	ItemID string
	Reason string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("item %s: %s", e.ItemID, e.Reason)
}

// Is reports ErrValidation as the category of this error.
func (e *UnknownItemError) Is(target error) bool { return target == ErrValidation }

// TotalMismatchError reports a submitted total that differs from the
// computed one by more than the configured tolerance.
type TotalMismatchError struct {
	Submitted decimal.Decimal
	Computed  decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("total mismatch: submitted %s, computed %s", e.Submitted.StringFixed(2), e.Computed.StringFixed(2))
}

// Is reports ErrValidation as the category of this error.
func (e *TotalMismatchError) Is(target error) bool { return target == ErrValidation }

// TransitionError reports a status change the workflow does not allow.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// Is reports ErrInvalidTransition as the category of this error.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }
