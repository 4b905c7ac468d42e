package order

import "strings"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirm   Status = "Confirm"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every declared status.
var Statuses = []Status{StatusPending, StatusConfirm, StatusDelivered, StatusCancelled}

// transitions is the lifecycle table: Pending → Confirm → Delivered, with
// Cancelled reachable from Pending or Confirm. Delivered and Cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusPending: {StatusConfirm, StatusCancelled},
	StatusConfirm: {StatusDelivered, StatusCancelled},
}

// ParseStatus matches s case-insensitively against the declared statuses.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", &ValidationError{Field: "status", Reason: "unknown status " + s}
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

// CanTransition reports whether the lifecycle allows moving from one status
// to another. Staying in the same status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Workflow decides which source statuses a status update may start from.
type Workflow struct {
	// Strict enforces the lifecycle table. When false any declared status
	// may be set at any time.
	Strict bool
}

// Preconditions returns the statuses an order must currently be in to move
// to `to`, or nil when the update is unconditional. force bypasses the
// lifecycle table for administrative corrections.
func (w Workflow) Preconditions(to Status, force bool) []Status {
	if !w.Strict || force {
		return nil
	}
	from := []Status{to}
	for _, st := range Statuses {
		if st != to && CanTransition(st, to) {
			from = append(from, st)
		}
	}
	return from
}
