package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EventType names an order lifecycle event.
type EventType string

const (
	EventPlaced        EventType = "order.placed"
	EventStatusChanged EventType = "order.status_changed"
)

// Event is emitted after a lifecycle change has been committed.
type Event struct {
	Type           EventType
	OrderID        string
	OrderNumber    int64
	Status         Status
	PreviousStatus Status
	Total          decimal.Decimal
	Location       string
	Manual         bool
	OccurredAt     time.Time
}

// Publisher delivers events to downstream consumers such as the kitchen.
// Delivery is best-effort: a failed publish never fails the operation that
// produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
