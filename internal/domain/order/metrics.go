package order

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xenking/dailymenu/internal/domain/order"

// Metrics counts placement outcomes. A nil *Metrics records nothing.
type Metrics struct {
	placed        metric.Int64Counter
	stockFailures metric.Int64Counter
	statusChanges metric.Int64Counter
}

// NewMetrics registers the order instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	placed, err := meter.Int64Counter("dailymenu.orders.placed",
		metric.WithDescription("Orders committed to the ledger"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.placed")
	}
	stockFailures, err := meter.Int64Counter("dailymenu.orders.stock_failures",
		metric.WithDescription("Line items whose stock decrement or reservation failed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.stock_failures")
	}
	statusChanges, err := meter.Int64Counter("dailymenu.orders.status_changes",
		metric.WithDescription("Order status updates"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.status_changes")
	}

	return &Metrics{
		placed:        placed,
		stockFailures: stockFailures,
		statusChanges: statusChanges,
	}, nil
}

func (m *Metrics) orderPlaced(ctx context.Context, manual bool) {
	if m == nil {
		return
	}
	m.placed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("manual", manual)))
}

func (m *Metrics) stockFailure(ctx context.Context, policy StockPolicy) {
	if m == nil {
		return
	}
	m.stockFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("policy", string(policy))))
}

func (m *Metrics) statusChanged(ctx context.Context, to Status) {
	if m == nil {
		return
	}
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(to))))
}
