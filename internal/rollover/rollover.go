// Package rollover purges catalog items whose day has passed.
package rollover

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/dailymenu/internal/domain/catalog"
)

// Catalog is the part of the daily catalog the job needs.
type Catalog interface {
	Today() catalog.Day
	PurgeBefore(ctx context.Context, cutoff catalog.Day) (int64, error)
}

// Job removes every catalog item dated before today. Running it again on
// the same day is a no-op. Orders are never touched.
type Job struct {
	catalog Catalog
	runs    metric.Int64Counter
	purged  metric.Int64Counter
}

// NewJob creates a Job and registers its instruments on mp.
func NewJob(cat Catalog, mp metric.MeterProvider) (*Job, error) {
	meter := mp.Meter("github.com/xenking/dailymenu/internal/rollover")

	runs, err := meter.Int64Counter("dailymenu.rollover.runs",
		metric.WithDescription("Rollover executions"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "rollover.runs")
	}
	purged, err := meter.Int64Counter("dailymenu.rollover.purged_items",
		metric.WithDescription("Catalog items removed by rollover"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "rollover.purged_items")
	}

	return &Job{catalog: cat, runs: runs, purged: purged}, nil
}

// RunOnce purges items of days strictly before today and returns how many
// were removed.
func (j *Job) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.catalog.Today()
	lg := zctx.From(ctx).With(zap.Stringer("cutoff", cutoff))

	j.runs.Add(ctx, 1)
	n, err := j.catalog.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge")
	}
	j.purged.Add(ctx, n)

	lg.Info("Rollover complete", zap.Int64("removed", n))
	return n, nil
}
