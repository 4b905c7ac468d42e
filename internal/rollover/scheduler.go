package rollover

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule runs the rollover at local midnight.
const DefaultSchedule = "0 0 * * *"

// ParseSchedule validates a standard five-field cron expression.
func ParseSchedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return errors.Wrapf(err, "parse schedule %q", expr)
	}
	return nil
}

// Scheduler runs a Job at start and then on a cron schedule.
type Scheduler struct {
	job  *Job
	cron *cron.Cron
	expr string
}

// NewScheduler creates a Scheduler. The expression is evaluated in loc.
func NewScheduler(job *Job, expr string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if err := ParseSchedule(expr); err != nil {
		return nil, err
	}
	return &Scheduler{
		job:  job,
		cron: cron.New(cron.WithLocation(loc)),
		expr: expr,
	}, nil
}

// Run blocks until ctx is done. A failed run is logged and retried on the
// next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	lg := zctx.From(ctx)

	run := func() {
		if _, err := s.job.RunOnce(ctx); err != nil && ctx.Err() == nil {
			lg.Error("Rollover failed", zap.Error(err))
		}
	}

	if _, err := s.cron.AddFunc(s.expr, run); err != nil {
		return errors.Wrap(err, "schedule rollover")
	}

	run()
	s.cron.Start()
	lg.Info("Rollover scheduled", zap.String("schedule", s.expr))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
