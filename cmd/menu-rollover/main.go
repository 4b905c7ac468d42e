// Command menu-rollover purges catalog items of past days once and exits.
// It serves deployments that trigger the rollover from an external
// scheduler instead of the API process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	appkg "github.com/xenking/dailymenu/internal/app"
	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/rollover"
)

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	removed, err := run(zctx.Base(ctx, lg))
	if err != nil {
		lg.Error("Rollover failed", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}

	lg.Info("Rollover completed", zap.Int64("removed", removed))
}

func run(ctx context.Context) (int64, error) {
	cfg, err := appkg.LoadRolloverConfig()
	if err != nil {
		return 0, err
	}
	loc, err := cfg.Menu.Location()
	if err != nil {
		return 0, err
	}

	st, err := appkg.OpenStorage(ctx, cfg)
	if err != nil {
		return 0, errors.Wrap(err, "open storage")
	}
	defer st.Close()

	job, err := rollover.NewJob(catalog.NewService(st.Catalog, st.Foods, loc), noop.NewMeterProvider())
	if err != nil {
		return 0, err
	}

	zctx.From(ctx).Info("Purging past menu items", zap.String("timezone", loc.String()))
	return job.RunOnce(ctx)
}
