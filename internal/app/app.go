package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/dailymenu/internal/broker/rabbitmq"
	"github.com/xenking/dailymenu/internal/domain/auth"
	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/domain/order"
	"github.com/xenking/dailymenu/internal/domain/sequence"
	"github.com/xenking/dailymenu/internal/handler"
	"github.com/xenking/dailymenu/internal/rollover"
	"github.com/xenking/dailymenu/pkg/health"
	"github.com/xenking/dailymenu/pkg/httpmiddleware"
)

// Telemetry provides the OpenTelemetry providers. *app.Telemetry from
// go-faster/sdk satisfies it.
type Telemetry interface {
	MeterProvider() metric.MeterProvider
	TracerProvider() trace.TracerProvider
}

// service is the assembled API process before it starts serving.
type service struct {
	handler   http.Handler
	health    *health.Registry
	limiter   *httpmiddleware.RateLimiter
	scheduler *rollover.Scheduler
	closers   []func()
}

func (s *service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// build wires domain services, handlers and middleware on top of st.
func build(ctx context.Context, cfg *Config, st *Storage, tel Telemetry) (*service, error) {
	lg := zctx.From(ctx)

	loc, err := cfg.Menu.Location()
	if err != nil {
		return nil, err
	}
	orderCfg, err := cfg.Orders.OrderConfig()
	if err != nil {
		return nil, err
	}

	svc := &service{health: health.New()}
	svc.health.Readiness("storage", 5*time.Second, health.PingCheck(st))
	svc.health.Liveness("goroutines", time.Second, health.GoroutineCountCheck(10000))

	var publisher order.Publisher = order.NopPublisher{}
	if cfg.Events.AMQPURL != "" {
		p, err := rabbitmq.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			return nil, errors.Wrap(err, "connect event broker")
		}
		svc.closers = append(svc.closers, func() {
			if err := p.Close(); err != nil {
				lg.Warn("Close event publisher", zap.Error(err))
			}
		})
		publisher = p
	}

	// Domain services.
	menu := catalog.NewService(st.Catalog, st.Foods, loc)
	numbers := sequence.NewGenerator(st.Sequences, cfg.Sequence.Name, cfg.Sequence.Base)
	metrics, err := order.NewMetrics(tel.MeterProvider())
	if err != nil {
		svc.close()
		return nil, errors.Wrap(err, "order metrics")
	}
	orders := order.NewService(menu, order.NewLedger(st.Orders, numbers), publisher, metrics, orderCfg)
	job, err := rollover.NewJob(menu, tel.MeterProvider())
	if err != nil {
		svc.close()
		return nil, errors.Wrap(err, "rollover job")
	}
	if cfg.Menu.RolloverEnabled {
		if svc.scheduler, err = rollover.NewScheduler(job, cfg.Menu.Schedule, loc); err != nil {
			svc.close()
			return nil, err
		}
	}

	// HTTP handlers.
	h := handler.New(handler.Config{ImageBaseURL: cfg.ImageBaseURL}, st.Foods, menu, orders, job)
	sec := handler.NewSecurity(
		auth.NewKeyVerifier(st.APIKeys, []byte(cfg.Auth.APIKeyPepper)),
		auth.NewTokenVerifier([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTLeeway),
	)
	svc.limiter = httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})

	// Mux: health endpoints and API routes on one server.
	mux := chi.NewRouter()
	mux.Method(http.MethodGet, "/livez", svc.health.LiveHandler())
	mux.Method(http.MethodGet, "/readyz", svc.health.ReadyHandler())
	mux.Mount("/api", h.Routes(sec))

	svc.handler = httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins: cfg.CORS.Origins,
			AllowHeaders: []string{"Content-Type", "Authorization", handler.APIKeyHeader},
			MaxAge:       86400,
		}),
		svc.limiter.Middleware(),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument("dailymenu-api", tel.MeterProvider(), tel.TracerProvider()),
		httpmiddleware.LogRequests(),
	)
	return svc, nil
}

// Run creates all dependencies, starts the HTTP server and the rollover
// scheduler, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, tel Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("sequence", cfg.Sequence.Backend),
		zap.String("stock_policy", cfg.Orders.StockPolicy),
	)
	ctx = zctx.Base(ctx, lg)

	st, err := OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := build(ctx, cfg, st, tel)
	if err != nil {
		return err
	}
	defer svc.close()

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           svc.handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.health.Run(gctx, 10*time.Second)
	})
	g.Go(func() error {
		return svc.limiter.Run(gctx)
	})
	if svc.scheduler != nil {
		g.Go(func() error {
			return svc.scheduler.Run(gctx)
		})
	}

	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		svc.health.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	svc.health.SetReady(true)
	return g.Wait()
}
