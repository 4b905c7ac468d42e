// Package health serves liveness and readiness probes. Checks run in the
// background and flip state only after a run of consecutive failures, so a
// single slow ping does not take the instance out of rotation.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// DefaultFailureThreshold is how many consecutive failures mark a check
// unhealthy.
const DefaultFailureThreshold = 3

type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu      sync.Mutex
	fails   int
	healthy bool
	lastErr error
}

func (p *probe) run(ctx context.Context, threshold int) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.fn(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err == nil {
		p.fails = 0
		p.healthy = true
		return
	}
	p.fails++
	if p.fails >= threshold {
		p.healthy = false
	}
}

func (p *probe) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthy, p.lastErr
}

// Registry holds the liveness and readiness checks of one process.
type Registry struct {
	threshold int
	ready     atomic.Bool

	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
}

// New creates a Registry. The process starts not ready.
func New() *Registry {
	return &Registry{threshold: DefaultFailureThreshold}
}

// Liveness registers a check that decides whether the process should be
// restarted.
func (r *Registry) Liveness(name string, timeout time.Duration, fn CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.liveness = append(r.liveness, &probe{name: name, timeout: timeout, fn: fn, healthy: true})
}

// Readiness registers a check that decides whether the process receives
// traffic.
func (r *Registry) Readiness(name string, timeout time.Duration, fn CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readiness = append(r.readiness, &probe{name: name, timeout: timeout, fn: fn, healthy: true})
}

// SetReady marks the process ready or draining.
func (r *Registry) SetReady(ready bool) { r.ready.Store(ready) }

// Ready reports whether the process is marked ready and every readiness
// check passes.
func (r *Registry) Ready() bool {
	return r.ready.Load() && len(failures(r.snapshot(false))) == 0
}

func (r *Registry) snapshot(live bool) []*probe {
	r.mu.Lock()
	defer r.mu.Unlock()
	if live {
		return append([]*probe(nil), r.liveness...)
	}
	return append([]*probe(nil), r.readiness...)
}

// Run executes every check immediately and then every interval until ctx
// is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range append(r.snapshot(true), r.snapshot(false)...) {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				p.run(ctx, r.threshold)
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}
	return g.Wait()
}

// LiveHandler serves /livez.
func (r *Registry) LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, failures(r.snapshot(true)))
	})
}

// ReadyHandler serves /readyz.
func (r *Registry) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		failed := failures(r.snapshot(false))
		if !r.ready.Load() {
			failed["_readiness"] = "service is not ready"
		}
		writeStatus(w, failed)
	})
}

func failures(probes []*probe) map[string]string {
	out := make(map[string]string)
	for _, p := range probes {
		healthy, err := p.state()
		if healthy {
			continue
		}
		msg := "check is unhealthy"
		if err != nil {
			msg = err.Error()
		}
		out[p.name] = msg
	}
	return out
}

func writeStatus(w http.ResponseWriter, failed map[string]string) {
	status, code := "ok", http.StatusOK
	if len(failed) > 0 {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(status) })
		if len(names) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(failed[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
