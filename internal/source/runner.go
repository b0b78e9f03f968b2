package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single source run.
const DefaultTimeout = 10 * time.Second

// Runner manages and runs sources.
type Runner struct {
	mu      sync.RWMutex
	sources []Source
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner creates a runner. A non-positive timeout uses DefaultTimeout.
func NewRunner(timeout time.Duration, logger ...*zap.Logger) *Runner {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{timeout: timeout, logger: l}
}

// Register adds a source, replacing any source with the same name in place.
func (r *Runner) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.sources {
		if existing.Name() == s.Name() {
			r.sources[i] = s
			return
		}
	}
	r.sources = append(r.sources, s)
}

// Get retrieves a source by name.
func (r *Runner) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sources {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// GetAll returns all registered sources in registration order.
func (r *Runner) GetAll() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Source(nil), r.sources...)
}

// Run analyzes the snapshot with every source concurrently. Each source gets
// its own timeout; a failing or slow source is reported in its Outcome and
// never affects the others. Outcomes follow registration order.
func (r *Runner) Run(ctx context.Context, snap Snapshot) []Outcome {
	sources := r.GetAll()
	outcomes := make([]Outcome, len(sources))

	var g errgroup.Group
	for i, s := range sources {
		g.Go(func() error {
			outcomes[i] = r.runOne(ctx, s, snap)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (r *Runner) runOne(ctx context.Context, s Source, snap Snapshot) Outcome {
	start := time.Now()
	out := Outcome{Source: s.Name()}

	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		o := Outcome{Source: s.Name()}
		defer func() {
			if p := recover(); p != nil {
				o.Err = fmt.Errorf("source panicked: %v", p)
			}
			done <- o
		}()
		o.Input, o.Detail, o.Err = s.Analyze(sctx, snap)
	}()

	select {
	case o := <-done:
		out = o
	case <-sctx.Done():
		out.Err = core.WrapError(core.ErrSourceTimeout, sctx.Err())
	}
	out.Duration = time.Since(start)

	if out.Err != nil {
		r.logger.Warn("source unavailable",
			zap.String("source", out.Source),
			zap.Duration("duration", out.Duration),
			zap.Error(out.Err),
		)
	} else {
		r.logger.Debug("source analyzed",
			zap.String("source", out.Source),
			zap.String("label", out.Input.Label),
			zap.Duration("duration", out.Duration),
		)
	}
	return out
}
