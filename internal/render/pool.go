package render

import (
	"context"
	"errors"
	"time"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/obs"
)

const (
	defaultWorkers = 4
	defaultTimeout = 60 * time.Second
)

// Pool bounds concurrent rendering work with a fixed number of worker slots
// and a per-call timeout. A surge of requests queues on the slots and
// degrades throughput instead of exhausting the process; a call whose work
// times out always returns its slot. Failed calls are retried at most once.
type Pool struct {
	slots   chan struct{}
	timeout time.Duration
}

// NewPool creates a pool with the given worker count and per-call timeout.
// Non-positive values fall back to defaults.
func NewPool(workers int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Pool{
		slots:   make(chan struct{}, workers),
		timeout: timeout,
	}
}

// Do runs fn under a worker slot with the pool timeout applied to its
// context. Slot starvation and work timeouts both surface as ErrUnavailable.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	out, err := p.attempt(ctx, fn)
	if err != nil && ctx.Err() == nil {
		out, err = p.attempt(ctx, fn)
	}
	return out, err
}

func (p *Pool) attempt(ctx context.Context, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	acquire, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	select {
	case p.slots <- struct{}{}:
	case <-acquire.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrUnavailable
	}
	defer func() { <-p.slots }()

	obs.RenderJobStarted()
	defer obs.RenderJobDone()

	work, cancelWork := context.WithTimeout(ctx, p.timeout)
	defer cancelWork()

	out, err := fn(work)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || (work.Err() != nil && ctx.Err() == nil) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return out, nil
}
