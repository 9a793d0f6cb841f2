package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsWork(t *testing.T) {
	p := NewPool(2, time.Second)
	out, err := p.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if string(out) != "ok" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPoolRetriesOnce(t *testing.T) {
	p := NewPool(1, time.Second)
	var calls atomic.Int32

	_, err := p.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected exactly one retry (2 calls), got %d", got)
	}
}

func TestPoolRetrySucceeds(t *testing.T) {
	p := NewPool(1, time.Second)
	var calls atomic.Int32

	out, err := p.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return []byte("ok"), nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if string(out) != "ok" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPoolNoRetryAfterCancel(t *testing.T) {
	p := NewPool(1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	_, err := p.Do(ctx, func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		cancel()
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("cancelled context must not retry, got %d calls", got)
	}
}

func TestPoolTimeoutSurfacesUnavailable(t *testing.T) {
	p := NewPool(1, 20*time.Millisecond)
	_, err := p.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(workers, time.Second)

	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
				mu.Lock()
				current++
				if current > peak {
					peak = current
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()
				return nil, nil
			})
		}()
	}
	wg.Wait()

	if peak > workers {
		t.Fatalf("pool exceeded its bound: peak %d > %d", peak, workers)
	}
}

func TestPoolReleasesSlotAfterTimeout(t *testing.T) {
	p := NewPool(1, 20*time.Millisecond)

	_, err := p.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	// The slot must be free again for the next caller.
	out, err := p.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	if err != nil {
		t.Fatalf("slot was not released: %v", err)
	}
	if string(out) != "ok" {
		t.Fatalf("unexpected output: %q", out)
	}
}
