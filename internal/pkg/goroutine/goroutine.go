// Package goroutine runs long-lived workers such as message consumers under a
// shared limit and collects their errors for shutdown.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/onboarding/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrClosed is recorded when Go is called after Wait.
var ErrClosed = errors.New("goroutine: manager closed")

// Manager bounds how many workers run at once. Go waits for a free slot
// instead of dropping the worker.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	errs   []error
	closed bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

// Go runs f in a new goroutine once a slot is free. It returns without running
// f when ctx is done first or the manager is closed. A panic in f is logged and
// recorded as an error.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		slog.WarnContext(ctx, "goroutine manager is closed, skipping new goroutine")
		return
	}
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()

		select {
		case g.sema <- struct{}{}:
		case <-ctx.Done():
			slog.WarnContext(ctx, "goroutine canceled before start", "because", ctx.Err())
			return
		}
		defer func() { <-g.sema }()

		defer func() {
			if rvr := recover(); rvr != nil {
				if frames := stacktrace.Internal(1); len(frames) > 0 {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", frames)
				} else {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(debug.Stack()))
				}
				g.record(fmt.Errorf("goroutine: panic: %v", rvr))
			}
		}()

		if err := f(ctx); err != nil {
			g.record(err)
		}
	}()
}

// Wait closes the manager, blocks until every scheduled goroutine returns and
// joins their errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
