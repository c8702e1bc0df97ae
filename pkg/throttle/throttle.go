// Package throttle coalesces rapid-fire calls into at most one applied
// call per time window. Unlike a queue, only the most recent pending
// arguments survive: superseded calls are discarded, never applied.
package throttle

import (
	"sync"
	"time"
)

// Throttle coalesces dispatches of T into rate-limited applications
type Throttle[T any] struct {
	mu          sync.Mutex
	apply       func(T)
	window      time.Duration
	timer       *time.Timer
	pending     *T
	lastApplied time.Time
	stopped     bool
}

// New creates a throttle that applies at most once per window
func New[T any](apply func(T), window time.Duration) *Throttle[T] {
	if window <= 0 {
		window = time.Millisecond
	}
	return &Throttle[T]{apply: apply, window: window}
}

// Dispatch submits arguments for application. When a dispatch is already
// pending, the newer arguments replace it; the older ones never apply.
// The application runs immediately when a full window has passed since
// the last one, otherwise after the remainder of the window.
func (t *Throttle[T]) Dispatch(args T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	t.pending = &args
	if t.timer != nil {
		// Already scheduled; the fresh arguments ride the existing timer
		return
	}

	delay := t.window - time.Since(t.lastApplied)
	if delay < 0 {
		delay = 0
	}
	t.timer = time.AfterFunc(delay, t.fire)
}

func (t *Throttle[T]) fire() {
	t.mu.Lock()
	t.timer = nil
	if t.stopped || t.pending == nil {
		t.mu.Unlock()
		return
	}
	args := *t.pending
	t.pending = nil
	t.lastApplied = time.Now()
	apply := t.apply
	t.mu.Unlock()

	// Apply outside the lock so the callback may dispatch again
	apply(args)
}

// Stop cancels any pending application and discards its arguments.
// After Stop the throttle never applies again, even if a timer already
// expired concurrently.
func (t *Throttle[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
