package drover

import (
	"context"
	"sync"
	"sync/atomic"
)

// cancelGate converts an external cancellation signal into stream abortion.
// It watches the call context and an optional push-based cancel channel and,
// on either firing, invokes the abort function exactly once. Double-cancel
// and cancel-after-completion are no-ops.
type cancelGate struct {
	abort    func() error
	fired    atomic.Bool
	fireOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

// newCancelGate starts watching ctx and cancel. A nil cancel channel blocks
// forever, which is the no-signal case. The caller must release the gate on
// every exit path.
func newCancelGate(ctx context.Context, cancel <-chan struct{}, abort func() error) *cancelGate {
	g := &cancelGate{abort: abort, done: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			g.fire()
		case <-cancel:
			g.fire()
		case <-g.done:
		}
	}()
	return g
}

func (g *cancelGate) fire() {
	g.fireOnce.Do(func() {
		g.fired.Store(true)
		// Abort errors are irrelevant: the stream is being torn down.
		_ = g.abort()
	})
}

// Cancelled reports whether the gate has fired.
func (g *cancelGate) Cancelled() bool {
	return g.fired.Load()
}

// release stops the watcher goroutine. Safe to call more than once.
func (g *cancelGate) release() {
	g.doneOnce.Do(func() { close(g.done) })
}
