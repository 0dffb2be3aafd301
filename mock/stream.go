package mock

import (
	"io"
	"sync"

	"github.com/droverhq/drover"
)

// Interface compliance checks.
var (
	_ drover.Stream = (*Stream)(nil)
	_ drover.Stream = (*Script)(nil)
)

// Stream is a test double for drover.Stream. Set the function fields for
// the methods you need. NextFn panics when nil to catch missing setup;
// CloseFn is nil-safe because test code commonly calls defer stream.Close().
type Stream struct {
	NextFn  func() (drover.Event, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (drover.Event, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Script is a drover.Stream that yields a fixed event sequence in order and
// then io.EOF. It is safe for the concurrent Close an inference call's
// cancellation gate performs.
type Script struct {
	mu     sync.Mutex
	events []drover.Event
	pos    int
	hangAt int
	closed chan struct{}
	once   sync.Once
}

// NewScript returns a Script over events.
func NewScript(events ...drover.Event) *Script {
	return &Script{events: events, hangAt: -1, closed: make(chan struct{})}
}

// HangAfter makes Next block before yielding the event at index n until the
// stream is closed, simulating a stalled transport for cancellation tests.
func (s *Script) HangAfter(n int) *Script {
	s.hangAt = n
	return s
}

// Next yields the next scripted event. After Close it reports
// drover.ErrStreamClosed, mirroring a torn-down transport.
func (s *Script) Next() (drover.Event, error) {
	s.mu.Lock()
	select {
	case <-s.closed:
		s.mu.Unlock()
		return nil, drover.ErrStreamClosed
	default:
	}
	if s.hangAt >= 0 && s.pos == s.hangAt {
		s.mu.Unlock()
		<-s.closed
		return nil, drover.ErrStreamClosed
	}
	if s.pos >= len(s.events) {
		s.mu.Unlock()
		return nil, io.EOF
	}
	evt := s.events[s.pos]
	s.pos++
	s.mu.Unlock()
	return evt, nil
}

// Close releases the script. Safe to call more than once.
func (s *Script) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}
