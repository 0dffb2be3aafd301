package drover

import "context"

// Stream is a pull-based iterator over decoded wire events. Next returns
// io.EOF when the stream completes normally and a non-EOF error for
// transport or protocol failures. Close aborts the stream mid-flight and
// releases the underlying connection; it is safe to call more than once
// and after Next has returned a terminal result.
type Stream interface {
	Next() (Event, error)
	Close() error
}

// Transport opens a streaming connection to a completion endpoint and
// yields decoded events in arrival order. The returned Stream is owned
// exclusively by the caller for its lifetime.
type Transport interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
