// Package mock provides test doubles for the drover interfaces.
package mock

import (
	"context"

	"github.com/droverhq/drover"
)

// Interface compliance check.
var _ drover.Transport = (*Transport)(nil)

// Transport is a test double for drover.Transport. StreamFn panics when nil
// to catch missing setup.
type Transport struct {
	StreamFn func(ctx context.Context, req drover.Request) (drover.Stream, error)
}

// Stream delegates to StreamFn.
func (t *Transport) Stream(ctx context.Context, req drover.Request) (drover.Stream, error) {
	return t.StreamFn(ctx, req)
}
