// Package infra provides shared infrastructure components for the IGDB MCP server.
package infra

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// RequestDeduplicator coalesces identical in-flight calls.
// When multiple goroutines ask for the same key simultaneously, only one call
// is made and all waiters receive the same result.
type RequestDeduplicator struct {
	group    singleflight.Group
	inflight atomic.Int64
}

// NewRequestDeduplicator creates a new request deduplicator
func NewRequestDeduplicator() *RequestDeduplicator {
	return &RequestDeduplicator{}
}

// Do executes fn only if no call with the same key is in flight.
// If one is already running, waits for its result instead.
//
// The shared call runs on a context detached from the first caller's
// cancellation, so a waiter that gives up never fails the others. A caller
// whose ctx is done stops waiting and gets ctx.Err().
//
// Returns the result, whether it was shared with another caller, and any error.
func (d *RequestDeduplicator) Do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	detached := context.WithoutCancel(ctx)
	ch := d.group.DoChan(key, func() (any, error) {
		d.inflight.Add(1)
		defer d.inflight.Add(-1)
		return fn(detached)
	})

	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// InFlight returns the number of calls currently executing
func (d *RequestDeduplicator) InFlight() int {
	return int(d.inflight.Load())
}
