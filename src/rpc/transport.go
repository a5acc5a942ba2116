package rpc

import (
	"context"
	"sync"

	"cbs/src/engine"
	"cbs/src/types"
)

// Transport moves envelopes to the execution service and delivers its
// responses back. Delivery order is not guaranteed to match submission
// order; the Client sorts that out.
type Transport interface {
	Send(ctx context.Context, env types.RequestEnvelope) error
	Subscribe(sink func(types.ResponseEnvelope))
	Close() error
}

// Loopback runs requests straight against an in-process Router. Each
// request is dispatched on its own goroutine, so responses genuinely can
// come back out of order, same as a remote transport.
type Loopback struct {
	router *engine.Router

	mu   sync.Mutex
	sink func(types.ResponseEnvelope)
}

func NewLoopback(router *engine.Router) *Loopback {
	return &Loopback{router: router}
}

func (t *Loopback) Send(ctx context.Context, env types.RequestEnvelope) error {
	go func() {
		out := t.router.Dispatch(context.WithoutCancel(ctx), env)
		t.mu.Lock()
		sink := t.sink
		t.mu.Unlock()
		if sink != nil {
			sink(out)
		}
	}()
	return nil
}

func (t *Loopback) Subscribe(sink func(types.ResponseEnvelope)) {
	t.mu.Lock()
	t.sink = sink
	t.mu.Unlock()
}

func (t *Loopback) Close() error { return nil }
