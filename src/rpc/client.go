// Package rpc gives callers a synchronous call/response abstraction over
// an asynchronous transport that multiplexes many logical calls on one
// channel and may deliver responses out of order. Writes are matched to
// callers by correlation token; reads carry no token and are therefore
// self-serialized so responses line up with submission order.
package rpc

import (
	"context"
	"errors"
	"sync"
	"time"

	"cbs/src/config"
	"cbs/src/types"

	"github.com/google/uuid"
)

// ErrTimeout is returned when no matching response arrives within the
// configured bound. The call's pending entry is removed, so a response
// that shows up later is discarded instead of leaking.
var ErrTimeout = errors.New("request timed out")

type Client struct {
	transport Transport
	timeout   time.Duration

	mu       sync.Mutex
	pending  map[string]chan types.ResponseEnvelope
	readTail <-chan struct{}
	readWait chan types.ResponseEnvelope
	// readStale counts abandoned reads whose responses are still owed by
	// the service. Matching is by arrival order, so those must be
	// swallowed before the next read's response can be paired.
	readStale int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func NewClient(transport Transport, opts ...Option) *Client {
	resolved := make(chan struct{})
	close(resolved)
	c := &Client{
		transport: transport,
		timeout:   config.RPCTimeout(),
		pending:   make(map[string]chan types.ResponseEnvelope),
		readTail:  resolved,
	}
	for _, opt := range opts {
		opt(c)
	}
	transport.Subscribe(c.deliver)
	return c
}

// Call issues a write request. A fresh correlation token is attached and
// registered before the request is transmitted: on a fast transport the
// response can land before Send even returns.
func (c *Client) Call(ctx context.Context, env types.RequestEnvelope) (types.ResponseEnvelope, error) {
	env.ReqID = uuid.NewString()
	ch := make(chan types.ResponseEnvelope, 1)

	c.mu.Lock()
	c.pending[env.ReqID] = ch
	c.mu.Unlock()

	if err := c.transport.Send(ctx, env); err != nil {
		c.drop(env.ReqID)
		return types.ResponseEnvelope{}, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case out := <-ch:
		return out, nil
	case <-timer.C:
		c.drop(env.ReqID)
		return types.ResponseEnvelope{}, ErrTimeout
	case <-ctx.Done():
		c.drop(env.ReqID)
		return types.ResponseEnvelope{}, ctx.Err()
	}
}

// Read issues a read-only request. Reads carry no correlation token and
// are matched to responses strictly by arrival order, so at most one may
// be in flight: each read waits for the one queued before it, and a
// failure in one never stalls the chain behind it.
func (c *Client) Read(ctx context.Context, env types.RequestEnvelope) (types.ResponseEnvelope, error) {
	env.ReqID = ""
	done := make(chan struct{})

	c.mu.Lock()
	prev := c.readTail
	c.readTail = done
	c.mu.Unlock()
	defer close(done)

	select {
	case <-prev:
	case <-ctx.Done():
		return types.ResponseEnvelope{}, ctx.Err()
	}

	reply := make(chan types.ResponseEnvelope, 1)
	c.mu.Lock()
	c.readWait = reply
	c.mu.Unlock()

	if err := c.transport.Send(ctx, env); err != nil {
		c.abandonRead(reply, false)
		return types.ResponseEnvelope{}, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case out := <-reply:
		return out, nil
	case <-timer.C:
		c.abandonRead(reply, true)
		return types.ResponseEnvelope{}, ErrTimeout
	case <-ctx.Done():
		c.abandonRead(reply, true)
		return types.ResponseEnvelope{}, ctx.Err()
	}
}

func (c *Client) Close() error {
	return c.transport.Close()
}

// deliver routes a transport output to its caller. Outputs with a token
// nobody is waiting on, and tokenless outputs with no read in flight,
// are discarded: they cannot correspond to a live caller.
func (c *Client) deliver(out types.ResponseEnvelope) {
	if out.ReqID != "" {
		c.mu.Lock()
		ch, ok := c.pending[out.ReqID]
		if ok {
			delete(c.pending, out.ReqID)
		}
		c.mu.Unlock()
		if ok {
			ch <- out
		}
		return
	}

	c.mu.Lock()
	if c.readStale > 0 {
		c.readStale--
		c.mu.Unlock()
		return
	}
	reply := c.readWait
	c.readWait = nil
	c.mu.Unlock()
	if reply != nil {
		reply <- out
	}
}

func (c *Client) drop(reqID string) {
	c.mu.Lock()
	delete(c.pending, reqID)
	c.mu.Unlock()
}

// abandonRead gives up on an in-flight read. owed marks whether the
// service will still emit a response for it; that response precedes the
// next read's in arrival order and must be discarded, not handed to
// whoever reads next.
func (c *Client) abandonRead(reply chan types.ResponseEnvelope, owed bool) {
	c.mu.Lock()
	if c.readWait == reply {
		c.readWait = nil
		if owed {
			c.readStale++
		}
	}
	c.mu.Unlock()
}
