package rpc

import (
	"context"
	"log"
	"net/http"
	"sync"

	"cbs/src/types"

	"github.com/gorilla/websocket"
)

// WSTransport speaks envelopes over a websocket connection to the
// server's /ws endpoint. Outputs arriving before a subscriber is
// registered are dropped, they cannot correspond to a live caller.
type WSTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	sink    func(types.ResponseEnvelope)
}

// DialWS connects to the server's envelope endpoint. The endpoint sits
// behind bearer auth, so callers pass the Authorization header along.
func DialWS(ctx context.Context, url string, header http.Header) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	t := &WSTransport{conn: conn}
	go t.readLoop()
	return t, nil
}

func (t *WSTransport) readLoop() {
	for {
		var out types.ResponseEnvelope
		if err := t.conn.ReadJSON(&out); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] read loop terminated: %v\n", err)
			}
			return
		}
		t.mu.Lock()
		sink := t.sink
		t.mu.Unlock()
		if sink != nil {
			sink(out)
		}
	}
}

func (t *WSTransport) Send(ctx context.Context, env types.RequestEnvelope) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		t.conn.SetWriteDeadline(deadline)
	}
	return t.conn.WriteJSON(env)
}

func (t *WSTransport) Subscribe(sink func(types.ResponseEnvelope)) {
	t.mu.Lock()
	t.sink = sink
	t.mu.Unlock()
}

func (t *WSTransport) Close() error {
	return t.conn.Close()
}
