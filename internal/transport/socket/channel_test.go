package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoServer accepts websocket connections, records every envelope the
// client sends, and lets tests push envelopes back.
type echoServer struct {
	srv       *httptest.Server
	received  chan Envelope
	connected chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

func newEchoServer(t *testing.T) *echoServer {
	t.Helper()
	es := &echoServer{
		received:  make(chan Envelope, 16),
		connected: make(chan struct{}, 4),
	}
	upgrader := websocket.Upgrader{}
	es.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		es.mu.Lock()
		es.conn = conn
		es.mu.Unlock()
		es.connected <- struct{}{}
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			es.received <- env
		}
	}))
	t.Cleanup(es.srv.Close)
	return es
}

func (es *echoServer) url() string {
	return "ws" + strings.TrimPrefix(es.srv.URL, "http")
}

// waitConn blocks until the server side of the latest Connect is up,
// so pushes never hit a half-established or stale connection.
func (es *echoServer) waitConn(t *testing.T) {
	t.Helper()
	select {
	case <-es.connected:
	case <-time.After(2 * time.Second):
		t.Fatalf("server never saw the connection")
	}
}

func (es *echoServer) push(t *testing.T, env Envelope) {
	t.Helper()
	es.mu.Lock()
	conn := es.conn
	es.mu.Unlock()
	if conn == nil {
		t.Fatalf("no client connected")
	}
	if err := conn.WriteJSON(env); err != nil {
		t.Fatalf("push %s: %v", env.Type, err)
	}
}

func (es *echoServer) next(t *testing.T) Envelope {
	t.Helper()
	select {
	case env := <-es.received:
		return env
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for client envelope")
		return Envelope{}
	}
}

func TestEmitBeforeConnectBuffersAndFlushes(t *testing.T) {
	es := newEchoServer(t)
	ch := NewChannel(es.url())

	if err := ch.Emit("first", map[string]string{"n": "1"}); err != nil {
		t.Fatalf("buffered emit: %v", err)
	}
	if err := ch.Emit("second", map[string]string{"n": "2"}); err != nil {
		t.Fatalf("buffered emit: %v", err)
	}

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ch.Disconnect()

	// Buffered emits flush oldest first.
	if env := es.next(t); env.Type != "first" {
		t.Fatalf("expected first, got %s", env.Type)
	}
	if env := es.next(t); env.Type != "second" {
		t.Fatalf("expected second, got %s", env.Type)
	}

	if err := ch.Emit("third", nil); err != nil {
		t.Fatalf("live emit: %v", err)
	}
	if env := es.next(t); env.Type != "third" {
		t.Fatalf("expected third, got %s", env.Type)
	}
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	es := newEchoServer(t)
	ch := NewChannel(es.url())

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})
	ch.On("ping", func(json.RawMessage) {
		mu.Lock()
		order = append(order, "a")
		mu.Unlock()
	})
	ch.On("ping", func(json.RawMessage) {
		mu.Lock()
		order = append(order, "b")
		mu.Unlock()
		close(done)
	})

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ch.Disconnect()
	es.waitConn(t)

	es.push(t, Envelope{Type: "ping"})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handlers never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected [a b], got %v", order)
	}
}

func TestOffIsIdempotent(t *testing.T) {
	es := newEchoServer(t)
	ch := NewChannel(es.url())

	fired := make(chan string, 4)
	off := ch.On("ping", func(json.RawMessage) { fired <- "removed" })
	ch.On("ping", func(json.RawMessage) { fired <- "kept" })

	off()
	off() // second call is a no-op

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ch.Disconnect()
	es.waitConn(t)

	es.push(t, Envelope{Type: "ping"})
	select {
	case who := <-fired:
		if who != "kept" {
			t.Fatalf("detached handler fired")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("surviving handler never ran")
	}
	select {
	case who := <-fired:
		t.Fatalf("unexpected extra dispatch to %q", who)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandlerPayloadDelivered(t *testing.T) {
	es := newEchoServer(t)
	ch := NewChannel(es.url())

	got := make(chan json.RawMessage, 1)
	ch.On("score", func(p json.RawMessage) { got <- p })

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ch.Disconnect()
	es.waitConn(t)

	es.push(t, Envelope{Type: "score", Payload: json.RawMessage(`{"value":42}`)})

	select {
	case raw := <-got:
		var p struct {
			Value int `json:"value"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if p.Value != 42 {
			t.Fatalf("expected 42, got %d", p.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("payload never arrived")
	}
}

func TestReconnectKeepsSubscriptions(t *testing.T) {
	es := newEchoServer(t)
	ch := NewChannel(es.url())

	fired := make(chan struct{}, 2)
	ch.On("ping", func(json.RawMessage) { fired <- struct{}{} })

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	es.waitConn(t)
	ch.Disconnect()
	if ch.Connected() {
		t.Fatalf("expected disconnected state")
	}

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	defer ch.Disconnect()
	es.waitConn(t)

	es.push(t, Envelope{Type: "ping"})
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription lost across reconnect")
	}
}

func TestConnectTwiceIsNoOp(t *testing.T) {
	es := newEchoServer(t)
	ch := NewChannel(es.url())

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ch.Disconnect()
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if !ch.Connected() {
		t.Fatalf("expected connected")
	}
}
