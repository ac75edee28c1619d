package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Envelope is the wire format shared with the game server: a tagged
// event name plus a raw JSON payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handler consumes one event payload. Handlers for an event run in
// subscription order, all from the channel's single read loop, so no
// two handlers ever execute concurrently.
type Handler func(payload json.RawMessage)

type handlerEntry struct {
	id uint64
	fn Handler
}

// Channel is a persistent duplex connection to the game server. It is
// shared process-wide: several consumers may subscribe to the same
// channel, and each detaches only its own handlers. Disconnect belongs
// to whoever called Connect.
type Channel struct {
	url    string
	dialer *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	nextID    uint64
	handlers  map[string][]handlerEntry
	pending   []Envelope

	writeMu sync.Mutex
}

func NewChannel(url string) *Channel {
	return &Channel{
		url:      url,
		dialer:   websocket.DefaultDialer,
		handlers: make(map[string][]handlerEntry),
	}
}

// Connect dials the server and starts the read loop. Subscriptions
// registered before Connect survive it, as do ones that outlive a
// dropped connection: a renewed Connect resumes dispatching to them.
// Any events emitted while disconnected are flushed, oldest first.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	queued := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, env := range queued {
		if err := c.write(conn, env); err != nil {
			log.Warn().Err(err).Str("event", env.Type).Msg("flush of buffered emit failed")
		}
	}

	go c.readLoop(conn)
	return nil
}

// Disconnect closes the connection. Handlers are deliberately kept:
// other consumers of the shared channel detach their own via Off, and
// reconnection must not lose subscriptions.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Connected reports whether the channel currently has a live socket.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Emit sends an event to the server. Before Connect completes, events
// are buffered silently and flushed on connect; this mirrors the
// behavior the game's web client relies on and is the documented
// policy, not an accident.
func (c *Channel) Emit(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	env := Envelope{Type: event, Payload: raw}

	c.mu.Lock()
	if !c.connected {
		c.pending = append(c.pending, env)
		c.mu.Unlock()
		log.Debug().Str("event", event).Msg("channel not connected, buffering emit")
		return nil
	}
	conn := c.conn
	c.mu.Unlock()

	return c.write(conn, env)
}

func (c *Channel) write(conn *websocket.Conn, env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write %s: %w", env.Type, err)
	}
	return nil
}

// On registers a handler for an event and returns its teardown. The
// returned func is idempotent: calling it twice, or for a handler that
// was never registered, is a no-op.
func (c *Channel) On(event string, fn func(payload json.RawMessage)) (off func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.handlers[event] = append(c.handlers[event], handlerEntry{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		entries := c.handlers[event]
		for i, entry := range entries {
			if entry.id == id {
				c.handlers[event] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			stillCurrent := c.conn == conn
			if stillCurrent {
				c.conn = nil
				c.connected = false
			}
			c.mu.Unlock()
			if stillCurrent {
				log.Debug().Err(err).Msg("channel read loop ended")
			}
			return
		}
		c.dispatch(env)
	}
}

// dispatch runs handlers outside the channel lock so a handler may
// subscribe, unsubscribe, or emit without deadlocking. The snapshot
// preserves subscription order.
func (c *Channel) dispatch(env Envelope) {
	c.mu.Lock()
	entries := make([]handlerEntry, len(c.handlers[env.Type]))
	copy(entries, c.handlers[env.Type])
	c.mu.Unlock()

	for _, entry := range entries {
		entry.fn(env.Payload)
	}
}
