// Package wsconn provides a WebSocket broadcast hub for server push.
package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Config holds hub tuning knobs.
type Config struct {
	// SendBuffer is the per-subscriber queue length. A subscriber that
	// falls this far behind is disconnected instead of stalling the
	// broadcast path.
	SendBuffer int

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// OriginPatterns is passed through to the websocket accept options.
	// Empty means same-origin only.
	OriginPatterns []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:   16,
		WriteTimeout: 5 * time.Second,
	}
}

// Hub fans messages out to every connected subscriber. It is safe for
// concurrent use; Publish never blocks on a slow peer.
type Hub struct {
	config Config

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

type subscriber struct {
	msgs      chan []byte
	closeSlow func()
}

// NewHub creates an empty hub.
func NewHub(config Config) *Hub {
	if config.SendBuffer <= 0 {
		config.SendBuffer = 16
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	return &Hub{
		config:      config,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Subscribe upgrades the request and streams broadcasts to the peer until
// the connection drops or the request context ends. The stream is
// push-only; inbound frames are drained and discarded.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.config.OriginPatterns,
	})
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	sub := &subscriber{
		msgs: make(chan []byte, h.config.SendBuffer),
	}
	sub.closeSlow = func() {
		conn.Close(websocket.StatusPolicyViolation, "subscriber too slow to keep up")
	}

	h.add(sub)
	defer h.remove(sub)

	// CloseRead drains inbound frames and cancels the context when the
	// peer goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case msg := <-sub.msgs:
			if err := writeTimeout(ctx, h.config.WriteTimeout, conn, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Publish broadcasts one message to every subscriber. Subscribers whose
// queue is full are disconnected.
func (h *Hub) Publish(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub.msgs <- msg:
		default:
			go sub.closeSlow()
		}
	}
}

// PublishJSON marshals v once and broadcasts it.
func (h *Hub) PublishJSON(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Publish(msg)
	return nil
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
}

func writeTimeout(ctx context.Context, timeout time.Duration, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}
