// Package ws streams monitor updates to dashboard clients over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/monitor"
)

const (
	writeWait         = 5 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 512
	defaultSendBuffer = 16
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("websocket hub closed")

// Source supplies the update sent to a client as soon as it connects.
type Source interface {
	Latest() (monitor.Update, error)
}

// Frame is the JSON envelope of every message sent to clients.
type Frame struct {
	Type string         `json:"type"`
	Data monitor.Update `json:"data"`
}

type client struct {
	id      uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	lastSeq uint64
	once    sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans updates out to connected clients. Publish never blocks: a client
// whose send buffer is full is disconnected.
type Hub struct {
	source     Source
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	sendBuffer int

	mu      sync.Mutex
	clients map[uuid.UUID]*client
	closed  bool
}

// NewHub creates a hub. source may be nil, in which case clients wait for
// the next broadcast.
func NewHub(source Source, logger *slog.Logger) *Hub {
	return &Hub{
		source: source,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sendBuffer: defaultSendBuffer,
		clients:    make(map[uuid.UUID]*client),
	}
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}
	if !h.register(c) {
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck // closing anyway
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.logger.Info("websocket client connected", "client", c.id, "remote", r.RemoteAddr)

	go h.writePump(c)
	go h.readPump(c)
}

// register adds the client and queues the latest update for it. Reading the
// latest update under the lock guarantees no broadcast falls in between.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if h.source != nil {
		if u, err := h.source.Latest(); err == nil {
			if msg, err := encodeFrame(u); err == nil {
				c.send <- msg
				c.lastSeq = u.Sequence
			}
		}
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.stop()
	if ok {
		h.logger.Info("websocket client disconnected", "client", c.id)
	}
}

// Publish broadcasts an update to every client. Updates a client has
// already received are skipped.
func (h *Hub) Publish(_ context.Context, u monitor.Update) error {
	msg, err := encodeFrame(u)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	for id, c := range h.clients {
		if u.Sequence <= c.lastSeq {
			continue
		}
		select {
		case c.send <- msg:
			c.lastSeq = u.Sequence
		default:
			delete(h.clients, id)
			c.stop()
			h.logger.Warn("dropping slow websocket client", "client", id)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects further broadcasts.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		c.stop()
	}
	return nil
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // enforced by the next read
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients only listen; inbound messages are discarded.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by WriteMessage
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by WriteMessage
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, //nolint:errcheck // best-effort close frame
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func encodeFrame(u monitor.Update) ([]byte, error) {
	msg, err := json.Marshal(Frame{Type: "update", Data: u})
	if err != nil {
		return nil, fmt.Errorf("encode update frame: %w", err)
	}
	return msg, nil
}
