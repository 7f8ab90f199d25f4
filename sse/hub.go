// Package sse streams live-transcription events to HTTP clients over
// Server-Sent Events. A Hub routes events to subscribed clients; the
// handler owns the per-connection write loop.
package sse

import (
	"path/filepath"
	"sync"

	"github.com/skillsenselab/speakerlab/logger"
)

// Client is one connected SSE subscriber.
type Client struct {
	id     string
	stream string      // stream name the client subscribed to
	events chan []byte // buffered; slow clients drop events
}

// NewClient creates a subscriber for the named stream.
func NewClient(id, stream string) *Client {
	return &Client{
		id:     id,
		stream: stream,
		events: make(chan []byte, 256),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Stream returns the stream name the client subscribed to.
func (c *Client) Stream() string { return c.stream }

// Events returns the channel the write loop reads from.
func (c *Client) Events() <-chan []byte { return c.events }

// Send queues data for the client. It returns false when the client's
// buffer is full; the event is dropped rather than blocking the hub.
func (c *Client) Send(data []byte) bool {
	select {
	case c.events <- data:
		return true
	default:
		logger.Warn("sse client buffer full, dropping event", logger.Fields(
			"client_id", c.id,
			"stream", c.stream,
		))
		return false
	}
}

// Close closes the client's event channel.
func (c *Client) Close() { close(c.events) }

// Broadcaster publishes events to subscribed clients. Handlers and the
// live pipeline depend on this rather than the concrete Hub.
type Broadcaster interface {
	// Broadcast sends data to all clients whose stream matches the
	// glob pattern (e.g. "live" or "live*").
	Broadcast(pattern string, data []byte)
}

// Hub manages client subscriptions and event fan-out.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
}

type message struct {
	pattern string
	data    []byte
}

// NewHub creates a hub. Call Run in a goroutine before registering
// clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It blocks until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("sse client registered", logger.Fields(
				"client_id", client.id,
				"stream", client.stream,
				"total_clients", total,
			))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.fanOut(msg.pattern, msg.data)
		}
	}
}

// Stop shuts the hub down, closing all client connections. Safe to call
// more than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
}

// Register adds a client to the hub. After Stop, the client is closed
// immediately so its write loop terminates.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client and closes its channel. After Stop this
// is a no-op; closeAll has already closed every registered client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues data for all clients on matching streams. Events
// broadcast after Stop are dropped.
func (h *Hub) Broadcast(pattern string, data []byte) {
	select {
	case h.broadcast <- message{pattern: pattern, data: data}:
	case <-h.done:
	}
}

func (h *Hub) fanOut(pattern string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		matched, err := filepath.Match(pattern, client.stream)
		if err != nil {
			logger.Error("sse pattern match error", logger.Fields(
				"pattern", pattern,
				logger.FieldError, err.Error(),
			))
			return
		}
		if matched {
			client.Send(data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var _ Broadcaster = (*Hub)(nil)
