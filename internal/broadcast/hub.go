// Package broadcast fans chat and job events out to connected
// WebSocket clients. Delivery is best-effort: a slow or dead client is
// dropped, never waited on.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

// Connection represents a single WebSocket client. A connection with an
// empty SessionID receives every event; otherwise only events for its
// session.
type Connection struct {
	ID        string
	SessionID string
	ws        *websocket.Conn
	send      chan []byte
	hub       *Hub
}

// Hub manages connections and event fan-out. Run must be started before
// Publish is useful.
type Hub struct {
	sendBuffer int

	mu          sync.RWMutex
	connections map[string]*Connection
	sessions    map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	events     chan domain.Event
}

// NewHub creates a new Hub.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		sendBuffer:  sendBuffer,
		connections: make(map[string]*Connection),
		sessions:    make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		events:      make(chan domain.Event, 256),
	}
}

// Run is the hub's main loop; it returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if conn.SessionID != "" {
				if h.sessions[conn.SessionID] == nil {
					h.sessions[conn.SessionID] = make(map[string]bool)
				}
				h.sessions[conn.SessionID][conn.ID] = true
			}
			h.mu.Unlock()
			log.Debug().Str("conn_id", conn.ID).Str("session_id", conn.SessionID).Msg("Connection registered")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				if conn.SessionID != "" && h.sessions[conn.SessionID] != nil {
					delete(h.sessions[conn.SessionID], conn.ID)
					if len(h.sessions[conn.SessionID]) == 0 {
						delete(h.sessions, conn.SessionID)
					}
				}
				close(conn.send)
			}
			h.mu.Unlock()
			log.Debug().Str("conn_id", conn.ID).Msg("Connection unregistered")

		case event := <-h.events:
			h.deliver(event)
		}
	}
}

// deliver writes the event to every matching connection's send buffer.
func (h *Hub) deliver(event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("kind", event.Kind).Msg("Failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections {
		if conn.SessionID != "" && event.SessionID != "" && conn.SessionID != event.SessionID {
			continue
		}
		select {
		case conn.send <- data:
		default:
			log.Warn().Str("conn_id", conn.ID).Msg("Connection buffer full, dropping")
			go h.Unregister(conn)
		}
	}
}

// Publish implements domain.Broadcaster. It never blocks the caller: a
// saturated hub drops the event.
func (h *Hub) Publish(_ context.Context, event domain.Event) error {
	select {
	case h.events <- event:
		return nil
	default:
		return fmt.Errorf("event queue full, dropped %s", event.Kind)
	}
}

// NewConnection wraps a WebSocket in a hub connection scoped to
// sessionID (empty means firehose) and registers it.
func (h *Hub) NewConnection(ws *websocket.Conn, sessionID string) *Connection {
	conn := &Connection{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ws:        ws,
		send:      make(chan []byte, h.sendBuffer),
		hub:       h,
	}
	h.register <- conn
	return conn
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// WritePump drains the send buffer to the socket until the connection
// is unregistered or the write fails. Run it in its own goroutine; it
// owns all writes to the socket.
func (c *Connection) WritePump() {
	defer c.ws.Close()
	for data := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// Send queues data for this connection only.
func (c *Connection) Send(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Noop is the disabled broadcaster: every publish is an acknowledged
// skip, visible in logs.
type Noop struct{}

func (Noop) Publish(_ context.Context, event domain.Event) error {
	log.Debug().Str("kind", event.Kind).Msg("Broadcast disabled, skipping event")
	return nil
}
