package handler

import (
	"encoding/json"
	"net/http"

	"github.com/claimstack/claims-chat/internal/broadcast"
	"github.com/claimstack/claims-chat/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The REST API is open CORS; the socket follows suit.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler serves the chat WebSocket: inbound frames are chat turns,
// outbound frames are direct replies plus hub broadcasts.
type WSHandler struct {
	hub           *broadcast.Hub
	conversations *service.ConversationService
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(hub *broadcast.Hub, conversations *service.ConversationService) *WSHandler {
	return &WSHandler{hub: hub, conversations: conversations}
}

// wsInbound is one client frame.
type wsInbound struct {
	SessionID string `json:"session_id,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Text      string `json:"text"`
}

// Serve upgrades the connection and runs the chat read loop. A client
// without a session_id (query param or first frame) is assigned one.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	conn := h.hub.NewConnection(ws, sessionID)
	go conn.WritePump()
	defer h.hub.Unregister(conn)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.send(conn, map[string]any{"type": "error", "error": "invalid message"})
			continue
		}

		if msg.SessionID != "" {
			sessionID = msg.SessionID
		}
		if sessionID == "" {
			sessionID = uuid.New().String()
			h.send(conn, map[string]any{"type": "session", "session_id": sessionID})
		}

		sender := msg.Sender
		if sender == "" {
			sender = "user"
		}

		reply, err := h.conversations.HandleUserMessage(r.Context(), sessionID, sender, msg.Text)
		if err != nil {
			h.send(conn, map[string]any{"type": "error", "error": err.Error()})
			continue
		}

		h.send(conn, map[string]any{
			"type":   "message",
			"sender": reply.Sender,
			"text":   reply.Text,
		})
	}
}

func (h *WSHandler) send(conn *broadcast.Connection, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if !conn.Send(data) {
		log.Warn().Msg("WebSocket send buffer full, dropping frame")
	}
}
