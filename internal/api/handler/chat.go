package handler

import (
	"encoding/json"
	"net/http"

	"github.com/claimstack/claims-chat/internal/api/response"
	"github.com/claimstack/claims-chat/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	conversations *service.ConversationService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(conversations *service.ConversationService) *ChatHandler {
	return &ChatHandler{conversations: conversations}
}

// ChatRequest is one inbound chat turn.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"required,max=255"`
	Sender    string `json:"sender" validate:"required,max=64"`
	Text      string `json:"text" validate:"required"`
}

// Post appends a user message and returns the assistant reply.
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	reply, err := h.conversations.HandleUserMessage(r.Context(), req.SessionID, req.Sender, req.Text)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"reply":   reply.Text,
		"message": reply,
	})
}

// GetConversation returns the ordered message history for a session.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.conversations.History(r.Context(), sessionID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
	})
}

// validationErrors flattens validator output into a field -> reason map.
func validationErrors(err error) any {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			fields[e.Field()] = "field is required"
		case "max":
			fields[e.Field()] = "must be at most " + e.Param() + " characters"
		default:
			fields[e.Field()] = "validation failed on " + e.Tag()
		}
	}
	return fields
}
