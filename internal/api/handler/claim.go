package handler

import (
	"net/http"

	"github.com/claimstack/claims-chat/internal/api/response"
	"github.com/claimstack/claims-chat/internal/service"
	"github.com/go-chi/chi/v5"
)

// ClaimHandler handles claim endpoints.
type ClaimHandler struct {
	claims *service.ClaimService
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claims *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// Get returns a claim record.
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	claim, err := h.claims.Get(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, claim)
}

// ListAttachments returns a claim's attachments, optionally filtered by
// ?kind=image or ?kind=transcript.
func (h *ClaimHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimID")
	kind := r.URL.Query().Get("kind")

	attachments, err := h.claims.ListAttachments(r.Context(), claimID, kind)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"claim_id":    claimID,
		"attachments": attachments,
	})
}
