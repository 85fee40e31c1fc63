package handler

import (
	"net/http"

	"github.com/claimstack/claims-chat/internal/api/response"
	"github.com/claimstack/claims-chat/internal/service"
	"github.com/go-chi/chi/v5"
)

// UploadHandler handles claim artifact uploads.
type UploadHandler struct {
	claims  *service.ClaimService
	maxSize int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(claims *service.ClaimService, maxSize int64) *UploadHandler {
	if maxSize <= 0 {
		maxSize = 100 << 20
	}
	return &UploadHandler{claims: claims, maxSize: maxSize}
}

// Upload stores a multipart "file" as a claim artifact. The "kind" form
// field selects image or transcript.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimID")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "no file uploaded")
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")

	att, err := h.claims.AttachArtifact(r.Context(), claimID, kind, header.Filename, file)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, map[string]any{
		"status":        "uploaded",
		"url":           att.BlobURL,
		"attachment_id": att.ID,
	})
}
