package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Claim statuses.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// Attachment kinds.
const (
	AttachmentKindImage      = "image"
	AttachmentKindTranscript = "transcript"
)

// Claim represents an insurance claim record.
type Claim struct {
	ID           string    `json:"claim_id"`
	ClaimantName string    `json:"claimant_name"`
	IncidentDate string    `json:"incident_date"`
	Summary      string    `json:"summary,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClaimAttachment links an uploaded artifact (image or call transcript)
// to a claim by its blob URL.
type ClaimAttachment struct {
	ID        uuid.UUID `json:"id"`
	ClaimID   string    `json:"claim_id"`
	Kind      string    `json:"kind"`
	BlobURL   string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// ClaimRepository defines the interface for the relational claims store.
type ClaimRepository interface {
	// Get returns ErrNotFound for an unknown claim id.
	Get(ctx context.Context, claimID string) (*Claim, error)

	LinkAttachment(ctx context.Context, att *ClaimAttachment) error

	// ListAttachments returns attachments for a claim, newest first.
	// kind filters by attachment kind; empty means all kinds.
	ListAttachments(ctx context.Context, claimID, kind string) ([]ClaimAttachment, error)
}
