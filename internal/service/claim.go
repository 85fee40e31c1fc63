package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/claimstack/claims-chat/internal/blob"
	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/google/uuid"
)

// ClaimService handles claim lookups and artifact attachments.
type ClaimService struct {
	claimRepo domain.ClaimRepository
	blobs     blob.Store
}

// NewClaimService creates a new claim service
func NewClaimService(claimRepo domain.ClaimRepository, blobs blob.Store) *ClaimService {
	return &ClaimService{claimRepo: claimRepo, blobs: blobs}
}

// Get retrieves a claim by id.
func (s *ClaimService) Get(ctx context.Context, claimID string) (*domain.Claim, error) {
	if strings.TrimSpace(claimID) == "" {
		return nil, fmt.Errorf("%w: claim_id is required", domain.ErrInvalidInput)
	}
	return s.claimRepo.Get(ctx, claimID)
}

// AttachArtifact uploads an artifact to the blob store and links its
// URL to the claim. With the blob store disabled the call fails with
// ErrDisabled; nothing is linked.
func (s *ClaimService) AttachArtifact(ctx context.Context, claimID, kind, filename string, r io.Reader) (*domain.ClaimAttachment, error) {
	if strings.TrimSpace(claimID) == "" {
		return nil, fmt.Errorf("%w: claim_id is required", domain.ErrInvalidInput)
	}
	if kind != domain.AttachmentKindImage && kind != domain.AttachmentKindTranscript {
		return nil, fmt.Errorf("%w: unknown attachment kind %q", domain.ErrInvalidInput, kind)
	}

	// The claim must exist before anything is stored.
	if _, err := s.claimRepo.Get(ctx, claimID); err != nil {
		return nil, err
	}

	url, err := s.blobs.Upload(ctx, filename, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload artifact: %w", err)
	}

	att := &domain.ClaimAttachment{
		ID:        uuid.New(),
		ClaimID:   claimID,
		Kind:      kind,
		BlobURL:   url,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.claimRepo.LinkAttachment(ctx, att); err != nil {
		return nil, err
	}
	return att, nil
}

// ListAttachments returns a claim's attachments, optionally filtered by
// kind, newest first.
func (s *ClaimService) ListAttachments(ctx context.Context, claimID, kind string) ([]domain.ClaimAttachment, error) {
	if strings.TrimSpace(claimID) == "" {
		return nil, fmt.Errorf("%w: claim_id is required", domain.ErrInvalidInput)
	}
	if kind != "" && kind != domain.AttachmentKindImage && kind != domain.AttachmentKindTranscript {
		return nil, fmt.Errorf("%w: unknown attachment kind %q", domain.ErrInvalidInput, kind)
	}
	return s.claimRepo.ListAttachments(ctx, claimID, kind)
}
