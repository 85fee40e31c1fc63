package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClaimRepository implements domain.ClaimRepository
type ClaimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *DB) *ClaimRepository {
	return &ClaimRepository{pool: db.Pool}
}

func (r *ClaimRepository) Get(ctx context.Context, claimID string) (*domain.Claim, error) {
	query := `
		SELECT claim_id, claimant_name, incident_date, COALESCE(summary, ''), status, created_at
		FROM claims
		WHERE claim_id = $1
	`
	var c domain.Claim
	err := r.pool.QueryRow(ctx, query, claimID).Scan(
		&c.ID,
		&c.ClaimantName,
		&c.IncidentDate,
		&c.Summary,
		&c.Status,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("claim %s: %w", claimID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get claim: %v", domain.ErrStorageUnavailable, err)
	}
	return &c, nil
}

func (r *ClaimRepository) LinkAttachment(ctx context.Context, att *domain.ClaimAttachment) error {
	query := `
		INSERT INTO claim_attachments (id, claim_id, kind, blob_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		att.ID,
		att.ClaimID,
		att.Kind,
		att.BlobURL,
		att.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to link attachment: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *ClaimRepository) ListAttachments(ctx context.Context, claimID, kind string) ([]domain.ClaimAttachment, error) {
	query := `
		SELECT id, claim_id, kind, blob_url, created_at
		FROM claim_attachments
		WHERE claim_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, claimID, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list attachments: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	attachments := []domain.ClaimAttachment{}
	for rows.Next() {
		var a domain.ClaimAttachment
		if err := rows.Scan(&a.ID, &a.ClaimID, &a.Kind, &a.BlobURL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan attachment: %v", domain.ErrStorageUnavailable, err)
		}
		attachments = append(attachments, a)
	}
	return attachments, nil
}
