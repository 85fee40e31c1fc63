package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxTransitionRetries bounds the internal retry loop on optimistic
// conflicts before ErrConflict is surfaced to the caller.
const maxTransitionRetries = 3

// JobService is the job state machine: it validates and applies
// transitions against the legal-transition table and guarantees
// read-modify-write atomicity per job through the repository's version
// compare.
type JobService struct {
	jobRepo     domain.JobRepository
	broadcaster domain.Broadcaster
}

// NewJobService creates a new job service
func NewJobService(jobRepo domain.JobRepository, broadcaster domain.Broadcaster) *JobService {
	return &JobService{jobRepo: jobRepo, broadcaster: broadcaster}
}

// Create allocates a new job in PENDING with the given context.
func (s *JobService) Create(ctx context.Context, sessionID string, initialContext map[string]any) (*domain.Job, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.New(),
		SessionID: sessionID,
		State:     domain.JobStatePending,
		Context:   initialContext,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if job.Context == nil {
		job.Context = map[string]any{}
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// Get retrieves a job by id.
func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return s.jobRepo.Get(ctx, id)
}

// Transition applies one state transition: it validates
// (current, target) against the transition table, merges patch into the
// job context, stamps updated_at, and persists atomically at the read
// version. Conflicting concurrent writers are retried with a fresh read
// a bounded number of times; the transition is re-validated against each
// re-read state, so a job moved elsewhere in the meantime fails with
// ErrIllegalTransition rather than silently applying.
func (s *JobService) Transition(ctx context.Context, id uuid.UUID, target domain.JobState, patch map[string]any) (*domain.Job, error) {
	var lastErr error

	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		job, err := s.jobRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if !domain.CanTransition(job.State, target) {
			return nil, fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, job.State, target)
		}

		now := time.Now().UTC()
		if err := s.jobRepo.UpdateState(ctx, id, job.Version, target, patch, now); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		job.Context = job.MergeContext(patch)
		job.State = target
		job.UpdatedAt = now
		job.Version++

		s.publish(ctx, job)
		return job, nil
	}

	return nil, fmt.Errorf("transition to %s not applied after %d attempts: %w", target, maxTransitionRetries, lastErr)
}

// publish emits a job.update event. Broadcast is fire-and-forget: a
// delivery failure never fails the transition.
func (s *JobService) publish(ctx context.Context, job *domain.Job) {
	if s.broadcaster == nil {
		return
	}
	event := domain.Event{
		Kind:      domain.EventJobUpdate,
		SessionID: job.SessionID,
		JobID:     job.ID.String(),
		Payload: map[string]any{
			"state":      job.State,
			"updated_at": job.UpdatedAt,
		},
	}
	if err := s.broadcaster.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("Failed to broadcast job update")
	}
}
