package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/google/uuid"
)

// JobRepository is an in-memory domain.JobRepository with the same
// version-compare semantics as the document store.
type JobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.Job
}

// NewJobRepository creates an empty in-memory job store.
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[uuid.UUID]*domain.Job)}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *job
	clone.Context = job.MergeContext(nil)
	r.jobs[job.ID] = &clone
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	clone := *job
	clone.Context = job.MergeContext(nil)
	return &clone, nil
}

func (r *JobRepository) UpdateState(ctx context.Context, id uuid.UUID, version int64, state domain.JobState, patch map[string]any, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if job.Version != version {
		return fmt.Errorf("job %s at version %d: %w", id, version, domain.ErrConflict)
	}

	job.Context = job.MergeContext(patch)
	job.State = state
	job.UpdatedAt = updatedAt
	job.Version++
	return nil
}
