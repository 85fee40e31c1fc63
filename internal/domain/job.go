package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle state of a workflow job.
type JobState string

const (
	JobStatePending           JobState = "pending"
	JobStateProcessing        JobState = "processing"
	JobStateAwaitingUserInput JobState = "awaiting_user_input"
	JobStateCompleted         JobState = "completed"
	JobStateFailed            JobState = "failed"
)

// legalTransitions is the authoritative transition table. PENDING is the
// sole initial state; COMPLETED and FAILED have no outgoing edges.
var legalTransitions = map[JobState][]JobState{
	JobStatePending:           {JobStateProcessing},
	JobStateProcessing:        {JobStateAwaitingUserInput, JobStateCompleted, JobStateFailed},
	JobStateAwaitingUserInput: {JobStateProcessing},
	JobStateCompleted:         {},
	JobStateFailed:            {},
}

// Valid reports whether s is a known job state.
func (s JobState) Valid() bool {
	_, ok := legalTransitions[s]
	return ok
}

// Terminal reports whether s has no outgoing transitions.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to JobState) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Job is a unit of work owned by one session. It may pause in
// AWAITING_USER_INPUT until the user supplies a missing field. Jobs are
// mutated only through the job service's transition operation and are
// never deleted; terminal states are retained for audit.
//
// Version backs optimistic concurrency: every persisted update compares
// the stored version and increments it, so concurrent transitions on the
// same job cannot lose a context merge.
type Job struct {
	ID        uuid.UUID      `json:"id" bson:"_id"`
	SessionID string         `json:"session_id" bson:"session_id"`
	State     JobState       `json:"state" bson:"state"`
	Context   map[string]any `json:"context" bson:"context"`
	Version   int64          `json:"version" bson:"version"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}

// MergeContext returns a copy of the job's context with patch merged in.
// Merging is strictly additive: existing keys may be overwritten by the
// patch but never removed.
func (j *Job) MergeContext(patch map[string]any) map[string]any {
	merged := make(map[string]any, len(j.Context)+len(patch))
	for k, v := range j.Context {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// JobRepository defines the interface for the job store.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error

	// Get returns ErrNotFound if no job with the id exists.
	Get(ctx context.Context, id uuid.UUID) (*Job, error)

	// UpdateState persists a transition for the job at the given
	// version: it sets the state, merges patch into the context, stamps
	// updated_at, and increments the version, all as one write.
	// Returns ErrConflict if the stored version differs and ErrNotFound
	// if the job is gone.
	UpdateState(ctx context.Context, id uuid.UUID, version int64, state JobState, patch map[string]any, updatedAt time.Time) error
}
