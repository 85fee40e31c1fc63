package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const jobsCollection = "jobs"

// JobRepository implements domain.JobRepository over the document store.
type JobRepository struct {
	jobs *mongo.Collection
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{jobs: db.Database().Collection(jobsCollection)}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	if _, err := r.jobs.InsertOne(ctx, job); err != nil {
		return fmt.Errorf("%w: failed to insert job: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := r.jobs.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get job: %v", domain.ErrStorageUnavailable, err)
	}
	return &job, nil
}

// UpdateState applies a state transition with optimistic concurrency:
// the write matches on (_id, version) and increments the version, so a
// job changed since the caller's read is left untouched and ErrConflict
// is returned. Context keys from patch are set individually under the
// context document, which merges without clobbering earlier keys.
func (r *JobRepository) UpdateState(ctx context.Context, id uuid.UUID, version int64, state domain.JobState, patch map[string]any, updatedAt time.Time) error {
	set := bson.M{
		"state":      state,
		"updated_at": updatedAt,
	}
	for k, v := range patch {
		set["context."+k] = v
	}

	res, err := r.jobs.UpdateOne(ctx,
		bson.M{"_id": id, "version": version},
		bson.M{"$set": set, "$inc": bson.M{"version": int64(1)}},
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update job: %v", domain.ErrStorageUnavailable, err)
	}
	if res.MatchedCount == 0 {
		// Either the job is gone or someone moved it first.
		count, err := r.jobs.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("%w: failed to check job existence: %v", domain.ErrStorageUnavailable, err)
		}
		if count == 0 {
			return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("job %s at version %d: %w", id, version, domain.ErrConflict)
	}
	return nil
}
