package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/claimstack/claims-chat/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	messagesCollection = "messages"
	countersCollection = "session_counters"
)

// MessageRepository implements domain.MessageRepository over the
// document store.
type MessageRepository struct {
	messages *mongo.Collection
	counters *mongo.Collection
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{
		messages: db.Database().Collection(messagesCollection),
		counters: db.Database().Collection(countersCollection),
	}
}

// nextSeq atomically allocates the next per-session sequence number.
func (r *MessageRepository) nextSeq(ctx context.Context, sessionID string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": sessionID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence: %w", err)
	}
	return counter.Seq, nil
}

// Append durably stores a message with the next sequence number for its
// session. The sequence allocation and the insert are separate writes;
// a crash between them burns a number but never reorders the log.
func (r *MessageRepository) Append(ctx context.Context, message *domain.Message) error {
	seq, err := r.nextSeq(ctx, message.SessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	message.Seq = seq

	if _, err := r.messages.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("%w: failed to insert message: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// ListBySession returns all messages for a session ordered by timestamp
// then sequence number.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "seq", Value: 1},
	})

	cursor, err := r.messages.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list messages: %v", domain.ErrStorageUnavailable, err)
	}
	defer cursor.Close(ctx)

	messages := []domain.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		return nil, fmt.Errorf("%w: failed to decode messages: %v", domain.ErrStorageUnavailable, err)
	}
	return messages, nil
}
