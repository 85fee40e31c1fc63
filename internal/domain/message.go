package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message senders. Sender is free-form (the backend relays whatever the
// boundary layer validated), these are the two the service itself writes.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message represents one immutable chat turn in a session.
// Seq is a per-session sequence number assigned on append; it breaks
// timestamp ties so list order always matches append order.
type Message struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	SessionID string    `json:"session_id" bson:"session_id"`
	Sender    string    `json:"sender" bson:"sender"`
	Text      string    `json:"text" bson:"text"`
	Seq       int64     `json:"seq" bson:"seq"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// MessageRepository defines the interface for the append-only message log.
type MessageRepository interface {
	// Append durably stores a message, assigning Seq as the next
	// sequence number for the session.
	Append(ctx context.Context, message *Message) error

	// ListBySession returns all messages for a session ordered by
	// timestamp then sequence number. An unknown session yields an
	// empty slice, not an error.
	ListBySession(ctx context.Context, sessionID string) ([]Message, error)
}
