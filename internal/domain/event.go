package domain

import "context"

// Event kinds emitted to the broadcast collaborator.
const (
	EventChatUpdate = "chat.update"
	EventJobUpdate  = "job.update"
)

// Event is the notification emitted after a message append or a job
// state transition. SessionID scopes fan-out to clients watching that
// conversation.
type Event struct {
	Kind      string         `json:"event"`
	SessionID string         `json:"session_id,omitempty"`
	JobID     string         `json:"job_id,omitempty"`
	Payload   map[string]any `json:"data"`
}

// Broadcaster relays events to connected clients. Delivery is
// best-effort and at-most-once from the core's perspective; services
// treat Publish failures as log-and-continue.
type Broadcaster interface {
	Publish(ctx context.Context, event Event) error
}
