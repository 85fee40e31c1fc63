// Package memory provides in-process implementations of the storage
// repositories, used by tests and local development without backing
// services.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/claimstack/claims-chat/internal/domain"
)

// MessageRepository is an in-memory domain.MessageRepository.
type MessageRepository struct {
	mu       sync.RWMutex
	messages map[string][]domain.Message
	seq      map[string]int64
}

// NewMessageRepository creates an empty in-memory message log.
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		messages: make(map[string][]domain.Message),
		seq:      make(map[string]int64),
	}
}

func (r *MessageRepository) Append(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq[message.SessionID]++
	message.Seq = r.seq[message.SessionID]
	r.messages[message.SessionID] = append(r.messages[message.SessionID], *message)
	return nil
}

func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.messages[sessionID]
	messages := make([]domain.Message, len(stored))
	copy(messages, stored)

	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].Seq < messages[j].Seq
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}
