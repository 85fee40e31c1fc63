package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claimstack/claims-chat/internal/domain"
)

const (
	historyCachePrefix = "history:"
	historyCacheTTL    = 5 * time.Minute
)

// HistoryCache is a read cache for per-session conversation history.
// Every message append must call Invalidate for the session before the
// append is acknowledged, so readers never see a stale list.
type HistoryCache struct {
	client *Client
}

// NewHistoryCache creates a new history cache
func NewHistoryCache(client *Client) *HistoryCache {
	return &HistoryCache{client: client}
}

// Get retrieves cached history for a session. A miss returns (nil, nil).
func (c *HistoryCache) Get(ctx context.Context, sessionID string) ([]domain.Message, error) {
	key := historyCachePrefix + sessionID

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return messages, nil
}

// Set caches history for a session
func (c *HistoryCache) Set(ctx context.Context, sessionID string, messages []domain.Message) error {
	key := historyCachePrefix + sessionID

	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return c.client.rdb.Set(ctx, key, data, historyCacheTTL).Err()
}

// Invalidate removes cached history for a session
func (c *HistoryCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.client.rdb.Del(ctx, historyCachePrefix+sessionID).Err()
}
