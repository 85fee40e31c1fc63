package service

import (
	"context"
	"strings"
	"testing"

	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/claimstack/claims-chat/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEchoResponder_Reply(t *testing.T) {
	ctx := context.Background()

	t.Run("short text echoed whole", func(t *testing.T) {
		reply, err := EchoResponder{}.Reply(ctx, "s1", "my car was hit")
		require.NoError(t, err)
		assert.Equal(t, "Thanks for your message. Our claim assistant is processing: my car was hit", reply)
	})

	t.Run("long text truncated", func(t *testing.T) {
		long := strings.Repeat("a", 500)
		reply, err := EchoResponder{}.Reply(ctx, "s1", long)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(reply, strings.Repeat("a", replyPreviewLimit)))
		assert.NotContains(t, reply, strings.Repeat("a", replyPreviewLimit+1))
	})

	t.Run("truncation respects rune boundaries", func(t *testing.T) {
		long := strings.Repeat("é", 300)
		reply, err := EchoResponder{}.Reply(ctx, "s1", long)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(reply, strings.Repeat("é", replyPreviewLimit)))
	})
}

func TestConversationService_HandleUserMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("appends user and assistant messages", func(t *testing.T) {
		repo := memory.NewMessageRepository()
		svc := NewConversationService(repo, nil, nil, nil)

		reply, err := svc.HandleUserMessage(ctx, "s1", domain.SenderUser, "my car was hit")
		require.NoError(t, err)
		assert.Equal(t, domain.SenderAssistant, reply.Sender)
		assert.Contains(t, reply.Text, "my car was hit")

		history, err := svc.History(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, domain.SenderUser, history[0].Sender)
		assert.Equal(t, "my car was hit", history[0].Text)
		assert.Equal(t, domain.SenderAssistant, history[1].Sender)
	})

	t.Run("empty session rejected", func(t *testing.T) {
		svc := NewConversationService(memory.NewMessageRepository(), nil, nil, nil)
		_, err := svc.HandleUserMessage(ctx, "", domain.SenderUser, "hi")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty sender rejected", func(t *testing.T) {
		svc := NewConversationService(memory.NewMessageRepository(), nil, nil, nil)
		_, err := svc.HandleUserMessage(ctx, "s1", "  ", "hi")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("both messages durable when broadcast fails", func(t *testing.T) {
		repo := memory.NewMessageRepository()
		broadcaster := new(MockBroadcaster)
		broadcaster.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

		svc := NewConversationService(repo, nil, nil, broadcaster)
		_, err := svc.HandleUserMessage(ctx, "s1", domain.SenderUser, "hi")
		require.NoError(t, err)

		history, err := repo.ListBySession(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, history, 2)
		broadcaster.AssertNumberOfCalls(t, "Publish", 2)
	})

	t.Run("user message not appended when store is down", func(t *testing.T) {
		repo := new(MockMessageRepository)
		repo.On("Append", mock.Anything, mock.Anything).Return(domain.ErrStorageUnavailable)

		svc := NewConversationService(repo, nil, nil, nil)
		_, err := svc.HandleUserMessage(ctx, "s1", domain.SenderUser, "hi")
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
		repo.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("custom responder", func(t *testing.T) {
		repo := memory.NewMessageRepository()
		svc := NewConversationService(repo, nil, responderFunc(func(_ context.Context, _, text string) (string, error) {
			return "noted: " + text, nil
		}), nil)

		reply, err := svc.HandleUserMessage(ctx, "s1", domain.SenderUser, "hi")
		require.NoError(t, err)
		assert.Equal(t, "noted: hi", reply.Text)
	})
}

func TestConversationService_Cache(t *testing.T) {
	ctx := context.Background()

	t.Run("append invalidates synchronously", func(t *testing.T) {
		cache := new(MockHistoryCache)
		cache.On("Invalidate", mock.Anything, "s1").Return(nil).Twice()

		svc := NewConversationService(memory.NewMessageRepository(), cache, nil, nil)
		_, err := svc.HandleUserMessage(ctx, "s1", domain.SenderUser, "hi")
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("history served from cache on hit", func(t *testing.T) {
		cached := []domain.Message{{SessionID: "s1", Sender: domain.SenderUser, Text: "hi"}}
		cache := new(MockHistoryCache)
		cache.On("Get", mock.Anything, "s1").Return(cached, nil)

		repo := new(MockMessageRepository)
		svc := NewConversationService(repo, cache, nil, nil)

		history, err := svc.History(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, cached, history)
		repo.AssertNotCalled(t, "ListBySession")
	})

	t.Run("miss falls through and populates cache", func(t *testing.T) {
		cache := new(MockHistoryCache)
		cache.On("Get", mock.Anything, "s1").Return(nil, nil)
		cache.On("Invalidate", mock.Anything, "s1").Return(nil)
		cache.On("Set", mock.Anything, "s1", mock.Anything).Return(nil).Once()

		repo := memory.NewMessageRepository()
		svc := NewConversationService(repo, cache, nil, nil)
		_, err := svc.HandleUserMessage(ctx, "s1", domain.SenderUser, "hi")
		require.NoError(t, err)

		history, err := svc.History(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, history, 2)
		cache.AssertExpectations(t)
	})

	t.Run("invalidate failure does not fail the append", func(t *testing.T) {
		cache := new(MockHistoryCache)
		cache.On("Invalidate", mock.Anything, "s1").Return(assert.AnError)

		svc := NewConversationService(memory.NewMessageRepository(), cache, nil, nil)
		_, err := svc.HandleUserMessage(ctx, "s1", domain.SenderUser, "hi")
		assert.NoError(t, err)
	})
}

// responderFunc adapts a function to the Responder interface.
type responderFunc func(ctx context.Context, sessionID, text string) (string, error)

func (f responderFunc) Reply(ctx context.Context, sessionID, text string) (string, error) {
	return f(ctx, sessionID, text)
}
