package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// replyPreviewLimit caps how much of the user's text the default
// responder echoes back.
const replyPreviewLimit = 200

// Responder synthesizes the assistant reply to a user message. The
// claim-assistant logic behind it is pluggable; EchoResponder is the
// demo default.
type Responder interface {
	Reply(ctx context.Context, sessionID, text string) (string, error)
}

// EchoResponder acknowledges the user's message with a truncated echo.
type EchoResponder struct{}

func (EchoResponder) Reply(_ context.Context, _ string, text string) (string, error) {
	runes := []rune(text)
	if len(runes) > replyPreviewLimit {
		runes = runes[:replyPreviewLimit]
	}
	return "Thanks for your message. Our claim assistant is processing: " + string(runes), nil
}

// HistoryCache is the optional read cache for session history. It must
// be invalidated synchronously on every append; implementations treat a
// miss as (nil, nil).
type HistoryCache interface {
	Get(ctx context.Context, sessionID string) ([]domain.Message, error)
	Set(ctx context.Context, sessionID string, messages []domain.Message) error
	Invalidate(ctx context.Context, sessionID string) error
}

// ConversationService is the façade over the message log and the job
// state machine that the API layer talks to for chat.
type ConversationService struct {
	messageRepo domain.MessageRepository
	cache       HistoryCache
	responder   Responder
	broadcaster domain.Broadcaster
}

// NewConversationService creates a new conversation service. cache and
// broadcaster may be nil.
func NewConversationService(messageRepo domain.MessageRepository, cache HistoryCache, responder Responder, broadcaster domain.Broadcaster) *ConversationService {
	if responder == nil {
		responder = EchoResponder{}
	}
	return &ConversationService{
		messageRepo: messageRepo,
		cache:       cache,
		responder:   responder,
		broadcaster: broadcaster,
	}
}

// HandleUserMessage appends the user's message, synthesizes a reply,
// appends it as an assistant message, and returns the reply. Both
// appends are durable before the call returns; the broadcast to
// connected clients is best-effort and outside that guarantee.
func (s *ConversationService) HandleUserMessage(ctx context.Context, sessionID, sender, text string) (*domain.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(sender) == "" {
		return nil, fmt.Errorf("%w: sender is required", domain.ErrInvalidInput)
	}

	userMsg, err := s.append(ctx, sessionID, sender, text)
	if err != nil {
		return nil, err
	}

	reply, err := s.responder.Reply(ctx, sessionID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize reply: %w", err)
	}

	assistantMsg, err := s.append(ctx, sessionID, domain.SenderAssistant, reply)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, userMsg)
	s.publish(ctx, assistantMsg)

	return assistantMsg, nil
}

// append durably stores one message and synchronously invalidates the
// session's cached history.
func (s *ConversationService) append(ctx context.Context, sessionID, sender, text string) (*domain.Message, error) {
	msg := &domain.Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageRepo.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, sessionID); err != nil {
			// The cache entry still expires by TTL; the write itself
			// is durable.
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to invalidate history cache")
		}
	}
	return msg, nil
}

// History returns the session's messages in append order, serving from
// the read cache when possible.
func (s *ConversationService) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, sessionID); err == nil && cached != nil {
			return cached, nil
		}
	}

	messages, err := s.messageRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if s.cache != nil && len(messages) > 0 {
		if err := s.cache.Set(ctx, sessionID, messages); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to cache history")
		}
	}
	return messages, nil
}

func (s *ConversationService) publish(ctx context.Context, msg *domain.Message) {
	if s.broadcaster == nil {
		return
	}
	event := domain.Event{
		Kind:      domain.EventChatUpdate,
		SessionID: msg.SessionID,
		Payload: map[string]any{
			"session_id": msg.SessionID,
			"sender":     msg.Sender,
			"text":       msg.Text,
		},
	}
	if err := s.broadcaster.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("session_id", msg.SessionID).Msg("Failed to broadcast chat update")
	}
}
