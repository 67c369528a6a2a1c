// ABOUTME: Conversation service orchestrating create/list/append operations
// ABOUTME: Enforces ownership and appends message pairs atomically

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/craftbench/craftchat/internal/agent"
	"github.com/craftbench/craftchat/internal/store"
)

// Service errors
var (
	// ErrEmptyMessage is returned for empty or all-whitespace message text.
	ErrEmptyMessage = errors.New("message cannot be empty or consist only of whitespace")

	// ErrNotFound is returned when the conversation does not exist or belongs
	// to a different owner. The two cases are deliberately indistinguishable
	// so callers cannot probe for conversations they do not own.
	ErrNotFound = errors.New("conversation not found")

	// ErrAgentUnavailable is returned when no responder is configured.
	ErrAgentUnavailable = errors.New("AI service is not available")

	// ErrGeneration wraps responder failures. The wrapped detail is logged
	// but never surfaced to callers.
	ErrGeneration = errors.New("generating reply")
)

// CreateRequest carries the optional fields for a new conversation.
type CreateRequest struct {
	Topic          string
	PlayerUUID     string
	PlayerUsername string
}

// Service orchestrates conversation operations. All collaborators are
// explicit dependencies constructed once at process start; the responder
// may be nil when no LLM is configured.
type Service struct {
	store     store.Store
	responder agent.Responder
	logger    *slog.Logger
}

// New creates a conversation service.
func New(st store.Store, responder agent.Responder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		responder: responder,
		logger:    logger.With("component", "chat"),
	}
}

// CreateConversation creates a conversation owned by the caller.
func (s *Service) CreateConversation(ctx context.Context, owner string, req CreateRequest) (*store.Conversation, error) {
	conv := &store.Conversation{
		OwnerIdentifier: owner,
		Topic:           req.Topic,
		PlayerUUID:      req.PlayerUUID,
		PlayerUsername:  req.PlayerUsername,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Info("created conversation", "id", conv.ID, "owner", owner)
	return conv, nil
}

// ListConversations returns the caller's conversations, optionally filtered.
// Conversations belonging to other owners are never returned, even when the
// filter fields match.
func (s *Service) ListConversations(ctx context.Context, owner string, filter store.ConversationFilter) ([]*store.Conversation, error) {
	conversations, err := s.store.ListConversations(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	s.logger.Debug("listed conversations",
		"owner", owner,
		"count", len(conversations),
		"player_uuid", filter.PlayerUUID,
		"player_username", filter.PlayerUsername,
	)
	return conversations, nil
}

// AppendMessage adds the caller's message to a conversation, obtains the
// assistant's reply, and persists both sides of the exchange atomically.
//
// The user message is staged inside a transaction before the responder is
// invoked, and the commit is deferred until the reply is staged too: a
// responder failure rolls the user message back, so a conversation never
// ends on an unanswered user message.
func (s *Service) AppendMessage(ctx context.Context, conversationID, owner, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading conversation: %w", err)
	}
	if conv.OwnerIdentifier != owner {
		s.logger.Warn("conversation access denied", "id", conversationID)
		return "", ErrNotFound
	}

	if s.responder == nil {
		s.logger.Error("chat request failed, no responder configured", "conversation_id", conversationID)
		return "", ErrAgentUnavailable
	}

	history, err := s.loadHistory(ctx, conversationID)
	if err != nil {
		return "", err
	}

	tx, err := s.store.BeginExchange(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning exchange: %w", err)
	}
	defer tx.Rollback()

	userMsg := &store.Message{
		ConversationID: conversationID,
		Role:           store.RoleUser,
		Content:        text,
	}
	if err := tx.InsertMessage(ctx, userMsg); err != nil {
		return "", fmt.Errorf("staging user message: %w", err)
	}

	reply, err := s.responder.Respond(ctx, text, history)
	if err != nil {
		s.logger.Error("responder failed", "conversation_id", conversationID, "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if reply == nil {
		s.logger.Error("responder returned no reply", "conversation_id", conversationID)
		return "", ErrGeneration
	}

	assistantMsg := &store.Message{
		ConversationID: conversationID,
		Role:           store.RoleAssistant,
		Content:        reply.Text,
	}
	if err := tx.InsertMessage(ctx, assistantMsg); err != nil {
		return "", fmt.Errorf("staging assistant message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing exchange: %w", err)
	}

	s.logger.Info("appended exchange",
		"conversation_id", conversationID,
		"history_len", len(history),
	)
	return reply.Text, nil
}

// Chat generates a one-shot reply with no conversation or persistence.
func (s *Service) Chat(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}
	if s.responder == nil {
		return "", ErrAgentUnavailable
	}

	reply, err := s.responder.Respond(ctx, text, nil)
	if err != nil {
		s.logger.Error("responder failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if reply == nil {
		return "", ErrGeneration
	}
	return reply.Text, nil
}

// loadHistory returns the conversation's messages as responder turns,
// ordered oldest first.
func (s *Service) loadHistory(ctx context.Context, conversationID string) ([]agent.Turn, error) {
	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	history := make([]agent.Turn, len(messages))
	for i, msg := range messages {
		history[i] = agent.Turn{Role: msg.Role, Content: msg.Content}
	}
	return history, nil
}
