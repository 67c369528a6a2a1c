// ABOUTME: Store interface and data types for craftchat persistence
// ABOUTME: Defines Conversation, Message, Location structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Message role constants
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation represents a persistent AI conversation scoped to an owner.
// OwnerIdentifier is the opaque identity derived from the caller's API key;
// only requests presenting the same identity may see or modify the conversation.
type Conversation struct {
	ID              string
	OwnerIdentifier string
	Topic           string // optional display title
	PlayerUUID      string // optional correlation identifier
	PlayerUsername  string // optional correlation identifier
	CreatedAt       time.Time
}

// Message represents a single message within a conversation.
// Messages are immutable once stored and ordered by timestamp,
// with insertion order breaking ties.
type Message struct {
	ID             string
	ConversationID string
	Role           string // "user" or "assistant"
	Content        string
	Timestamp      time.Time
}

// Location represents a saved in-game location.
type Location struct {
	Name        string
	X           int
	Y           int
	Z           int
	Dimension   string
	Description string
}

// ConversationFilter narrows ListConversations by exact match on the
// optional correlation fields. Empty fields are ignored.
type ConversationFilter struct {
	PlayerUUID     string
	PlayerUsername string
}

// ExchangeTx is an open transaction for appending a user/assistant message
// pair atomically. The caller must Commit or Rollback on every exit path;
// Rollback after Commit is a no-op.
type ExchangeTx interface {
	InsertMessage(ctx context.Context, msg *Message) error
	Commit() error
	Rollback() error
}

// Store defines the interface for conversation and message persistence
type Store interface {
	// Conversations
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, owner string, filter ConversationFilter) ([]*Conversation, error)

	// Messages
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)

	// BeginExchange opens a transaction for an atomic message-pair append
	BeginExchange(ctx context.Context) (ExchangeTx, error)

	// Saved locations
	SaveLocation(ctx context.Context, loc *Location) error
	GetLocation(ctx context.Context, name string) (*Location, error)
	ListLocations(ctx context.Context) ([]*Location, error)

	// Close releases any resources held by the store
	Close() error
}
