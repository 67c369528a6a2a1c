// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides conversation/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeFormat is RFC3339 with a fixed-width nanosecond fraction. Timestamps
// are compared as strings in ORDER BY clauses, so the width must not vary:
// RFC3339Nano drops trailing zeros, which breaks lexical ordering within a
// second. Values are always stored in UTC, keeping the offset constant too.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id               TEXT PRIMARY KEY,
			owner_identifier TEXT NOT NULL,
			topic            TEXT,
			player_uuid      TEXT,
			player_username  TEXT,
			created_at       TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_owner
			ON conversations(owner_identifier);

		CREATE INDEX IF NOT EXISTS idx_conversations_player_uuid
			ON conversations(player_uuid);

		CREATE INDEX IF NOT EXISTS idx_conversations_player_username
			ON conversations(player_username);

		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			timestamp       TEXT NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_timestamp
			ON messages(conversation_id, timestamp);

		CREATE TABLE IF NOT EXISTS locations (
			name        TEXT PRIMARY KEY,
			x           INTEGER NOT NULL,
			y           INTEGER NOT NULL,
			z           INTEGER NOT NULL,
			dimension   TEXT NOT NULL DEFAULT 'overworld',
			description TEXT
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateConversation inserts a new conversation, assigning its ID and
// CreatedAt when unset.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conversations (id, owner_identifier, topic, player_uuid, player_username, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		conv.ID,
		conv.OwnerIdentifier,
		nullString(conv.Topic),
		nullString(conv.PlayerUUID),
		nullString(conv.PlayerUsername),
		conv.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", conv.ID, "owner", conv.OwnerIdentifier)
	return nil
}

// GetConversation retrieves a conversation by ID.
// Returns ErrNotFound if no conversation with the given ID exists.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	query := `
		SELECT id, owner_identifier, topic, player_uuid, player_username, created_at
		FROM conversations
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	conv, err := scanConversation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns all conversations belonging to the owner,
// optionally narrowed by exact match on the filter fields, ordered by
// creation time (insertion order breaking ties).
func (s *SQLiteStore) ListConversations(ctx context.Context, owner string, filter ConversationFilter) ([]*Conversation, error) {
	query := `
		SELECT id, owner_identifier, topic, player_uuid, player_username, created_at
		FROM conversations
		WHERE owner_identifier = ?
	`
	args := []any{owner}

	if filter.PlayerUUID != "" {
		query += " AND player_uuid = ?"
		args = append(args, filter.PlayerUUID)
	}
	if filter.PlayerUsername != "" {
		query += " AND player_username = ?"
		args = append(args, filter.PlayerUsername)
	}
	query += " ORDER BY created_at ASC, rowid ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}
		conversations = append(conversations, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}

	return conversations, nil
}

// ListMessages returns all messages in a conversation ordered by timestamp
// ascending, with insertion order (rowid) breaking ties.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, role, content, timestamp
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var timestampStr string

		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &timestampStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		msg.Timestamp, err = time.Parse(time.RFC3339Nano, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("parsing message timestamp: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// BeginExchange opens a transaction for appending a message pair atomically.
func (s *SQLiteStore) BeginExchange(ctx context.Context) (ExchangeTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &sqliteExchangeTx{tx: tx, logger: s.logger}, nil
}

// sqliteExchangeTx wraps a sql.Tx for message-pair appends.
type sqliteExchangeTx struct {
	tx     *sql.Tx
	logger *slog.Logger
	done   bool
}

// InsertMessage inserts a message within the transaction, assigning its ID
// and Timestamp when unset.
func (t *sqliteExchangeTx) InsertMessage(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO messages (id, conversation_id, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := t.tx.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.Timestamp.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	t.logger.Debug("staged message", "id", msg.ID, "conversation_id", msg.ConversationID, "role", msg.Role)
	return nil
}

func (t *sqliteExchangeTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing exchange: %w", err)
	}
	return nil
}

func (t *sqliteExchangeTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back exchange: %w", err)
	}
	return nil
}

// scanConversation scans a conversation row using the given scan function.
func scanConversation(scan func(dest ...any) error) (*Conversation, error) {
	var conv Conversation
	var topic, playerUUID, playerUsername *string
	var createdAtStr string

	if err := scan(&conv.ID, &conv.OwnerIdentifier, &topic, &playerUUID, &playerUsername, &createdAtStr); err != nil {
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing conversation created_at: %w", err)
	}
	conv.CreatedAt = createdAt

	if topic != nil {
		conv.Topic = *topic
	}
	if playerUUID != nil {
		conv.PlayerUUID = *playerUUID
	}
	if playerUsername != nil {
		conv.PlayerUsername = *playerUsername
	}

	return &conv, nil
}

// nullString converts an empty string to a NULL-able value for storage
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
