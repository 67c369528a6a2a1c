// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Covers conversation CRUD, message ordering, and exchange transactions

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestCreateAndGetConversation(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	conv := &Conversation{
		OwnerIdentifier: "owner-key",
		Topic:           "Test Topic",
		PlayerUUID:      "uuid-1",
		PlayerUsername:  "steve",
	}

	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if conv.ID == "" {
		t.Fatal("CreateConversation did not assign an ID")
	}
	if conv.CreatedAt.IsZero() {
		t.Fatal("CreateConversation did not assign CreatedAt")
	}

	got, err := store.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.OwnerIdentifier != "owner-key" {
		t.Errorf("OwnerIdentifier = %q, want %q", got.OwnerIdentifier, "owner-key")
	}
	if got.Topic != "Test Topic" {
		t.Errorf("Topic = %q, want %q", got.Topic, "Test Topic")
	}
	if got.PlayerUUID != "uuid-1" {
		t.Errorf("PlayerUUID = %q, want %q", got.PlayerUUID, "uuid-1")
	}
	if got.PlayerUsername != "steve" {
		t.Errorf("PlayerUsername = %q, want %q", got.PlayerUsername, "steve")
	}
}

func TestCreateConversation_OptionalFieldsEmpty(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	conv := &Conversation{OwnerIdentifier: "owner-key"}

	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	got, err := store.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.Topic != "" || got.PlayerUUID != "" || got.PlayerUsername != "" {
		t.Errorf("optional fields not empty: %+v", got)
	}
}

func TestGetConversation_NotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.GetConversation(context.Background(), "no-such-id")
	if err != ErrNotFound {
		t.Errorf("GetConversation error = %v, want ErrNotFound", err)
	}
}

func TestListConversations_OwnerScoped(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		conv := &Conversation{
			OwnerIdentifier: "owner-a",
			Topic:           fmt.Sprintf("topic-%d", i),
		}
		if err := store.CreateConversation(ctx, conv); err != nil {
			t.Fatalf("CreateConversation failed: %v", err)
		}
	}
	other := &Conversation{OwnerIdentifier: "owner-b", Topic: "other"}
	if err := store.CreateConversation(ctx, other); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	conversations, err := store.ListConversations(ctx, "owner-a", ConversationFilter{})
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(conversations) != 3 {
		t.Fatalf("got %d conversations, want 3", len(conversations))
	}
	for i, conv := range conversations {
		if conv.OwnerIdentifier != "owner-a" {
			t.Errorf("conversation %d belongs to %q", i, conv.OwnerIdentifier)
		}
		if want := fmt.Sprintf("topic-%d", i); conv.Topic != want {
			t.Errorf("conversation %d topic = %q, want %q (creation order)", i, conv.Topic, want)
		}
	}
}

func TestListConversations_Filters(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	matching := &Conversation{
		OwnerIdentifier: "owner-a",
		PlayerUUID:      "uuid-1",
		PlayerUsername:  "steve",
	}
	if err := store.CreateConversation(ctx, matching); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	nonMatching := &Conversation{
		OwnerIdentifier: "owner-a",
		PlayerUUID:      "uuid-2",
		PlayerUsername:  "alex",
	}
	if err := store.CreateConversation(ctx, nonMatching); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	// Same player as matching, but a different owner: must never appear.
	otherOwner := &Conversation{
		OwnerIdentifier: "owner-b",
		PlayerUUID:      "uuid-1",
		PlayerUsername:  "steve",
	}
	if err := store.CreateConversation(ctx, otherOwner); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	byUUID, err := store.ListConversations(ctx, "owner-a", ConversationFilter{PlayerUUID: "uuid-1"})
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(byUUID) != 1 || byUUID[0].ID != matching.ID {
		t.Errorf("uuid filter returned %d conversations, want the matching one", len(byUUID))
	}

	byUsername, err := store.ListConversations(ctx, "owner-a", ConversationFilter{PlayerUsername: "steve"})
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(byUsername) != 1 || byUsername[0].ID != matching.ID {
		t.Errorf("username filter returned %d conversations, want the matching one", len(byUsername))
	}

	both, err := store.ListConversations(ctx, "owner-a", ConversationFilter{
		PlayerUUID:     "uuid-1",
		PlayerUsername: "alex",
	})
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(both) != 0 {
		t.Errorf("conjunctive filter returned %d conversations, want 0", len(both))
	}
}

func TestExchangeTx_CommitPersistsPair(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	conv := &Conversation{OwnerIdentifier: "owner-key"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	tx, err := store.BeginExchange(ctx)
	if err != nil {
		t.Fatalf("BeginExchange failed: %v", err)
	}
	userMsg := &Message{ConversationID: conv.ID, Role: RoleUser, Content: "Hi AI!"}
	if err := tx.InsertMessage(ctx, userMsg); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}
	assistantMsg := &Message{ConversationID: conv.ID, Role: RoleAssistant, Content: "Hello from AI"}
	if err := tx.InsertMessage(ctx, assistantMsg); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	messages, err := store.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Role != RoleUser || messages[0].Content != "Hi AI!" {
		t.Errorf("first message = %q/%q", messages[0].Role, messages[0].Content)
	}
	if messages[1].Role != RoleAssistant || messages[1].Content != "Hello from AI" {
		t.Errorf("second message = %q/%q", messages[1].Role, messages[1].Content)
	}
}

func TestExchangeTx_RollbackDiscardsPair(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	conv := &Conversation{OwnerIdentifier: "owner-key"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	tx, err := store.BeginExchange(ctx)
	if err != nil {
		t.Fatalf("BeginExchange failed: %v", err)
	}
	userMsg := &Message{ConversationID: conv.ID, Role: RoleUser, Content: "doomed"}
	if err := tx.InsertMessage(ctx, userMsg); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	messages, err := store.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("got %d messages after rollback, want 0", len(messages))
	}
}

func TestExchangeTx_RollbackAfterCommitIsNoOp(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	conv := &Conversation{OwnerIdentifier: "owner-key"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	tx, err := store.BeginExchange(ctx)
	if err != nil {
		t.Fatalf("BeginExchange failed: %v", err)
	}
	if err := tx.InsertMessage(ctx, &Message{ConversationID: conv.ID, Role: RoleUser, Content: "kept"}); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback after Commit returned error: %v", err)
	}

	messages, err := store.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Errorf("got %d messages, want 1", len(messages))
	}
}

func TestListMessages_OrderedByTimestamp(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	conv := &Conversation{OwnerIdentifier: "owner-key"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tx, err := store.BeginExchange(ctx)
	if err != nil {
		t.Fatalf("BeginExchange failed: %v", err)
	}
	// Insert out of timestamp order to verify the sort.
	for i, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
		msg := &Message{
			ConversationID: conv.ID,
			Role:           RoleUser,
			Content:        fmt.Sprintf("msg-%d", i),
			Timestamp:      base.Add(offset),
		}
		if err := tx.InsertMessage(ctx, msg); err != nil {
			t.Fatalf("InsertMessage failed: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	messages, err := store.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	want := []string{"msg-1", "msg-2", "msg-0"}
	for i, msg := range messages {
		if msg.Content != want[i] {
			t.Errorf("message %d = %q, want %q", i, msg.Content, want[i])
		}
	}
}

func TestListMessages_SecondBoundarySortsBeforeFraction(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	conv := &Conversation{OwnerIdentifier: "owner-key"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	// A timestamp landing exactly on a second boundary must still sort
	// before fractional timestamps in the same second.
	boundary := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tx, err := store.BeginExchange(ctx)
	if err != nil {
		t.Fatalf("BeginExchange failed: %v", err)
	}
	later := &Message{
		ConversationID: conv.ID,
		Role:           RoleUser,
		Content:        "second",
		Timestamp:      boundary.Add(500 * time.Millisecond),
	}
	if err := tx.InsertMessage(ctx, later); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}
	first := &Message{
		ConversationID: conv.ID,
		Role:           RoleUser,
		Content:        "first",
		Timestamp:      boundary,
	}
	if err := tx.InsertMessage(ctx, first); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	messages, err := store.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	want := []string{"first", "second"}
	if len(messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(messages), len(want))
	}
	for i, msg := range messages {
		if msg.Content != want[i] {
			t.Errorf("message %d = %q, want %q", i, msg.Content, want[i])
		}
	}
}

func TestListMessages_TimestampTiesKeepInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	conv := &Conversation{OwnerIdentifier: "owner-key"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tx, err := store.BeginExchange(ctx)
	if err != nil {
		t.Fatalf("BeginExchange failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		msg := &Message{
			ConversationID: conv.ID,
			Role:           RoleUser,
			Content:        fmt.Sprintf("tied-%d", i),
			Timestamp:      ts,
		}
		if err := tx.InsertMessage(ctx, msg); err != nil {
			t.Fatalf("InsertMessage failed: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	messages, err := store.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	for i, msg := range messages {
		if want := fmt.Sprintf("tied-%d", i); msg.Content != want {
			t.Errorf("message %d = %q, want %q (insertion order)", i, msg.Content, want)
		}
	}
}
