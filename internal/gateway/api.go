// ABOUTME: HTTP API handlers for conversations and chat
// ABOUTME: Translates service errors to the external status codes

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/craftbench/craftchat/internal/auth"
	"github.com/craftbench/craftchat/internal/chat"
	"github.com/craftbench/craftchat/internal/store"
)

// NewChatRequest is the JSON request body for POST /chats.
type NewChatRequest struct {
	Topic          string `json:"topic,omitempty"`
	PlayerUUID     string `json:"player_uuid,omitempty"`
	PlayerUsername string `json:"player_username,omitempty"`
}

// ConversationInfo is the public view of a conversation.
type ConversationInfo struct {
	ID             string `json:"id"`
	Topic          string `json:"topic,omitempty"`
	CreatedAt      string `json:"created_at"`
	PlayerUUID     string `json:"player_uuid,omitempty"`
	PlayerUsername string `json:"player_username,omitempty"`
}

// ConversationListResponse is the JSON response for GET /chats.
type ConversationListResponse struct {
	Conversations []ConversationInfo `json:"conversations"`
}

// MessageRequest is the JSON request body for chat and message endpoints.
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageResponse is the JSON response carrying the assistant's reply.
type MessageResponse struct {
	Reply string `json:"reply"`
}

// handleCreateConversation handles POST /chats.
// The owner identity comes from the validated API key; nothing in the body
// influences ownership.
func (g *Gateway) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req NewChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	owner := auth.OwnerFromContext(r.Context())
	conv, err := g.service.CreateConversation(r.Context(), owner, chat.CreateRequest{
		Topic:          req.Topic,
		PlayerUUID:     req.PlayerUUID,
		PlayerUsername: req.PlayerUsername,
	})
	if err != nil {
		g.logger.Error("create conversation failed", "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, conversationInfo(conv))
}

// handleListConversations handles GET /chats with optional player_uuid and
// player_username query filters.
func (g *Gateway) handleListConversations(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	filter := store.ConversationFilter{
		PlayerUUID:     r.URL.Query().Get("player_uuid"),
		PlayerUsername: r.URL.Query().Get("player_username"),
	}

	conversations, err := g.service.ListConversations(r.Context(), owner, filter)
	if err != nil {
		g.logger.Error("list conversations failed", "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := ConversationListResponse{Conversations: make([]ConversationInfo, 0, len(conversations))}
	for _, conv := range conversations {
		resp.Conversations = append(resp.Conversations, conversationInfo(conv))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAppendMessage handles POST /chats/{id}/messages.
func (g *Gateway) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	owner := auth.OwnerFromContext(r.Context())
	reply, err := g.service.AppendMessage(r.Context(), r.PathValue("id"), owner, req.Message)
	if err != nil {
		g.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Reply: reply})
}

// handleChat handles POST /chat: a one-shot exchange with no persistence.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := g.service.Chat(r.Context(), req.Message)
	if err != nil {
		g.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Reply: reply})
}

// writeServiceError maps service errors to external statuses. Validation
// and availability details are caller-actionable and echoed; generation and
// store failures are logged but surfaced generically.
func (g *Gateway) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeErrorDetail(w, http.StatusUnprocessableEntity, chat.ErrEmptyMessage.Error())
	case errors.Is(err, chat.ErrNotFound):
		writeErrorDetail(w, http.StatusNotFound, chat.ErrNotFound.Error())
	case errors.Is(err, chat.ErrAgentUnavailable):
		writeErrorDetail(w, http.StatusServiceUnavailable,
			"AI service is not available. Please check server configuration.")
	case errors.Is(err, chat.ErrGeneration):
		g.logger.Error("generation failed", "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "AI agent failed to produce a response")
	default:
		g.logger.Error("request failed", "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "internal server error")
	}
}

// conversationInfo converts a stored conversation to its public view.
func conversationInfo(conv *store.Conversation) ConversationInfo {
	return ConversationInfo{
		ID:             conv.ID,
		Topic:          conv.Topic,
		CreatedAt:      conv.CreatedAt.UTC().Format(time.RFC3339Nano),
		PlayerUUID:     conv.PlayerUUID,
		PlayerUsername: conv.PlayerUsername,
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeErrorDetail writes a structured JSON error payload.
func writeErrorDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
