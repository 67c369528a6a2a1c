// ABOUTME: MCP tool definitions and handlers for chat and saved locations
// ABOUTME: Tool failures are returned as tool-result errors, not transport errors

package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/craftbench/craftchat/internal/chat"
	"github.com/craftbench/craftchat/internal/store"
)

// ChatTool handles the chat MCP tool: a one-shot message to the assistant.
type ChatTool struct {
	svc    *chat.Service
	logger *slog.Logger
}

// NewChatTool creates a ChatTool backed by the conversation service.
func NewChatTool(svc *chat.Service, logger *slog.Logger) *ChatTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatTool{svc: svc, logger: logger}
}

// Definition returns the MCP tool definition for registration.
func (t *ChatTool) Definition() mcp.Tool {
	return mcp.NewTool("chat",
		mcp.WithDescription("Send a message to the AI assistant and receive a response."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The message to send to the assistant."),
		),
	)
}

// Handle processes a chat tool call.
func (t *ChatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := req.GetString("message", "")

	reply, err := t.svc.Chat(ctx, message)
	if errors.Is(err, chat.ErrEmptyMessage) {
		return mcp.NewToolResultError("'message' is required and must not be blank"), nil
	}
	if errors.Is(err, chat.ErrAgentUnavailable) {
		return mcp.NewToolResultError("AI service is not available. Please check server configuration."), nil
	}
	if err != nil {
		t.logger.Error("chat tool failed", "error", err)
		return mcp.NewToolResultError("An error occurred while processing your request."), nil
	}

	return mcp.NewToolResultText(reply), nil
}

// SaveLocationTool handles the save_location MCP tool.
type SaveLocationTool struct {
	store  store.Store
	logger *slog.Logger
}

// NewSaveLocationTool creates a SaveLocationTool backed by the store.
func NewSaveLocationTool(st store.Store, logger *slog.Logger) *SaveLocationTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveLocationTool{store: st, logger: logger}
}

// Definition returns the MCP tool definition for registration.
func (t *SaveLocationTool) Definition() mcp.Tool {
	return mcp.NewTool("save_location",
		mcp.WithDescription("Save a named in-game location with its coordinates. "+
			"Saving an existing name overwrites it."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Unique name for the location.")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("X coordinate.")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Y coordinate.")),
		mcp.WithNumber("z", mcp.Required(), mcp.Description("Z coordinate.")),
		mcp.WithString("dimension", mcp.Description("Dimension, defaults to 'overworld'.")),
		mcp.WithString("description", mcp.Description("Optional free-form note.")),
	)
}

// Handle processes a save_location tool call.
func (t *SaveLocationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	x, err := req.RequireInt("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := req.RequireInt("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	z, err := req.RequireInt("z")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loc := &store.Location{
		Name:        name,
		X:           x,
		Y:           y,
		Z:           z,
		Dimension:   req.GetString("dimension", ""),
		Description: req.GetString("description", ""),
	}
	if err := t.store.SaveLocation(ctx, loc); err != nil {
		t.logger.Error("save_location failed", "name", name, "error", err)
		return mcp.NewToolResultError("failed to save location"), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved location %q at (%d, %d, %d).", name, x, y, z)), nil
}

// FindLocationTool handles the find_location MCP tool.
type FindLocationTool struct {
	store store.Store
}

// NewFindLocationTool creates a FindLocationTool backed by the store.
func NewFindLocationTool(st store.Store) *FindLocationTool {
	return &FindLocationTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *FindLocationTool) Definition() mcp.Tool {
	return mcp.NewTool("find_location",
		mcp.WithDescription("Look up a saved location by name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the location to find.")),
	)
}

// Handle processes a find_location tool call.
func (t *FindLocationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	loc, err := t.store.GetLocation(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no location named %q", name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError("failed to look up location"), nil
	}

	return mcp.NewToolResultText(formatLocation(loc)), nil
}

// ListLocationsTool handles the list_locations MCP tool.
type ListLocationsTool struct {
	store store.Store
}

// NewListLocationsTool creates a ListLocationsTool backed by the store.
func NewListLocationsTool(st store.Store) *ListLocationsTool {
	return &ListLocationsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *ListLocationsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_locations",
		mcp.WithDescription("List all saved locations."),
	)
}

// Handle processes a list_locations tool call.
func (t *ListLocationsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locations, err := t.store.ListLocations(ctx)
	if err != nil {
		return mcp.NewToolResultError("failed to list locations"), nil
	}
	if len(locations) == 0 {
		return mcp.NewToolResultText("No locations saved yet."), nil
	}

	var sb strings.Builder
	for _, loc := range locations {
		sb.WriteString(formatLocation(loc))
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatLocation renders a location as a single human-readable line.
func formatLocation(loc *store.Location) string {
	line := fmt.Sprintf("%s: (%d, %d, %d) in %s", loc.Name, loc.X, loc.Y, loc.Z, loc.Dimension)
	if loc.Description != "" {
		line += " - " + loc.Description
	}
	return line
}
