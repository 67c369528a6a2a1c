// ABOUTME: MCP server exposing chat and saved-location tools
// ABOUTME: Composition root wiring the conversation service and store into mcp-go

package mcpserver

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/craftbench/craftchat/internal/chat"
	"github.com/craftbench/craftchat/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all tools registered. The same server
// instance can be served over stdio (the mcp CLI subcommand) or mounted on
// the gateway's HTTP mux via NewHTTPHandler.
func New(svc *chat.Service, st store.Store, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mcp")

	s := server.NewMCPServer(
		"craftchat",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	chatTool := NewChatTool(svc, logger)
	s.AddTool(chatTool.Definition(), chatTool.Handle)

	saveTool := NewSaveLocationTool(st, logger)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	findTool := NewFindLocationTool(st)
	s.AddTool(findTool.Definition(), findTool.Handle)

	listTool := NewListLocationsTool(st)
	s.AddTool(listTool.Definition(), listTool.Handle)

	return s
}

// NewHTTPHandler wraps the MCP server in the streamable HTTP transport so
// it can be mounted on the gateway mux.
func NewHTTPHandler(s *server.MCPServer) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s)
}
