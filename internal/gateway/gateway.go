// ABOUTME: HTTP gateway wiring the store, guard, limiter, service and MCP endpoint
// ABOUTME: Owns server lifecycle including graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/craftbench/craftchat/internal/agent"
	"github.com/craftbench/craftchat/internal/auth"
	"github.com/craftbench/craftchat/internal/chat"
	"github.com/craftbench/craftchat/internal/config"
	"github.com/craftbench/craftchat/internal/mcpserver"
	"github.com/craftbench/craftchat/internal/ratelimit"
	"github.com/craftbench/craftchat/internal/store"
)

// shutdownTimeout bounds how long graceful shutdown may take.
const shutdownTimeout = 5 * time.Second

// Gateway is the composed HTTP server. All collaborators are constructed
// once in New and passed explicitly; there are no package-level singletons.
type Gateway struct {
	config     *config.Config
	logger     *slog.Logger
	store      store.Store
	service    *chat.Service
	httpServer *http.Server
}

// New creates a gateway from configuration. The responder is omitted when
// no OpenAI API key is configured; chat endpoints then report the service
// unavailable rather than failing at startup.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var responder agent.Responder
	if cfg.Agent.OpenAIAPIKey != "" {
		openaiResponder, err := agent.NewOpenAIResponder(
			cfg.Agent.OpenAIAPIKey,
			cfg.Agent.Model,
			cfg.Agent.SystemPrompt,
			logger,
		)
		if err != nil {
			sqlStore.Close()
			return nil, fmt.Errorf("creating responder: %w", err)
		}
		responder = openaiResponder
	} else {
		logger.Warn("no OpenAI API key configured, chat endpoints will be unavailable")
	}

	service := chat.New(sqlStore, responder, logger)

	g := &Gateway{
		config:  cfg,
		logger:  logger.With("component", "gateway"),
		store:   sqlStore,
		service: service,
	}

	guard := auth.NewGuard(cfg.Auth.APIKey, logger)
	limiter := ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	mcpHandler := mcpserver.NewHTTPHandler(mcpserver.New(service, sqlStore, logger))

	g.httpServer = &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: g.routes(guard, limiter, mcpHandler),
	}

	return g, nil
}

// routes builds the HTTP mux. The guard and limiter wrap every chat route;
// health and MCP stay outside so probes and MCP clients are not counted
// against an owner's window.
func (g *Gateway) routes(guard *auth.Guard, limiter *ratelimit.Limiter, mcpHandler http.Handler) *http.ServeMux {
	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(guard)(ratelimit.Middleware(limiter)(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.Handle("/mcp", mcpHandler)
	mux.Handle("POST /chat", protect(g.handleChat))
	mux.Handle("POST /chats", protect(g.handleCreateConversation))
	mux.Handle("GET /chats", protect(g.handleListConversations))
	mux.Handle("POST /chats/{id}/messages", protect(g.handleAppendMessage))
	mux.Handle("POST /game/command", protect(g.handleGameCommand))
	return mux
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("shutdown signal received")
	case serverErr = <-errCh:
		g.logger.Error("HTTP server failed", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown stops the server with a fresh context and timeout.
// Uses context.Background() intentionally since the run context is already
// canceled by the time shutdown starts.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

// handleHealth reports liveness.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
