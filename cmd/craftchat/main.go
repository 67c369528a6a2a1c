// ABOUTME: Entry point for the craftchat server
// ABOUTME: Subcommands for serving HTTP, serving MCP over stdio, and setup checks

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/server"

	"github.com/craftbench/craftchat/internal/agent"
	"github.com/craftbench/craftchat/internal/chat"
	"github.com/craftbench/craftchat/internal/config"
	"github.com/craftbench/craftchat/internal/gateway"
	"github.com/craftbench/craftchat/internal/mcpserver"
	"github.com/craftbench/craftchat/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                  __ _       _           _
  ___ _ __ __ _ / _| |_ ___| |__   __ _| |_
 / __| '__/ _' | |_| __/ __| '_ \ / _' | __|
| (__| | | (_| |  _| || (__| | | | (_| | |_
 \___|_|  \__,_|_|  \__\___|_| |_|\__,_|\__|
`

// getConfigPath returns the path to the craftchat config file.
// Priority: CRAFTCHAT_CONFIG env var > XDG_CONFIG_HOME/craftchat/config.yaml > ~/.config/craftchat/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CRAFTCHAT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "craftchat", "config.yaml")
}

// loadConfig loads the config file if it exists, or falls back to defaults
// driven by environment variables so the server can run without a file.
func loadConfig() (*config.Config, string, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config.Default(), "(defaults)", nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, configPath, fmt.Errorf("loading config: %w", err)
	}
	return cfg, configPath, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: craftchat <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve     Start the HTTP server")
		fmt.Println("  mcp       Serve MCP tools over stdio")
		fmt.Println("  init      Create a config file with defaults")
		fmt.Println("  validate  Check that required credentials are configured")
		fmt.Println("  health    Check server health")
		fmt.Println("  version   Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "mcp":
		err = runMCP(ctx)
	case "init":
		err = runInit()
	case "validate":
		err = runValidate()
	case "health":
		err = runHealth(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	logger := setupLogger(cfg.Logging, os.Stdout)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)

	if cfg.Auth.APIKey == "" {
		yellow.Print("    ▶ ")
		fmt.Println("Auth:      no API key set, requests will be rejected")
	}
	if cfg.Agent.OpenAIAPIKey == "" {
		yellow.Print("    ▶ ")
		fmt.Println("Agent:     no OpenAI key set, chat will be unavailable")
	}

	fmt.Println()

	logger.Info("starting craftchat",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"model", cfg.Agent.Model,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

// runMCP serves the MCP tools over stdio. Logs go to stderr so they do not
// corrupt the protocol stream on stdout.
func runMCP(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stderr)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var responder agent.Responder
	if cfg.Agent.OpenAIAPIKey != "" {
		responder, err = agent.NewOpenAIResponder(
			cfg.Agent.OpenAIAPIKey,
			cfg.Agent.Model,
			cfg.Agent.SystemPrompt,
			logger,
		)
		if err != nil {
			return fmt.Errorf("creating responder: %w", err)
		}
	} else {
		logger.Warn("no OpenAI API key configured, chat tool will be unavailable")
	}

	svc := chat.New(st, responder, logger)
	s := mcpserver.New(svc, st, logger)

	go func() {
		<-ctx.Done()
		// ServeStdio returns when stdin closes; the signal context just
		// logs intent here.
		logger.Info("shutdown signal received")
	}()

	return server.ServeStdio(s)
}

func setupLogger(cfg config.LoggingConfig, out *os.File) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = &colorHandler{
			level: level,
			out:   out,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	out    *os.File
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Fprint(h.out, buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		out:    h.out,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		out:    h.out,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// runValidate checks that the credentials the server needs are present,
// without starting anything.
func runValidate() error {
	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Printf("Config: %s\n\n", configPath)

	ok := true
	if cfg.Auth.APIKey != "" {
		green.Println("  ✓ API key configured (auth.api_key / CRAFTCHAT_API_KEY)")
	} else {
		red.Println("  ✗ API key missing: set auth.api_key or CRAFTCHAT_API_KEY")
		ok = false
	}

	if cfg.Agent.OpenAIAPIKey != "" {
		green.Println("  ✓ OpenAI key configured (agent.openai_api_key / OPENAI_API_KEY)")
	} else {
		red.Println("  ✗ OpenAI key missing: set agent.openai_api_key or OPENAI_API_KEY")
		ok = false
	}

	if !ok {
		return fmt.Errorf("configuration incomplete")
	}

	fmt.Println()
	green.Println("All required credentials are configured.")
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	addr := cfg.Server.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	client := resty.New().SetBaseURL("http://" + addr)
	resp, err := client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode())
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists: %s", configPath)
	}

	configContent := `# craftchat configuration
# Generated by craftchat init

server:
  http_addr: ":8000"

database:
  path: "craftchat.db"

auth:
  api_key: "${CRAFTCHAT_API_KEY}"

ratelimit:
  limit: 10
  window: "60s"

agent:
  openai_api_key: "${OPENAI_API_KEY}"
  model: "gpt-4.1"

logging:
  level: "info"
  format: "text"
`

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Config written to %s\n", configPath)
	fmt.Println("\nTo start the server:")
	fmt.Println("  craftchat serve")

	return nil
}
