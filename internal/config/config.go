// ABOUTME: Configuration loading and parsing for craftchat
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt is used when agent.system_prompt is not configured.
const DefaultSystemPrompt = "You are a helpful and friendly game assistant. " +
	"Answer questions about gameplay, items, crafting recipes, and mechanics " +
	"to make playing more enjoyable."

// Config represents the complete craftchat configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Agent     AgentConfig     `yaml:"agent"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds the API key clients must present.
// An empty key is not a startup error: requests fail with a
// server-misconfigured status until the key is set.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// RateLimitConfig holds fixed-window rate limiter configuration
type RateLimitConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	WindowRaw string `yaml:"window"`
}

// AgentConfig holds settings for the LLM responder
type AgentConfig struct {
	OpenAIAPIKey string `yaml:"openai_api_key"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with all defaults applied and no API keys set
// beyond what the environment provides.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment
// variable values. If the environment variable is not set, it is replaced with
// an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.RateLimit.WindowRaw != "" {
		d, err := time.ParseDuration(cfg.RateLimit.WindowRaw)
		if err != nil {
			return fmt.Errorf("ratelimit.window: %w", err)
		}
		cfg.RateLimit.Window = d
	}
	return nil
}

// applyDefaults fills in zero-valued fields. API keys fall back to the
// CRAFTCHAT_API_KEY and OPENAI_API_KEY environment variables when not set
// in the file.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8000"
	}
	if c.Database.Path == "" {
		c.Database.Path = "craftchat.db"
	}
	if c.Auth.APIKey == "" {
		c.Auth.APIKey = os.Getenv("CRAFTCHAT_API_KEY")
	}
	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = 10
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = 60 * time.Second
	}
	if c.Agent.OpenAIAPIKey == "" {
		c.Agent.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Agent.Model == "" {
		c.Agent.Model = "gpt-4.1"
	}
	if c.Agent.SystemPrompt == "" {
		c.Agent.SystemPrompt = DefaultSystemPrompt
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.RateLimit.Limit < 1 {
		return fmt.Errorf("ratelimit.limit must be at least 1")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.window must be positive")
	}
	return nil
}
