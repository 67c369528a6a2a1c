// ABOUTME: API key guard deriving an owner identity from a caller credential
// ABOUTME: Distinguishes server misconfiguration from missing/invalid keys

package auth

import (
	"errors"
	"log/slog"
)

// Guard errors
var (
	// ErrNotConfigured means the server has no expected API key set.
	// This is a deployment problem, not a caller problem.
	ErrNotConfigured = errors.New("API key not configured on server")

	// ErrMissingKey means the request supplied no API key.
	ErrMissingKey = errors.New("API key required")

	// ErrInvalidKey means the supplied API key does not match the configured one.
	ErrInvalidKey = errors.New("invalid API key")
)

// Guard validates caller-supplied API keys against the single configured key.
// On success the key itself is the opaque owner identity used for all
// ownership checks.
type Guard struct {
	key    string
	logger *slog.Logger
}

// NewGuard creates a guard for the configured API key. An empty key is
// allowed; Verify then fails with ErrNotConfigured until one is set.
func NewGuard(key string, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		key:    key,
		logger: logger.With("component", "auth"),
	}
}

// Verify checks a request-supplied API key and returns the owner identity
// (the key verbatim) on success.
func (g *Guard) Verify(supplied string) (string, error) {
	if g.key == "" {
		g.logger.Error("API key validation cannot proceed, no key configured")
		return "", ErrNotConfigured
	}
	if supplied == "" {
		g.logger.Warn("API key missing from request")
		return "", ErrMissingKey
	}
	if supplied != g.key {
		g.logger.Warn("invalid API key presented")
		return "", ErrInvalidKey
	}
	return supplied, nil
}
