// ABOUTME: HTTP middleware for API key authentication on API endpoints
// ABOUTME: Extracts the X-API-Key header and adds the owner identity to context

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// HeaderName is the request header carrying the API key.
const HeaderName = "X-API-Key"

// Middleware creates an HTTP middleware that validates the X-API-Key header
// and attaches the derived owner identity to the request context.
//
// A missing or mismatched key yields 401. A server with no key configured
// yields 500, so operators can tell a misconfigured deployment apart from
// unauthorized callers.
func Middleware(guard *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := guard.Verify(r.Header.Get(HeaderName))
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, ErrNotConfigured) {
					status = http.StatusInternalServerError
				}
				writeError(w, status, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

// writeError writes a structured JSON error payload.
func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
