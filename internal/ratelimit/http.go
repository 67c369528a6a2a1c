// ABOUTME: HTTP middleware applying the fixed-window limiter per owner
// ABOUTME: Must run after auth middleware so the owner identity is in context

package ratelimit

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/craftbench/craftchat/internal/auth"
)

// Middleware creates an HTTP middleware that rate-limits requests by the
// owner identity placed in the context by the auth middleware. Requests
// over the limit get 429 with the limit and window in the detail string.
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := auth.OwnerFromContext(r.Context())

			if err := limiter.Allow(owner, time.Now()); err != nil {
				var limitErr *LimitError
				if errors.As(err, &limitErr) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusTooManyRequests)
					json.NewEncoder(w).Encode(map[string]string{"detail": limitErr.Error()})
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
