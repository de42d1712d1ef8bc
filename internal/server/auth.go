// Package server provides the HTTP API, middleware, and handlers for the
// support agent.
package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Malikxolo/Customer-Support-agent/internal/requestctx"
)

// AuthMiddleware validates X-Support-Key or Authorization: Bearer <key> and
// stores the caller name in the request context. apiKeys maps key -> caller.
// An empty map disables authentication (local development).
func AuthMiddleware(apiKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(apiKeys) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-Support-Key")
			if key == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					key = strings.TrimPrefix(auth, "Bearer ")
				}
			}
			if key == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing API key")
				return
			}

			var caller string
			for k, name := range apiKeys {
				if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
					caller = name
					break
				}
			}
			if caller == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing API key")
				return
			}

			r = r.WithContext(requestctx.WithOwner(r.Context(), caller))
			next.ServeHTTP(w, r)
		})
	}
}
