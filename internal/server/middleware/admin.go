// Package middleware provides HTTP middleware for admin authorization.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// actorKey is the context key for the admin actor name.
const actorKey ContextKey = "actor"

// ActorHeader names the admin performing a change, recorded on weight sets.
const ActorHeader = "X-Admin-Actor"

// RequireAdminToken guards admin routes with a static bearer token.
// An empty token disables the check, for local development.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				presented, ok := bearerToken(r)
				if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}

			actor := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actor == "" {
				actor = "admin"
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor returns the admin actor stored by RequireAdminToken, or "".
func Actor(r *http.Request) string {
	actor, _ := r.Context().Value(actorKey).(string)
	return actor
}

func bearerToken(r *http.Request) (string, bool) {
	// Handle case-insensitive "Bearer" prefix
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
