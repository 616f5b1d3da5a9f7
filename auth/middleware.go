package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"chat-relay/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFrom retrieves the authenticated identity injected by Middleware.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the identity. Exposed for the
// WebSocket handshake, which authenticates before upgrading.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// BearerToken extracts the credential from the Authorization header, falling
// back to the token query parameter used by WebSocket handshakes.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// Middleware rejects unauthenticated requests with 401 and enriches the
// request context with the verified identity for everything downstream.
func Middleware(manager *TokenManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := manager.Verify(BearerToken(r))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": err.Error(),
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
