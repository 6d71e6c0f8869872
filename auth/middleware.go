package auth

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// TokenFromRequest reads the credential from the Authorization header
// or, for browser websocket handshakes which cannot set headers, from ?token=.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// Authenticate resolves the caller of r. It never consults anything
// the client could forge beyond the signed token itself.
func Authenticate(verifier contract.ICredentialVerifier, r *http.Request) (domain.UserID, error) {
	return verifier.Verify(TokenFromRequest(r))
}

// Middleware rejects unauthenticated requests with 401 and injects the user id
// into the request context for downstream handlers.
func Middleware(verifier contract.ICredentialVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := Authenticate(verifier, r)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserIDKey, userID)))
		})
	}
}

// UserIDFromContext returns the id injected by Middleware.
func UserIDFromContext(ctx context.Context) (domain.UserID, bool) {
	id, ok := ctx.Value(UserIDKey).(domain.UserID)
	return id, ok
}
