package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hqhub/taskbank/internal/domain"
)

type contextKey string

const (
	// ContextKeyUserID is the key for storing the caller's user id in the
	// request context.
	ContextKeyUserID contextKey = "user_id"
)

// identityHeader carries the caller identity asserted by the upstream
// identity provider. The service trusts it; authentication happens before
// traffic reaches us.
const identityHeader = "X-User-ID"

// IdentityMiddleware extracts the caller identity from request headers.
type IdentityMiddleware struct{}

// NewIdentityMiddleware creates a new IdentityMiddleware.
func NewIdentityMiddleware() *IdentityMiddleware {
	return &IdentityMiddleware{}
}

// Identify requires the identity header and adds the user id to the request
// context.
func (m *IdentityMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(identityHeader))
		if userID == "" {
			http.Error(w, "missing identity header", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext retrieves the caller's user id from request context.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok || userID == "" {
		return "", domain.ErrForbidden
	}
	return userID, nil
}
