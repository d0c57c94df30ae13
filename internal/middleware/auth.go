// Package middleware provides HTTP middleware for the sync API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/specificocean23/ABie-backend/internal/app/services/users"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// AuthHeader is the request header carrying the client's auth key hash.
const AuthHeader = "X-Auth-Token"

type contextKey string

const authKeyContextKey contextKey = "auth_key_hash"

// AuthMiddleware gates requests on a syntactically valid auth key hash and
// auto-registers unseen keys. The key's provenance is never verified: any
// 64-character hex string authenticates.
type AuthMiddleware struct {
	users  *users.Service
	logger *logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(userSvc *users.Service, log *logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &AuthMiddleware{users: userSvc, logger: log}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(AuthHeader)
		if !users.ValidKeyHash(key) {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid auth token")
			return
		}

		// Idempotent get-or-create: first sight registers the user,
		// every later call refreshes last_active_at.
		if _, err := m.users.Touch(r.Context(), key); err != nil {
			m.logger.WithError(err).WithFields(map[string]interface{}{
				"path":   r.URL.Path,
				"method": r.Method,
			}).Error("user registration failed")
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), authKeyContextKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAuthKey extracts the authenticated key hash from the context. It returns
// an empty string for unauthenticated requests.
func GetAuthKey(ctx context.Context) string {
	key, _ := ctx.Value(authKeyContextKey).(string)
	return key
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
