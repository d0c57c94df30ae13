package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specificocean23/ABie-backend/internal/app/domain/user"
	"github.com/specificocean23/ABie-backend/internal/app/services/users"
	"github.com/specificocean23/ABie-backend/internal/app/storage/memory"
)

var validKey = strings.Repeat("4e", 32)

func authHandler(t *testing.T, store *memory.Store) (http.Handler, *string) {
	t.Helper()
	var seenKey string
	mw := NewAuthMiddleware(users.New(store, nil), nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenKey = GetAuthKey(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return mw.Handler(next), &seenKey
}

func TestAuthRejectsMissingOrMalformedToken(t *testing.T) {
	store := memory.New()
	handler, _ := authHandler(t, store)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"short", validKey[:10]},
		{"non-hex", strings.Repeat("zz", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
			if tt.token != "" {
				req.Header.Set(AuthHeader, tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid auth token")
			assert.Equal(t, 0, store.UserCount(), "invalid tokens must not register users")
		})
	}
}

func TestAuthRegistersAndPropagatesKey(t *testing.T) {
	store := memory.New()
	handler, seenKey := authHandler(t, store)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
		req.Header.Set(AuthHeader, validKey)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, validKey, *seenKey)
	assert.Equal(t, 1, store.UserCount(), "repeated requests register exactly once")
}

type failingUserStore struct {
	memory.Store
}

func (f *failingUserStore) TouchUser(context.Context, string) (user.User, error) {
	return user.User{}, errors.New("backend unavailable")
}

func TestAuthStoreFailureIsOpaque(t *testing.T) {
	mw := NewAuthMiddleware(users.New(&failingUserStore{}, nil), nil)
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run when registration fails")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	req.Header.Set(AuthHeader, validKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.NotContains(t, rec.Body.String(), "backend unavailable")
}

func TestGetAuthKeyWithoutAuth(t *testing.T) {
	assert.Equal(t, "", GetAuthKey(context.Background()))
}
