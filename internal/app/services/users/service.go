// Package users implements anonymous auto-registration keyed by auth key hash.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/specificocean23/ABie-backend/internal/app/domain/user"
	"github.com/specificocean23/ABie-backend/internal/app/storage"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// KeyHashLength is the required length of an auth key hash: a 256-bit digest
// encoded as hex.
const KeyHashLength = 64

// ErrInvalidKey reports a missing or malformed auth key hash. It is returned
// before any datastore access happens.
var ErrInvalidKey = errors.New("invalid auth key")

// Service performs the idempotent get-or-create of anonymous users.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New creates a configured user service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// ValidKeyHash reports whether key is syntactically acceptable: exactly 64
// hexadecimal characters. Nothing about the key's provenance is verified.
func ValidKeyHash(key string) bool {
	if len(key) != KeyHashLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Touch registers the key hash on first sight and refreshes the user's
// last-active timestamp otherwise. Both paths are idempotent.
func (s *Service) Touch(ctx context.Context, authKeyHash string) (user.User, error) {
	if !ValidKeyHash(authKeyHash) {
		return user.User{}, ErrInvalidKey
	}

	u, err := s.store.TouchUser(ctx, authKeyHash)
	if err != nil {
		return user.User{}, fmt.Errorf("touch user: %w", err)
	}
	return u, nil
}
