// Package community serves the anonymous community message board.
package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/specificocean23/ABie-backend/internal/app/domain/community"
	"github.com/specificocean23/ABie-backend/internal/app/storage"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

const (
	// DefaultLimit applies when the caller does not supply a limit.
	DefaultLimit = 50
	// MaxLimit caps caller-supplied limits.
	MaxLimit = 200
)

// ErrInvalidMessage reports a message that is empty or too long. The check
// runs before any insert happens.
var ErrInvalidMessage = errors.New("message must be between 1 and 500 characters")

// Service validates and persists anonymous messages.
type Service struct {
	store storage.CommunityStore
	log   *logger.Logger
}

// New creates a configured community service.
func New(store storage.CommunityStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("community")
	}
	return &Service{store: store, log: log}
}

// Post validates and inserts one anonymous message. There is no profanity or
// abuse filtering; the strict rate limiter is the only write brake.
func (s *Service) Post(ctx context.Context, msg community.Message) (community.Message, error) {
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Message == "" || utf8.RuneCountInString(msg.Message) > community.MaxMessageLength {
		return community.Message{}, ErrInvalidMessage
	}
	if msg.DaysClean < 0 {
		msg.DaysClean = 0
	}

	created, err := s.store.CreateMessage(ctx, msg)
	if err != nil {
		return community.Message{}, fmt.Errorf("post message: %w", err)
	}
	s.log.WithField("message_id", created.ID).Debug("community message posted")
	return created, nil
}

// List returns the newest messages first, clamped to MaxLimit.
func (s *Service) List(ctx context.Context, limit int) ([]community.Message, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	msgs, err := s.store.ListMessages(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}
