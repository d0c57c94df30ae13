// Package cravings records and lists immutable craving events.
package cravings

import (
	"context"
	"fmt"
	"time"

	"github.com/specificocean23/ABie-backend/internal/app/domain/craving"
	"github.com/specificocean23/ABie-backend/internal/app/storage"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

const (
	// DefaultLimit applies when the caller does not supply a limit.
	DefaultLimit = 1000
	// MaxLimit caps caller-supplied limits so a single request cannot pull
	// an unbounded result set.
	MaxLimit = 1000
)

// Service wraps the craving store with defaults and logging.
type Service struct {
	store storage.CravingStore
	log   *logger.Logger
}

// New creates a configured craving service.
func New(store storage.CravingStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("cravings")
	}
	return &Service{store: store, log: log}
}

// Record appends a new craving event. Events are never deduplicated: saving
// the same payload twice produces two rows.
func (s *Service) Record(ctx context.Context, userHash string, ev craving.Event) (craving.Event, error) {
	if userHash == "" {
		return craving.Event{}, fmt.Errorf("user hash is required")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	ev.UserHash = userHash
	created, err := s.store.CreateCravingEvent(ctx, ev)
	if err != nil {
		return craving.Event{}, fmt.Errorf("record craving: %w", err)
	}
	s.log.WithField("event_id", created.ID).Debug("craving recorded")
	return created, nil
}

// List returns the user's events newest first, clamped to MaxLimit.
func (s *Service) List(ctx context.Context, userHash string, limit int) ([]craving.Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	events, err := s.store.ListCravingEvents(ctx, userHash, limit)
	if err != nil {
		return nil, fmt.Errorf("list cravings: %w", err)
	}
	return events, nil
}
