// Package challenges persists the per-user gamified challenge state.
package challenges

import (
	"context"
	"errors"
	"fmt"

	"github.com/specificocean23/ABie-backend/internal/app/domain/challenge"
	"github.com/specificocean23/ABie-backend/internal/app/storage"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// ErrInvalid reports a payload that fails validation. The request is
// rejected before any datastore access.
var ErrInvalid = errors.New("invalid challenge payload")

// Service wraps the challenge store with validation and logging.
type Service struct {
	store storage.ChallengeStore
	log   *logger.Logger
}

// New creates a configured challenge service.
func New(store storage.ChallengeStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("challenges")
	}
	return &Service{store: store, log: log}
}

// Save replaces the user's challenge state unconditionally, the same
// last-write-wins semantics as progress saves.
func (s *Service) Save(ctx context.Context, userHash string, p challenge.Progress) (challenge.Progress, error) {
	if userHash == "" {
		return challenge.Progress{}, fmt.Errorf("user hash is required")
	}
	if p.XPPoints < 0 {
		return challenge.Progress{}, fmt.Errorf("%w: xp_points must not be negative", ErrInvalid)
	}
	if p.CurrentChallengeIndex < 0 {
		return challenge.Progress{}, fmt.Errorf("%w: current_challenge_index must not be negative", ErrInvalid)
	}

	p.UserHash = userHash
	saved, err := s.store.UpsertChallengeProgress(ctx, p)
	if err != nil {
		return challenge.Progress{}, fmt.Errorf("save challenge progress: %w", err)
	}
	return saved, nil
}

// Load returns the user's challenge state, or nil when nothing has been
// saved yet. A nil result is not an error.
func (s *Service) Load(ctx context.Context, userHash string) (*challenge.Progress, error) {
	p, err := s.store.GetChallengeProgress(ctx, userHash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load challenge progress: %w", err)
	}
	return &p, nil
}
