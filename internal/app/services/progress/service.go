// Package progress persists the per-user recovery progress snapshot.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specificocean23/ABie-backend/internal/app/domain/progress"
	"github.com/specificocean23/ABie-backend/internal/app/storage"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// ErrInvalid reports a payload that fails validation. The request is
// rejected before any datastore access.
var ErrInvalid = errors.New("invalid progress payload")

// Service wraps the progress store with validation and logging.
type Service struct {
	store storage.ProgressStore
	log   *logger.Logger
}

// New creates a configured progress service.
func New(store storage.ProgressStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("progress")
	}
	return &Service{store: store, log: log}
}

// Save replaces the user's progress row unconditionally. There is no merge
// with prior values and no concurrency check: the last write wins.
func (s *Service) Save(ctx context.Context, userHash string, p progress.Progress) (progress.Progress, error) {
	if userHash == "" {
		return progress.Progress{}, fmt.Errorf("user hash is required")
	}
	if p.GoalDays < 0 {
		return progress.Progress{}, fmt.Errorf("%w: goal_days must not be negative", ErrInvalid)
	}
	if p.StartDate.IsZero() {
		p.StartDate = time.Now().UTC()
	}

	p.UserHash = userHash
	saved, err := s.store.UpsertProgress(ctx, p)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("save progress: %w", err)
	}
	s.log.WithField("check_ins", len(saved.CheckIns)).Debug("progress saved")
	return saved, nil
}

// Load returns the user's progress, or nil when nothing has been saved yet.
// A nil result is not an error.
func (s *Service) Load(ctx context.Context, userHash string) (*progress.Progress, error) {
	p, err := s.store.GetProgress(ctx, userHash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return &p, nil
}
