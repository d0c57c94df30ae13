// Package sync assembles the composite full-sync view of a user's data.
package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/specificocean23/ABie-backend/internal/app/domain/challenge"
	"github.com/specificocean23/ABie-backend/internal/app/domain/craving"
	"github.com/specificocean23/ABie-backend/internal/app/domain/progress"
	"github.com/specificocean23/ABie-backend/internal/app/services/challenges"
	"github.com/specificocean23/ABie-backend/internal/app/services/cravings"
	progresssvc "github.com/specificocean23/ABie-backend/internal/app/services/progress"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// Snapshot is the combined read-only view returned by a full sync. The three
// reads are issued concurrently and are not mutually consistent under
// concurrent writes from the same user.
type Snapshot struct {
	Progress   *progress.Progress  `json:"progress"`
	Cravings   []craving.Event     `json:"cravings"`
	Challenges *challenge.Progress `json:"challenges"`
	SyncedAt   time.Time           `json:"synced_at"`
}

// Service fans out the per-resource reads for a full sync.
type Service struct {
	progress   *progresssvc.Service
	cravings   *cravings.Service
	challenges *challenges.Service
	log        *logger.Logger
}

// New creates a configured sync service.
func New(progressSvc *progresssvc.Service, cravingSvc *cravings.Service, challengeSvc *challenges.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("sync")
	}
	return &Service{
		progress:   progressSvc,
		cravings:   cravingSvc,
		challenges: challengeSvc,
		log:        log,
	}
}

// Full issues the three per-user reads concurrently and waits for all of
// them. If any read fails the whole snapshot fails; there are no partial
// results.
func (s *Service) Full(ctx context.Context, userHash string) (Snapshot, error) {
	if userHash == "" {
		return Snapshot{}, fmt.Errorf("user hash is required")
	}

	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.progress.Load(gctx, userHash)
		if err != nil {
			return err
		}
		snap.Progress = p
		return nil
	})
	g.Go(func() error {
		events, err := s.cravings.List(gctx, userHash, cravings.DefaultLimit)
		if err != nil {
			return err
		}
		if events == nil {
			events = []craving.Event{}
		}
		snap.Cravings = events
		return nil
	})
	g.Go(func() error {
		c, err := s.challenges.Load(gctx, userHash)
		if err != nil {
			return err
		}
		snap.Challenges = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("full sync: %w", err)
	}

	snap.SyncedAt = time.Now().UTC()
	return snap, nil
}
