package storage

import (
	"context"
	"errors"

	"github.com/specificocean23/ABie-backend/internal/app/domain/challenge"
	"github.com/specificocean23/ABie-backend/internal/app/domain/community"
	"github.com/specificocean23/ABie-backend/internal/app/domain/craving"
	"github.com/specificocean23/ABie-backend/internal/app/domain/progress"
	"github.com/specificocean23/ABie-backend/internal/app/domain/user"
)

// ErrNotFound reports that a requested row does not exist. Handlers use it to
// distinguish "no data yet" from a datastore failure.
var ErrNotFound = errors.New("not found")

// UserStore persists anonymous user rows keyed by auth key hash.
type UserStore interface {
	// TouchUser inserts the user on first sight and refreshes
	// last_active_at on every subsequent call. It is idempotent.
	TouchUser(ctx context.Context, authKeyHash string) (user.User, error)
}

// ProgressStore persists the single per-user progress row.
type ProgressStore interface {
	UpsertProgress(ctx context.Context, p progress.Progress) (progress.Progress, error)
	GetProgress(ctx context.Context, userHash string) (progress.Progress, error)
}

// CravingStore persists append-only craving events.
type CravingStore interface {
	CreateCravingEvent(ctx context.Context, ev craving.Event) (craving.Event, error)
	// ListCravingEvents returns up to limit events ordered by occurred_at
	// descending.
	ListCravingEvents(ctx context.Context, userHash string, limit int) ([]craving.Event, error)
}

// ChallengeStore persists the single per-user challenge progress row.
type ChallengeStore interface {
	UpsertChallengeProgress(ctx context.Context, p challenge.Progress) (challenge.Progress, error)
	GetChallengeProgress(ctx context.Context, userHash string) (challenge.Progress, error)
}

// CommunityStore persists anonymous community messages.
type CommunityStore interface {
	CreateMessage(ctx context.Context, msg community.Message) (community.Message, error)
	// ListMessages returns up to limit messages ordered by created_at
	// descending.
	ListMessages(ctx context.Context, limit int) ([]community.Message, error)
}
