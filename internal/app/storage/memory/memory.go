package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/specificocean23/ABie-backend/internal/app/domain/challenge"
	"github.com/specificocean23/ABie-backend/internal/app/domain/community"
	"github.com/specificocean23/ABie-backend/internal/app/domain/craving"
	"github.com/specificocean23/ABie-backend/internal/app/domain/progress"
	"github.com/specificocean23/ABie-backend/internal/app/domain/user"
	"github.com/specificocean23/ABie-backend/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu         sync.RWMutex
	users      map[string]user.User
	progress   map[string]progress.Progress
	challenges map[string]challenge.Progress
	cravings   map[string][]craving.Event
	messages   []community.Message
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ProgressStore = (*Store)(nil)
var _ storage.CravingStore = (*Store)(nil)
var _ storage.ChallengeStore = (*Store)(nil)
var _ storage.CommunityStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:      make(map[string]user.User),
		progress:   make(map[string]progress.Progress),
		challenges: make(map[string]challenge.Progress),
		cravings:   make(map[string][]craving.Event),
	}
}

// UserStore implementation ----------------------------------------------------

func (s *Store) TouchUser(_ context.Context, authKeyHash string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	u, ok := s.users[authKeyHash]
	if !ok {
		u = user.User{AuthKeyHash: authKeyHash, CreatedAt: now}
	}
	u.LastActiveAt = now
	s.users[authKeyHash] = u
	return u, nil
}

// UserCount reports the number of registered users. Test helper.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// ProgressStore implementation ------------------------------------------------

func (s *Store) UpsertProgress(_ context.Context, p progress.Progress) (progress.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = time.Now().UTC()
	p.CheckIns = cloneCheckIns(p.CheckIns)
	s.progress[p.UserHash] = p
	return p, nil
}

func (s *Store) GetProgress(_ context.Context, userHash string) (progress.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[userHash]
	if !ok {
		return progress.Progress{}, storage.ErrNotFound
	}
	p.CheckIns = cloneCheckIns(p.CheckIns)
	return p, nil
}

// CravingStore implementation -------------------------------------------------

func (s *Store) CreateCravingEvent(_ context.Context, ev craving.Event) (craving.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.CreatedAt = time.Now().UTC()
	ev.Triggers = cloneStrings(ev.Triggers)
	s.cravings[ev.UserHash] = append(s.cravings[ev.UserHash], ev)
	return ev, nil
}

func (s *Store) ListCravingEvents(_ context.Context, userHash string, limit int) ([]craving.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]craving.Event, len(s.cravings[userHash]))
	copy(events, s.cravings[userHash])
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	for i := range events {
		events[i].Triggers = cloneStrings(events[i].Triggers)
	}
	return events, nil
}

// ChallengeStore implementation -----------------------------------------------

func (s *Store) UpsertChallengeProgress(_ context.Context, p challenge.Progress) (challenge.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = time.Now().UTC()
	s.challenges[p.UserHash] = p
	return p, nil
}

func (s *Store) GetChallengeProgress(_ context.Context, userHash string) (challenge.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.challenges[userHash]
	if !ok {
		return challenge.Progress{}, storage.ErrNotFound
	}
	return p, nil
}

// CommunityStore implementation -----------------------------------------------

func (s *Store) CreateMessage(_ context.Context, msg community.Message) (community.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *Store) ListMessages(_ context.Context, limit int) ([]community.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make([]community.Message, len(s.messages))
	copy(msgs, s.messages)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneCheckIns(in []json.RawMessage) []json.RawMessage {
	if in == nil {
		return nil
	}
	out := make([]json.RawMessage, len(in))
	for i, raw := range in {
		out[i] = append(json.RawMessage(nil), raw...)
	}
	return out
}
