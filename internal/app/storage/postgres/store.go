package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/specificocean23/ABie-backend/internal/app/domain/challenge"
	"github.com/specificocean23/ABie-backend/internal/app/domain/community"
	"github.com/specificocean23/ABie-backend/internal/app/domain/craving"
	"github.com/specificocean23/ABie-backend/internal/app/domain/progress"
	"github.com/specificocean23/ABie-backend/internal/app/domain/user"
	"github.com/specificocean23/ABie-backend/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ProgressStore = (*Store)(nil)
var _ storage.CravingStore = (*Store)(nil)
var _ storage.ChallengeStore = (*Store)(nil)
var _ storage.CommunityStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if they do not exist. The DDL is idempotent;
// there is deliberately no versioned migration machinery.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaDDL)
	return err
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
	auth_key_hash  VARCHAR(64) PRIMARY KEY,
	created_at     TIMESTAMPTZ NOT NULL,
	last_active_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS progress (
	user_hash        VARCHAR(64) PRIMARY KEY REFERENCES users(auth_key_hash) ON DELETE CASCADE,
	start_date       TIMESTAMPTZ NOT NULL,
	goal_days        INTEGER NOT NULL,
	goal_description TEXT NOT NULL DEFAULT '',
	check_ins        JSONB NOT NULL DEFAULT '[]',
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS craving_events (
	id          UUID PRIMARY KEY,
	user_hash   VARCHAR(64) NOT NULL REFERENCES users(auth_key_hash) ON DELETE CASCADE,
	occurred_at TIMESTAMPTZ NOT NULL,
	intensity   INTEGER NOT NULL,
	triggers    TEXT[] NOT NULL DEFAULT '{}',
	notes       TEXT NOT NULL DEFAULT '',
	overcome    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_craving_events_user_time
	ON craving_events (user_hash, occurred_at DESC);

CREATE TABLE IF NOT EXISTS challenge_progress (
	user_hash               VARCHAR(64) PRIMARY KEY REFERENCES users(auth_key_hash) ON DELETE CASCADE,
	xp_points               INTEGER NOT NULL DEFAULT 0,
	current_challenge_index INTEGER NOT NULL DEFAULT 0,
	last_skip_time          TIMESTAMPTZ,
	updated_at              TIMESTAMPTZ NOT NULL
);

-- community_messages has no user reference on purpose: messages are anonymous
-- and permanently detached from any identity.
CREATE TABLE IF NOT EXISTS community_messages (
	id         UUID PRIMARY KEY,
	message    VARCHAR(500) NOT NULL,
	days_clean INTEGER NOT NULL DEFAULT 0,
	emoji      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_community_messages_time
	ON community_messages (created_at DESC);
`

// --- UserStore --------------------------------------------------------------

func (s *Store) TouchUser(ctx context.Context, authKeyHash string) (user.User, error) {
	now := time.Now().UTC()

	var u user.User
	err := s.db.GetContext(ctx, &u, `
		INSERT INTO users (auth_key_hash, created_at, last_active_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (auth_key_hash)
		DO UPDATE SET last_active_at = EXCLUDED.last_active_at
		RETURNING auth_key_hash, created_at, last_active_at
	`, authKeyHash, now)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// --- ProgressStore ----------------------------------------------------------

func (s *Store) UpsertProgress(ctx context.Context, p progress.Progress) (progress.Progress, error) {
	p.UpdatedAt = time.Now().UTC()

	checkIns, err := marshalCheckIns(p.CheckIns)
	if err != nil {
		return progress.Progress{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress (user_hash, start_date, goal_days, goal_description, check_ins, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_hash)
		DO UPDATE SET start_date = EXCLUDED.start_date,
			goal_days = EXCLUDED.goal_days,
			goal_description = EXCLUDED.goal_description,
			check_ins = EXCLUDED.check_ins,
			updated_at = EXCLUDED.updated_at
	`, p.UserHash, p.StartDate, p.GoalDays, p.GoalDescription, checkIns, p.UpdatedAt)
	if err != nil {
		return progress.Progress{}, err
	}
	return p, nil
}

func (s *Store) GetProgress(ctx context.Context, userHash string) (progress.Progress, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT user_hash, start_date, goal_days, goal_description, check_ins, updated_at
		FROM progress
		WHERE user_hash = $1
	`, userHash)

	var (
		p           progress.Progress
		checkInsRaw []byte
	)
	if err := row.Scan(&p.UserHash, &p.StartDate, &p.GoalDays, &p.GoalDescription, &checkInsRaw, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.Progress{}, storage.ErrNotFound
		}
		return progress.Progress{}, err
	}
	if len(checkInsRaw) > 0 {
		_ = json.Unmarshal(checkInsRaw, &p.CheckIns)
	}
	return p, nil
}

// --- CravingStore -----------------------------------------------------------

func (s *Store) CreateCravingEvent(ctx context.Context, ev craving.Event) (craving.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO craving_events (id, user_hash, occurred_at, intensity, triggers, notes, overcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ev.ID, ev.UserHash, ev.Timestamp, ev.Intensity, pq.StringArray(ev.Triggers), ev.Notes, ev.Overcome, ev.CreatedAt)
	if err != nil {
		return craving.Event{}, err
	}
	return ev, nil
}

func (s *Store) ListCravingEvents(ctx context.Context, userHash string, limit int) ([]craving.Event, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, user_hash, occurred_at, intensity, triggers, notes, overcome, created_at
		FROM craving_events
		WHERE user_hash = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, userHash, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []craving.Event
	for rows.Next() {
		var (
			ev       craving.Event
			triggers pq.StringArray
		)
		if err := rows.Scan(&ev.ID, &ev.UserHash, &ev.Timestamp, &ev.Intensity, &triggers, &ev.Notes, &ev.Overcome, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Triggers = []string(triggers)
		result = append(result, ev)
	}
	return result, rows.Err()
}

// --- ChallengeStore ---------------------------------------------------------

func (s *Store) UpsertChallengeProgress(ctx context.Context, p challenge.Progress) (challenge.Progress, error) {
	p.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenge_progress (user_hash, xp_points, current_challenge_index, last_skip_time, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_hash)
		DO UPDATE SET xp_points = EXCLUDED.xp_points,
			current_challenge_index = EXCLUDED.current_challenge_index,
			last_skip_time = EXCLUDED.last_skip_time,
			updated_at = EXCLUDED.updated_at
	`, p.UserHash, p.XPPoints, p.CurrentChallengeIndex, toNullTime(p.LastSkipTime), p.UpdatedAt)
	if err != nil {
		return challenge.Progress{}, err
	}
	return p, nil
}

func (s *Store) GetChallengeProgress(ctx context.Context, userHash string) (challenge.Progress, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT user_hash, xp_points, current_challenge_index, last_skip_time, updated_at
		FROM challenge_progress
		WHERE user_hash = $1
	`, userHash)

	var (
		p        challenge.Progress
		lastSkip sql.NullTime
	)
	if err := row.Scan(&p.UserHash, &p.XPPoints, &p.CurrentChallengeIndex, &lastSkip, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return challenge.Progress{}, storage.ErrNotFound
		}
		return challenge.Progress{}, err
	}
	if lastSkip.Valid {
		t := lastSkip.Time.UTC()
		p.LastSkipTime = &t
	}
	return p, nil
}

// --- CommunityStore ---------------------------------------------------------

func (s *Store) CreateMessage(ctx context.Context, msg community.Message) (community.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO community_messages (id, message, days_clean, emoji, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.Message, msg.DaysClean, msg.Emoji, msg.CreatedAt)
	if err != nil {
		return community.Message{}, err
	}
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, limit int) ([]community.Message, error) {
	var result []community.Message
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, message, days_clean, emoji, created_at
		FROM community_messages
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func marshalCheckIns(checkIns []json.RawMessage) ([]byte, error) {
	if checkIns == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(checkIns)
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
