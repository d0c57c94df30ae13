package postgres

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/specificocean23/ABie-backend/internal/app/domain/challenge"
	"github.com/specificocean23/ABie-backend/internal/app/domain/craving"
	"github.com/specificocean23/ABie-backend/internal/app/domain/progress"
	"github.com/specificocean23/ABie-backend/internal/app/storage"
)

func progressWithGoal(days int) progress.Progress {
	return progress.Progress{
		UserHash:  testHash,
		StartDate: time.Now().UTC(),
		GoalDays:  days,
	}
}

var testHash = strings.Repeat("7b", 32)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestTouchUserUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(testHash, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"auth_key_hash", "created_at", "last_active_at"}).
			AddRow(testHash, now, now))

	u, err := store.TouchUser(context.Background(), testHash)
	if err != nil {
		t.Fatalf("touch user: %v", err)
	}
	if u.AuthKeyHash != testHash {
		t.Fatalf("unexpected hash %q", u.AuthKeyHash)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetProgressMapsNoRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM progress")).
		WithArgs(testHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_hash", "start_date", "goal_days", "goal_description", "check_ins", "updated_at"}))

	_, err := store.GetProgress(context.Background(), testHash)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProgressDecodesCheckIns(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM progress")).
		WithArgs(testHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_hash", "start_date", "goal_days", "goal_description", "check_ins", "updated_at"}).
			AddRow(testHash, now, 30, "one month", []byte(`[{"date":"2026-08-01"},{"date":"2026-08-02"}]`), now))

	p, err := store.GetProgress(context.Background(), testHash)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if p.GoalDays != 30 {
		t.Fatalf("unexpected goal days %d", p.GoalDays)
	}
	if len(p.CheckIns) != 2 {
		t.Fatalf("expected 2 check-ins, got %d", len(p.CheckIns))
	}
}

func TestUpsertProgressEncodesEmptyCheckIns(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO progress")).
		WithArgs(testHash, sqlmock.AnyArg(), 30, "", []byte("[]"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := store.UpsertProgress(context.Background(), progressWithGoal(30))
	if err != nil {
		t.Fatalf("upsert progress: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateCravingEventAssignsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO craving_events")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ev, err := store.CreateCravingEvent(context.Background(), craving.Event{
		UserHash:  testHash,
		Timestamp: time.Now().UTC(),
		Intensity: 7,
		Triggers:  []string{"stress"},
	})
	if err != nil {
		t.Fatalf("create craving: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if ev.CreatedAt.IsZero() {
		t.Fatal("expected an assigned created_at")
	}
}

func TestGetChallengeProgressNullSkipTime(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM challenge_progress")).
		WithArgs(testHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_hash", "xp_points", "current_challenge_index", "last_skip_time", "updated_at"}).
			AddRow(testHash, 120, 3, nil, now))

	p, err := store.GetChallengeProgress(context.Background(), testHash)
	if err != nil {
		t.Fatalf("get challenge progress: %v", err)
	}
	if p.LastSkipTime != nil {
		t.Fatalf("expected nil skip time, got %v", p.LastSkipTime)
	}
	if p.XPPoints != 120 {
		t.Fatalf("unexpected xp %d", p.XPPoints)
	}
}

func TestUpsertChallengeProgressNullableSkipTime(t *testing.T) {
	store, mock := newMockStore(t)
	skip := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO challenge_progress")).
		WithArgs(testHash, 10, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := store.UpsertChallengeProgress(context.Background(), challenge.Progress{
		UserHash:              testHash,
		XPPoints:              10,
		CurrentChallengeIndex: 1,
		LastSkipTime:          &skip,
	})
	if err != nil {
		t.Fatalf("upsert challenge progress: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetChallengeProgressMapsNoRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM challenge_progress")).
		WithArgs(testHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_hash", "xp_points", "current_challenge_index", "last_skip_time", "updated_at"}))

	_, err := store.GetChallengeProgress(context.Background(), testHash)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
