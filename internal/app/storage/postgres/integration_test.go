package postgres

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/specificocean23/ABie-backend/internal/app/domain/challenge"
	"github.com/specificocean23/ABie-backend/internal/app/domain/community"
	"github.com/specificocean23/ABie-backend/internal/app/domain/craving"
	"github.com/specificocean23/ABie-backend/internal/app/domain/progress"
)

// openTestStore connects to the database named by TEST_POSTGRES_DSN and
// skips the test when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := New(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestIntegrationUserLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	hash := strings.Repeat("8c", 32)

	first, err := store.TouchUser(ctx, hash)
	if err != nil {
		t.Fatalf("first touch: %v", err)
	}

	second, err := store.TouchUser(ctx, hash)
	if err != nil {
		t.Fatalf("second touch: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at changed across touches: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
	if second.LastActiveAt.Before(first.LastActiveAt) {
		t.Fatal("last_active_at went backwards")
	}
}

func TestIntegrationProgressRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	hash := strings.Repeat("9d", 32)

	if _, err := store.TouchUser(ctx, hash); err != nil {
		t.Fatalf("touch: %v", err)
	}

	saved, err := store.UpsertProgress(ctx, progress.Progress{
		UserHash:        hash,
		StartDate:       time.Now().UTC(),
		GoalDays:        30,
		GoalDescription: "one month",
		CheckIns:        []json.RawMessage{json.RawMessage(`{"date":"2026-08-01"}`)},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetProgress(ctx, hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.GoalDays != saved.GoalDays || len(got.CheckIns) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// Replacing save drops prior check-ins.
	if _, err := store.UpsertProgress(ctx, progress.Progress{UserHash: hash, StartDate: time.Now().UTC(), GoalDays: 90}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = store.GetProgress(ctx, hash)
	if err != nil {
		t.Fatalf("get after replace: %v", err)
	}
	if got.GoalDays != 90 || len(got.CheckIns) != 0 {
		t.Fatalf("replace did not take: %+v", got)
	}
}

func TestIntegrationCravingsOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	hash := strings.Repeat("ae", 32)

	if _, err := store.TouchUser(ctx, hash); err != nil {
		t.Fatalf("touch: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		_, err := store.CreateCravingEvent(ctx, craving.Event{
			UserHash:  hash,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Intensity: i + 1,
			Triggers:  []string{"stress", "boredom"},
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	events, err := store.ListCravingEvents(ctx, hash, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Intensity != 3 {
		t.Fatalf("expected newest first, got intensity %d", events[0].Intensity)
	}
	if len(events[0].Triggers) != 2 {
		t.Fatalf("triggers lost in round trip: %v", events[0].Triggers)
	}
}

func TestIntegrationChallengeSkipTime(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	hash := strings.Repeat("bf", 32)

	if _, err := store.TouchUser(ctx, hash); err != nil {
		t.Fatalf("touch: %v", err)
	}

	if _, err := store.UpsertChallengeProgress(ctx, challenge.Progress{UserHash: hash, XPPoints: 10}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := store.GetChallengeProgress(ctx, hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastSkipTime != nil {
		t.Fatalf("expected null skip time, got %v", got.LastSkipTime)
	}

	skip := time.Now().UTC().Truncate(time.Second)
	if _, err := store.UpsertChallengeProgress(ctx, challenge.Progress{UserHash: hash, XPPoints: 20, LastSkipTime: &skip}); err != nil {
		t.Fatalf("upsert with skip: %v", err)
	}
	got, err = store.GetChallengeProgress(ctx, hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastSkipTime == nil || !got.LastSkipTime.Equal(skip) {
		t.Fatalf("skip time mismatch: %v", got.LastSkipTime)
	}
}

func TestIntegrationCommunityMessages(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateMessage(ctx, community.Message{Message: "integration hello", DaysClean: 12, Emoji: "🌱"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	msgs, err := store.ListMessages(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, m := range msgs {
		if m.ID == created.ID {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("created message %s not in listing", created.ID)
	}
}
