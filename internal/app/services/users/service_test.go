package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/specificocean23/ABie-backend/internal/app/storage/memory"
)

func TestValidKeyHash(t *testing.T) {
	valid := strings.Repeat("ab12", 16)

	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{"valid-lower", valid, true},
		{"valid-upper", strings.ToUpper(valid), true},
		{"empty", "", false},
		{"too-short", valid[:63], false},
		{"too-long", valid + "a", false},
		{"non-hex", strings.Repeat("zz12", 16), false},
		{"whitespace", valid[:63] + " ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidKeyHash(tt.key); got != tt.ok {
				t.Fatalf("ValidKeyHash(%q) = %v, want %v", tt.key, got, tt.ok)
			}
		})
	}
}

func TestTouchRegistersOnce(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	key := strings.Repeat("0f", 32)

	first, err := svc.Touch(context.Background(), key)
	if err != nil {
		t.Fatalf("first touch: %v", err)
	}
	if first.AuthKeyHash != key {
		t.Fatalf("unexpected hash %q", first.AuthKeyHash)
	}

	second, err := svc.Touch(context.Background(), key)
	if err != nil {
		t.Fatalf("second touch: %v", err)
	}
	if store.UserCount() != 1 {
		t.Fatalf("expected 1 user after repeated touches, got %d", store.UserCount())
	}
	if second.CreatedAt != first.CreatedAt {
		t.Fatalf("created_at changed on repeat touch")
	}
	if second.LastActiveAt.Before(first.LastActiveAt) {
		t.Fatalf("last_active_at went backwards")
	}
}

func TestTouchRejectsInvalidKey(t *testing.T) {
	svc := New(memory.New(), nil)

	if _, err := svc.Touch(context.Background(), "not-a-key"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
