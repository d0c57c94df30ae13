package craving

import "time"

// Event is an immutable craving log entry. Events are append-only: they are
// never updated after creation and are read back newest first.
type Event struct {
	ID        string    `json:"id" db:"id"`
	UserHash  string    `json:"-" db:"user_hash"`
	Timestamp time.Time `json:"timestamp" db:"occurred_at"`
	Intensity int       `json:"intensity" db:"intensity"`
	Triggers  []string  `json:"triggers" db:"-"`
	Notes     string    `json:"notes" db:"notes"`
	Overcome  bool      `json:"overcome" db:"overcome"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
