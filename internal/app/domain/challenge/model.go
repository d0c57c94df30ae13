package challenge

import "time"

// Progress is the single per-user gamified challenge state. Like recovery
// progress it is upserted wholesale with last-write-wins semantics.
type Progress struct {
	UserHash              string     `json:"-" db:"user_hash"`
	XPPoints              int        `json:"xp_points" db:"xp_points"`
	CurrentChallengeIndex int        `json:"current_challenge_index" db:"current_challenge_index"`
	LastSkipTime          *time.Time `json:"last_skip_time" db:"last_skip_time"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}
