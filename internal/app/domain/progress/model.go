package progress

import (
	"encoding/json"
	"time"
)

// Progress is the single per-user recovery progress snapshot. Saves replace
// the whole row; the last write wins and no history is retained.
type Progress struct {
	UserHash        string            `json:"-" db:"user_hash"`
	StartDate       time.Time         `json:"start_date" db:"start_date"`
	GoalDays        int               `json:"goal_days" db:"goal_days"`
	GoalDescription string            `json:"goal_description" db:"goal_description"`
	CheckIns        []json.RawMessage `json:"check_ins" db:"-"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
