package community

import "time"

// MaxMessageLength is the upper bound on community message length in runes.
const MaxMessageLength = 500

// Message is an anonymous community board entry. It carries no user
// reference at all, so once posted it is permanently detached from any
// identity and cannot be claimed or deleted by its author.
type Message struct {
	ID        string    `json:"id" db:"id"`
	Message   string    `json:"message" db:"message"`
	DaysClean int       `json:"days_clean" db:"days_clean"`
	Emoji     string    `json:"emoji" db:"emoji"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
