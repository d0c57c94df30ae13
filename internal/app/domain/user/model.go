package user

import "time"

// User is an anonymous account identified solely by the hash of the client's
// auth key. No personal identifier is ever stored; the hash is the primary
// key and the only credential.
type User struct {
	AuthKeyHash  string    `json:"-" db:"auth_key_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	LastActiveAt time.Time `json:"last_active_at" db:"last_active_at"`
}
