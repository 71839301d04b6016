package models

import "time"

// User is a backend account. Passwords are stored as bcrypt hashes;
// the client only ever sees the issued bearer token.
type User struct {
	ID           string    `json:"id"`            // UUID
	Username     string    `json:"username"`      // unique username
	PasswordHash string    `json:"password_hash"` // bcrypt hash
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
