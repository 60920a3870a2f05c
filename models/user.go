package models

import "time"

// User represents an account used for authentication. A user's records
// are scoped to its UserID server-side, so cross-account interference is
// structurally impossible.
type User struct {
	// UserID is the internal unique identifier of the account.
	// Persistence-layer only; never serialized.
	UserID int64 `json:"-"`

	// Login is the unique login identifier, used during authentication.
	Login string `json:"login"`

	// Password carries the plaintext password on register/login requests
	// only. The server stores a bcrypt hash, never this value.
	Password string `json:"password,omitempty"`

	// PasswordHash is the stored bcrypt digest. Persistence-layer only.
	PasswordHash string `json:"-"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table associated with the User model.
func (u User) TableName() string {
	return "users"
}
