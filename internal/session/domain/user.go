package domain

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string     // argon2 encoded
	Roles        []string   // Parsed from space-delimited storage
	DisabledAt   *time.Time // nil while the account is active
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the account may be used to sign in.
func (u User) Active() bool { return u.DisabledAt == nil }
