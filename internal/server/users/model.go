package users

import "time"

// Account is a stored identity. Email is the unique, case-sensitive key.
// PasswordHash is a bcrypt hash and never leaves the server.
type Account struct {
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
