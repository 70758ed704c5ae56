// Package models holds the persistent and ephemeral entities of the portal.
package models

import "time"

// Account is a registered user. PasswordHash is an argon2id PHC string and
// never leaves the server.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}
