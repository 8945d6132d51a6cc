package domain

import "time"

// User is an account that can sign in with one of the four roles.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	LastAccessAt *time.Time
}
