package models

import (
	"time"
)

// User is an account record. Authorities are resolved from Role when the
// account is created or updated and stored alongside it, so tokens already
// issued keep the authorities they were signed with.
type User struct {
	ID              string
	FirstName       string
	LastName        string
	Username        string
	Email           string
	PasswordHash    string
	Role            string
	Authorities     []string
	Active          bool
	Locked          bool
	LockedAt        *time.Time // Set when the login flow locks the account
	LastLoginAt     *time.Time
	PreviousLoginAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName joins first and last name for display purposes
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
