package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents the account.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	MFAEnabled   bool
	MFASecret    string // stored TOTP secret, empty unless MFAEnabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasMFA reports whether the account requires a second factor and holds a
// secret to check it against.
func (u *User) HasMFA() bool {
	return u.MFAEnabled && u.MFASecret != ""
}

// MFAConsistent reports whether the MFA flag and secret agree: both set or
// both cleared.
func (u *User) MFAConsistent() bool {
	return u.MFAEnabled == (u.MFASecret != "")
}
