package models

import "time"

// User is a registered account.
//
// ResetTokenHash holds the SHA-256 hex digest of the outstanding
// password-reset token, never the token itself. It is empty, and
// ResetExpires is zero, when no reset is pending.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	IsAdmin      bool

	ResetTokenHash string
	ResetExpires   time.Time

	CreatedAt time.Time
}

// Snapshot returns the author copy stored on records the user creates.
func (u *User) Snapshot() Author {
	return Author{ID: u.ID, Username: u.Username}
}

// ResetValidAt reports whether a stored reset token is still usable at now.
func (u *User) ResetValidAt(now time.Time) bool {
	return u.ResetTokenHash != "" && now.Before(u.ResetExpires)
}
