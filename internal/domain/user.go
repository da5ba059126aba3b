package domain

import (
	"strings"
	"time"
)

// User represents an authenticated account in the system.
// Every recipe, tag, and ingredient belongs to exactly one user.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Stored hashed, never serialized
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EmailKey returns the canonical form of the user's email used for
// case-insensitive uniqueness.
func (u *User) EmailKey() string {
	return NormalizeEmail(u.Email)
}

// Touch updates the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now().UTC()
}

// NormalizeEmail lowercases and trims an email address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
