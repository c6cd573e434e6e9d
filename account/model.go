package account

import (
	"strings"
	"time"
)

// Status is the verification state of an account.
type Status uint8

const (
	// StatusUnverified is the initial state after registration.
	StatusUnverified Status = iota
	// StatusVerified is terminal; there is no transition back.
	StatusVerified
)

func (s Status) String() string {
	switch s {
	case StatusUnverified:
		return "unverified"
	case StatusVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// Account is the sole persisted entity.
//
// Time fields use the zero value for "absent".
type Account struct {
	ID             string
	Email          string
	Name           string
	PasswordDigest string
	ProfileImage   string
	Status         Status

	VerificationCode          string
	VerificationCodeExpiresAt time.Time

	FailedLoginCount int
	LockedUntil      time.Time

	ResetTokenDigest    string
	ResetTokenExpiresAt time.Time

	LastLoginAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Version int64
}

// Verified reports whether the account completed email verification.
func (a *Account) Verified() bool {
	return a != nil && a.Status == StatusVerified
}

// Clone returns a copy safe to mutate independently of a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

// NormalizeEmail lower-cases and trims an address. Every lookup and write
// goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
