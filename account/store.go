package account

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by lookups that match no record.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when a normalized email is already registered.
	ErrEmailTaken = errors.New("account email already registered")
	// ErrSecretCollision is returned when an account ID, an outstanding
	// verification code or a reset digest is already indexed.
	ErrSecretCollision = errors.New("account secret already indexed")
	// ErrVersionConflict is returned by Update when the stored version moved.
	ErrVersionConflict = errors.New("account version conflict")
	// ErrInvalidRecord is returned for records missing an ID or email.
	ErrInvalidRecord = errors.New("account record invalid")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("account store unavailable")
)

// Store persists accounts.
//
// Create assigns Version 1 and CreatedAt/UpdatedAt when they are zero.
// Update requires acct.Version to equal the stored version; on success the
// stored record and acct both carry Version+1 and a fresh UpdatedAt.
type Store interface {
	Create(ctx context.Context, acct *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByVerificationCode(ctx context.Context, code string) (*Account, error)
	GetByResetDigest(ctx context.Context, digest string) (*Account, error)
	Update(ctx context.Context, acct *Account) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
