// Package memstore is an in-process account.Store used by tests and the
// development server.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goAccount/account"
)

// Store keeps accounts in maps guarded by a single mutex.
type Store struct {
	mu      sync.Mutex
	byID    map[string]*account.Account
	byEmail map[string]string
	byCode  map[string]string
	byReset map[string]string
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		byID:    make(map[string]*account.Account),
		byEmail: make(map[string]string),
		byCode:  make(map[string]string),
		byReset: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(_ context.Context, acct *account.Account) error {
	if acct == nil || acct.ID == "" || acct.Email == "" {
		return account.ErrInvalidRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[acct.ID]; ok {
		return account.ErrSecretCollision
	}
	email := account.NormalizeEmail(acct.Email)
	if _, ok := s.byEmail[email]; ok {
		return account.ErrEmailTaken
	}
	if err := s.checkSecretsLocked(acct); err != nil {
		return err
	}

	now := s.now()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	acct.UpdatedAt = now
	acct.Email = email
	acct.Version = 1

	stored := acct.Clone()
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	s.indexSecretsLocked(nil, stored)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *Store) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[account.NormalizeEmail(email)]
	if !ok {
		return nil, account.ErrNotFound
	}
	return s.getLocked(id)
}

func (s *Store) GetByVerificationCode(_ context.Context, code string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCode[code]
	if !ok || code == "" {
		return nil, account.ErrNotFound
	}
	return s.getLocked(id)
}

func (s *Store) GetByResetDigest(_ context.Context, digest string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byReset[digest]
	if !ok || digest == "" {
		return nil, account.ErrNotFound
	}
	return s.getLocked(id)
}

func (s *Store) Update(_ context.Context, acct *account.Account) error {
	if acct == nil || acct.ID == "" {
		return account.ErrInvalidRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[acct.ID]
	if !ok {
		return account.ErrNotFound
	}
	if current.Version != acct.Version {
		return account.ErrVersionConflict
	}

	email := account.NormalizeEmail(acct.Email)
	if email != current.Email {
		if _, taken := s.byEmail[email]; taken {
			return account.ErrEmailTaken
		}
	}
	if err := s.checkSecretsLocked(acct); err != nil {
		return err
	}

	acct.Email = email
	acct.Version = current.Version + 1
	acct.UpdatedAt = s.now()

	next := acct.Clone()
	if email != current.Email {
		delete(s.byEmail, current.Email)
		s.byEmail[email] = next.ID
	}
	s.indexSecretsLocked(current, next)
	s.byID[next.ID] = next
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[id]
	if !ok {
		return account.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, current.Email)
	s.indexSecretsLocked(current, nil)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len reports the number of stored accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Store) getLocked(id string) (*account.Account, error) {
	acct, ok := s.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return acct.Clone(), nil
}

func (s *Store) checkSecretsLocked(acct *account.Account) error {
	if acct.VerificationCode != "" {
		if owner, ok := s.byCode[acct.VerificationCode]; ok && owner != acct.ID {
			return account.ErrSecretCollision
		}
	}
	if acct.ResetTokenDigest != "" {
		if owner, ok := s.byReset[acct.ResetTokenDigest]; ok && owner != acct.ID {
			return account.ErrSecretCollision
		}
	}
	return nil
}

func (s *Store) indexSecretsLocked(prev, next *account.Account) {
	if prev != nil {
		if prev.VerificationCode != "" {
			delete(s.byCode, prev.VerificationCode)
		}
		if prev.ResetTokenDigest != "" {
			delete(s.byReset, prev.ResetTokenDigest)
		}
	}
	if next != nil {
		if next.VerificationCode != "" {
			s.byCode[next.VerificationCode] = next.ID
		}
		if next.ResetTokenDigest != "" {
			s.byReset[next.ResetTokenDigest] = next.ID
		}
	}
}
