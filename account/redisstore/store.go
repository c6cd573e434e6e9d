// Package redisstore persists accounts in Redis.
//
// Each account is a JSON document under "<prefix>:id:<id>" with secondary
// index keys for email, outstanding verification code and reset digest.
// Writes run as WATCH/MULTI optimistic transactions and retry on contention.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/account"
	"github.com/redis/go-redis/v9"
)

const (
	recordVersionV1 = 1
	maxRetries      = 4
)

var errContention = errors.New("redis transaction contention")

type record struct {
	V int `json:"v"`

	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	PasswordDigest string `json:"pd"`
	ProfileImage   string `json:"img,omitempty"`
	Status         uint8  `json:"st"`

	VerificationCode          string    `json:"vc,omitempty"`
	VerificationCodeExpiresAt time.Time `json:"vce"`

	FailedLoginCount int       `json:"flc"`
	LockedUntil      time.Time `json:"lu"`

	ResetTokenDigest    string    `json:"rtd,omitempty"`
	ResetTokenExpiresAt time.Time `json:"rte"`

	LastLoginAt time.Time `json:"lla"`
	CreatedAt   time.Time `json:"ca"`
	UpdatedAt   time.Time `json:"ua"`

	Version int64 `json:"ver"`
}

// Store is a Redis-backed account.Store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New returns a Store using prefix for every key ("acct" when empty).
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "acct"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) idKey(id string) string        { return s.prefix + ":id:" + id }
func (s *Store) emailKey(email string) string  { return s.prefix + ":email:" + email }
func (s *Store) codeKey(code string) string    { return s.prefix + ":code:" + code }
func (s *Store) resetKey(digest string) string { return s.prefix + ":reset:" + digest }

func (s *Store) Create(ctx context.Context, acct *account.Account) error {
	if acct == nil || acct.ID == "" || acct.Email == "" {
		return account.ErrInvalidRecord
	}

	email := account.NormalizeEmail(acct.Email)
	idKey := s.idKey(acct.ID)
	emailKey := s.emailKey(email)
	watched := append([]string{idKey, emailKey}, s.secretKeys(acct)...)

	now := s.now()
	next := acct.Clone()
	next.Email = email
	next.Version = 1
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now

	encoded, err := encode(next)
	if err != nil {
		return err
	}

	err = s.withRetry(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, idKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return account.ErrSecretCollision
		}
		if n, err = tx.Exists(ctx, emailKey).Result(); err != nil {
			return err
		}
		if n > 0 {
			return account.ErrEmailTaken
		}
		if err := s.checkSecrets(ctx, tx, next); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, idKey, encoded, 0)
			pipe.Set(ctx, emailKey, next.ID, 0)
			s.indexSecrets(ctx, pipe, nil, next)
			return nil
		})
		return err
	}, watched...)
	if err != nil {
		return err
	}

	*acct = *next
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*account.Account, error) {
	data, err := s.redis.Get(ctx, s.idKey(id)).Bytes()
	if err != nil {
		return nil, mapReadErr(err)
	}
	return decode(data)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.getByIndex(ctx, s.emailKey(account.NormalizeEmail(email)))
}

func (s *Store) GetByVerificationCode(ctx context.Context, code string) (*account.Account, error) {
	if code == "" {
		return nil, account.ErrNotFound
	}
	return s.getByIndex(ctx, s.codeKey(code))
}

func (s *Store) GetByResetDigest(ctx context.Context, digest string) (*account.Account, error) {
	if digest == "" {
		return nil, account.ErrNotFound
	}
	return s.getByIndex(ctx, s.resetKey(digest))
}

func (s *Store) Update(ctx context.Context, acct *account.Account) error {
	if acct == nil || acct.ID == "" {
		return account.ErrInvalidRecord
	}

	idKey := s.idKey(acct.ID)
	email := account.NormalizeEmail(acct.Email)
	watched := append([]string{idKey, s.emailKey(email)}, s.secretKeys(acct)...)

	var next *account.Account
	err := s.withRetry(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, idKey).Bytes()
		if err != nil {
			return mapReadErr(err)
		}
		current, err := decode(data)
		if err != nil {
			return err
		}
		if current.Version != acct.Version {
			return account.ErrVersionConflict
		}

		if email != current.Email {
			owner, err := tx.Get(ctx, s.emailKey(email)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil && owner != acct.ID {
				return account.ErrEmailTaken
			}
		}

		next = acct.Clone()
		next.Email = email
		next.Version = current.Version + 1
		next.UpdatedAt = s.now()
		if err := s.checkSecrets(ctx, tx, next); err != nil {
			return err
		}
		encoded, err := encode(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, idKey, encoded, 0)
			if email != current.Email {
				pipe.Del(ctx, s.emailKey(current.Email))
				pipe.Set(ctx, s.emailKey(email), next.ID, 0)
			}
			s.indexSecrets(ctx, pipe, current, next)
			return nil
		})
		return err
	}, watched...)
	if err != nil {
		return err
	}

	acct.Email = next.Email
	acct.Version = next.Version
	acct.UpdatedAt = next.UpdatedAt
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	idKey := s.idKey(id)
	return s.withRetry(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, idKey).Bytes()
		if err != nil {
			return mapReadErr(err)
		}
		current, err := decode(data)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, idKey, s.emailKey(current.Email))
			s.indexSecrets(ctx, pipe, current, nil)
			return nil
		})
		return err
	}, idKey)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", account.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) getByIndex(ctx context.Context, indexKey string) (*account.Account, error) {
	id, err := s.redis.Get(ctx, indexKey).Result()
	if err != nil {
		return nil, mapReadErr(err)
	}
	return s.GetByID(ctx, id)
}

func (s *Store) withRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err == nil || isDomainErr(err) {
			return err
		}
		return fmt.Errorf("%w: %v", account.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", account.ErrVersionConflict, errContention)
}

func (s *Store) secretKeys(acct *account.Account) []string {
	var keys []string
	if acct.VerificationCode != "" {
		keys = append(keys, s.codeKey(acct.VerificationCode))
	}
	if acct.ResetTokenDigest != "" {
		keys = append(keys, s.resetKey(acct.ResetTokenDigest))
	}
	return keys
}

func (s *Store) checkSecrets(ctx context.Context, tx *redis.Tx, acct *account.Account) error {
	for _, key := range s.secretKeys(acct) {
		owner, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return err
		}
		if owner != acct.ID {
			return account.ErrSecretCollision
		}
	}
	return nil
}

func (s *Store) indexSecrets(ctx context.Context, pipe redis.Pipeliner, prev, next *account.Account) {
	var prevCode, prevReset, nextCode, nextReset string
	if prev != nil {
		prevCode, prevReset = prev.VerificationCode, prev.ResetTokenDigest
	}
	if next != nil {
		nextCode, nextReset = next.VerificationCode, next.ResetTokenDigest
	}

	if prevCode != "" && prevCode != nextCode {
		pipe.Del(ctx, s.codeKey(prevCode))
	}
	if nextCode != "" {
		pipe.Set(ctx, s.codeKey(nextCode), next.ID, 0)
	}
	if prevReset != "" && prevReset != nextReset {
		pipe.Del(ctx, s.resetKey(prevReset))
	}
	if nextReset != "" {
		pipe.Set(ctx, s.resetKey(nextReset), next.ID, 0)
	}
}

func isDomainErr(err error) bool {
	return errors.Is(err, account.ErrNotFound) ||
		errors.Is(err, account.ErrEmailTaken) ||
		errors.Is(err, account.ErrSecretCollision) ||
		errors.Is(err, account.ErrVersionConflict) ||
		errors.Is(err, account.ErrInvalidRecord)
}

func mapReadErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return account.ErrNotFound
	}
	if isDomainErr(err) {
		return err
	}
	return fmt.Errorf("%w: %v", account.ErrUnavailable, err)
}

func encode(acct *account.Account) ([]byte, error) {
	data, err := json.Marshal(record{
		V:                         recordVersionV1,
		ID:                        acct.ID,
		Email:                     acct.Email,
		Name:                      acct.Name,
		PasswordDigest:            acct.PasswordDigest,
		ProfileImage:              acct.ProfileImage,
		Status:                    uint8(acct.Status),
		VerificationCode:          acct.VerificationCode,
		VerificationCodeExpiresAt: acct.VerificationCodeExpiresAt,
		FailedLoginCount:          acct.FailedLoginCount,
		LockedUntil:               acct.LockedUntil,
		ResetTokenDigest:          acct.ResetTokenDigest,
		ResetTokenExpiresAt:       acct.ResetTokenExpiresAt,
		LastLoginAt:               acct.LastLoginAt,
		CreatedAt:                 acct.CreatedAt,
		UpdatedAt:                 acct.UpdatedAt,
		Version:                   acct.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*account.Account, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: decode account: %v", account.ErrUnavailable, err)
	}
	if r.V != recordVersionV1 {
		return nil, fmt.Errorf("%w: unsupported record version %d", account.ErrUnavailable, r.V)
	}
	return &account.Account{
		ID:                        r.ID,
		Email:                     r.Email,
		Name:                      r.Name,
		PasswordDigest:            r.PasswordDigest,
		ProfileImage:              r.ProfileImage,
		Status:                    account.Status(r.Status),
		VerificationCode:          r.VerificationCode,
		VerificationCodeExpiresAt: r.VerificationCodeExpiresAt,
		FailedLoginCount:          r.FailedLoginCount,
		LockedUntil:               r.LockedUntil,
		ResetTokenDigest:          r.ResetTokenDigest,
		ResetTokenExpiresAt:       r.ResetTokenExpiresAt,
		LastLoginAt:               r.LastLoginAt,
		CreatedAt:                 r.CreatedAt,
		UpdatedAt:                 r.UpdatedAt,
		Version:                   r.Version,
	}, nil
}
