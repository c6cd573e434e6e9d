// Package pgstore persists accounts in PostgreSQL through database/sql and
// the pgx stdlib driver. Schema changes are goose migrations embedded in the
// binary.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/account/pgstore/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const (
	uniqueViolation = "23505"
	emailConstraint = "accounts_email_key"
)

const selectColumns = `id, email, name, password_digest, profile_image, status,
	verification_code, verification_code_expires_at,
	failed_login_count, locked_until,
	reset_token_digest, reset_token_expires_at,
	last_login_at, created_at, updated_at, version`

// DBTX is the subset of database/sql used by Store. Both *sql.DB and *sql.Tx
// satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// Store is a PostgreSQL-backed account.Store.
type Store struct {
	db  DBTX
	now func() time.Time
}

// New wraps db.
func New(db DBTX) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Open connects with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, acct *account.Account) error {
	if acct == nil || acct.ID == "" || acct.Email == "" {
		return account.ErrInvalidRecord
	}

	now := s.now()
	createdAt := acct.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	email := account.NormalizeEmail(acct.Email)

	query :=
		`INSERT INTO accounts (id, email, name, password_digest, profile_image, status,
			verification_code, verification_code_expires_at,
			failed_login_count, locked_until,
			reset_token_digest, reset_token_expires_at,
			last_login_at, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1)`

	_, err := s.db.ExecContext(ctx, query,
		acct.ID, email, acct.Name, acct.PasswordDigest, acct.ProfileImage, int16(acct.Status),
		nullString(acct.VerificationCode), nullTime(acct.VerificationCodeExpiresAt),
		acct.FailedLoginCount, nullTime(acct.LockedUntil),
		nullString(acct.ResetTokenDigest), nullTime(acct.ResetTokenExpiresAt),
		nullTime(acct.LastLoginAt), createdAt, now,
	)
	if err != nil {
		return mapWriteErr(err)
	}

	acct.Email = email
	acct.CreatedAt = createdAt
	acct.UpdatedAt = now
	acct.Version = 1
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*account.Account, error) {
	return s.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE id = $1`, id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE email = $1`, account.NormalizeEmail(email))
}

func (s *Store) GetByVerificationCode(ctx context.Context, code string) (*account.Account, error) {
	if code == "" {
		return nil, account.ErrNotFound
	}
	return s.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE verification_code = $1`, code)
}

func (s *Store) GetByResetDigest(ctx context.Context, digest string) (*account.Account, error) {
	if digest == "" {
		return nil, account.ErrNotFound
	}
	return s.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE reset_token_digest = $1`, digest)
}

func (s *Store) Update(ctx context.Context, acct *account.Account) error {
	if acct == nil || acct.ID == "" {
		return account.ErrInvalidRecord
	}

	now := s.now()
	email := account.NormalizeEmail(acct.Email)

	query :=
		`UPDATE accounts SET email = $3, name = $4, password_digest = $5, profile_image = $6, status = $7,
			verification_code = $8, verification_code_expires_at = $9,
			failed_login_count = $10, locked_until = $11,
			reset_token_digest = $12, reset_token_expires_at = $13,
			last_login_at = $14, updated_at = $15, version = version + 1
		 WHERE id = $1 AND version = $2
		 RETURNING version`

	var version int64
	err := s.db.QueryRowContext(ctx, query,
		acct.ID, acct.Version,
		email, acct.Name, acct.PasswordDigest, acct.ProfileImage, int16(acct.Status),
		nullString(acct.VerificationCode), nullTime(acct.VerificationCodeExpiresAt),
		acct.FailedLoginCount, nullTime(acct.LockedUntil),
		nullString(acct.ResetTokenDigest), nullTime(acct.ResetTokenExpiresAt),
		nullTime(acct.LastLoginAt), now,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		exists, existsErr := s.exists(ctx, acct.ID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return account.ErrNotFound
		}
		return account.ErrVersionConflict
	}
	if err != nil {
		return mapWriteErr(err)
	}

	acct.Email = email
	acct.Version = version
	acct.UpdatedAt = now
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: db error: %v", account.ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: db error: %v", account.ErrUnavailable, err)
	}
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	p, ok := s.db.(pinger)
	if !ok {
		return nil
	}
	if err := p.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", account.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: db error: %v", account.ErrUnavailable, err)
	}
	return exists, nil
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*account.Account, error) {
	var (
		acct        account.Account
		status      int16
		code        sql.NullString
		codeExp     sql.NullTime
		lockedUntil sql.NullTime
		resetDigest sql.NullString
		resetExp    sql.NullTime
		lastLogin   sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&acct.ID, &acct.Email, &acct.Name, &acct.PasswordDigest, &acct.ProfileImage, &status,
		&code, &codeExp,
		&acct.FailedLoginCount, &lockedUntil,
		&resetDigest, &resetExp,
		&lastLogin, &acct.CreatedAt, &acct.UpdatedAt, &acct.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("%w: db error: %v", account.ErrUnavailable, err)
	}

	acct.Status = account.Status(status)
	acct.VerificationCode = code.String
	acct.VerificationCodeExpiresAt = timeOrZero(codeExp)
	acct.LockedUntil = timeOrZero(lockedUntil)
	acct.ResetTokenDigest = resetDigest.String
	acct.ResetTokenExpiresAt = timeOrZero(resetExp)
	acct.LastLoginAt = timeOrZero(lastLogin)
	return &acct, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == emailConstraint {
			return account.ErrEmailTaken
		}
		return account.ErrSecretCollision
	}
	return fmt.Errorf("%w: db error: %v", account.ErrUnavailable, err)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func timeOrZero(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}
