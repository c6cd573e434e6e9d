package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/limiters"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/jwt"
)

// maxUpdateRetries bounds compare-and-swap attempts per operation.
const maxUpdateRetries = 4

// Hasher is the credential verifier contract.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
	NeedsUpgrade(digest string) (bool, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(accountID, email string) (string, time.Time, error)
	Verify(token string) (*jwt.Claims, error)
}

// Mailer dispatches transactional email.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, name, code string) error
	SendPasswordResetEmail(ctx context.Context, email, name, rawToken string) error
	SendWelcomeEmail(ctx context.Context, email, name string) error
}

// Metrics carries the metric ids flows increment.
type Metrics struct {
	RegisterSuccess       int
	RegisterDuplicate     int
	RegisterRollback      int
	VerificationResent    int
	VerificationSuccess   int
	VerificationFailure   int
	LoginSuccess          int
	LoginFailure          int
	LoginLocked           int
	LoginNotVerified      int
	AccountLocked         int
	PasswordResetRequest  int
	PasswordResetSuccess  int
	PasswordResetFailure  int
	PasswordChangeSuccess int
	PasswordChangeInvalid int
	PasswordRehash        int
	RefreshSuccess        int
	RefreshFailure        int
	EmailFailure          int
	MailThrottled         int
	LoginLatency          int
}

// Events carries audit event names.
type Events struct {
	Register             string
	RegisterRollback     string
	VerificationResend   string
	Verification         string
	Login                string
	AccountLocked        string
	PasswordResetRequest string
	PasswordResetConfirm string
	PasswordChange       string
	TokenRefresh         string
	ProfileUpdate        string
}

// Errors carries the public error values flows return.
type Errors struct {
	Validation            error
	Conflict              error
	InvalidCredentials    error
	NotVerified           error
	AccountLocked         error
	InvalidOrExpiredCode  error
	InvalidOrExpiredToken error
	NotFound              error
	Dependency            error
	Internal              error
}

// Deps is everything a flow may touch.
type Deps struct {
	Store     account.Store
	Passwords Hasher
	Tokens    TokenIssuer
	Mailer    Mailer
	Guard     limiters.Guard
	Throttle  *limiters.MailThrottle
	Log       logging.Logger

	CodeTTL  time.Duration
	ResetTTL time.Duration
	// DummyDigest is verified against on unknown-account logins so that both
	// paths cost one hash.
	DummyDigest string

	NewID               func() string
	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string

	MetricInc     func(int)
	MetricObserve func(int, time.Duration)
	EmitAudit     func(ctx context.Context, event string, success bool, accountID string, err error, metadata func() map[string]string)

	Metrics Metrics
	Events  Events
	Errors  Errors
}

// errNoWrite makes casUpdate return the current record without writing.
var errNoWrite = errors.New("no write")

// casUpdate applies mutate to a clone of acct and writes it with
// Store.Update. On a version conflict or secret collision it reloads by id
// and calls mutate again on the fresh record. mutate is re-run from scratch
// on every attempt and must reset any state it captures.
func casUpdate(ctx context.Context, deps *Deps, acct *account.Account, mutate func(*account.Account) error) (*account.Account, error) {
	current := acct
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		if attempt > 0 {
			fresh, err := deps.Store.GetByID(ctx, current.ID)
			if err != nil {
				return nil, err
			}
			current = fresh
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			if errors.Is(err, errNoWrite) {
				return current, nil
			}
			return nil, err
		}

		err := deps.Store.Update(ctx, next)
		switch {
		case err == nil:
			return next, nil
		case errors.Is(err, account.ErrVersionConflict), errors.Is(err, account.ErrSecretCollision):
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: account %s: update retries exhausted", deps.Errors.Internal, acct.ID)
}

// storeError maps adapter errors onto the public taxonomy. Values already in
// the taxonomy pass through.
func storeError(deps *Deps, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, account.ErrNotFound):
		return deps.Errors.NotFound
	case errors.Is(err, account.ErrEmailTaken):
		return deps.Errors.Conflict
	case errors.Is(err, account.ErrUnavailable):
		return fmt.Errorf("%w: %v", deps.Errors.Dependency, err)
	case isPublic(deps, err):
		return err
	default:
		return fmt.Errorf("%w: %v", deps.Errors.Internal, err)
	}
}

func isPublic(deps *Deps, err error) bool {
	for _, target := range []error{
		deps.Errors.Validation,
		deps.Errors.Conflict,
		deps.Errors.InvalidCredentials,
		deps.Errors.NotVerified,
		deps.Errors.AccountLocked,
		deps.Errors.InvalidOrExpiredCode,
		deps.Errors.InvalidOrExpiredToken,
		deps.Errors.NotFound,
		deps.Errors.Dependency,
		deps.Errors.Internal,
	} {
		if target != nil && errors.Is(err, target) {
			return true
		}
	}
	return false
}

func guardState(a *account.Account) limiters.GuardState {
	return limiters.GuardState{FailedCount: a.FailedLoginCount, LockedUntil: a.LockedUntil}
}

func applyGuardState(a *account.Account, s limiters.GuardState) {
	a.FailedLoginCount = s.FailedCount
	a.LockedUntil = s.LockedUntil
}

func normalizeDeps(deps *Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.MetricObserve == nil {
		deps.MetricObserve = func(int, time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.Errors.Internal == nil {
		deps.Errors.Internal = errors.New("internal error")
	}
	if deps.Errors.Dependency == nil {
		deps.Errors.Dependency = errors.New("dependency unavailable")
	}
}

func ready(deps *Deps) error {
	if deps.Store == nil || deps.Passwords == nil || deps.Tokens == nil || deps.Mailer == nil || deps.NewID == nil {
		return fmt.Errorf("%w: flow dependencies not configured", deps.Errors.Internal)
	}
	return nil
}
