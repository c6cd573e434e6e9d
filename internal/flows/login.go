package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/account"
)

// Session is the result of a login or refresh.
type Session struct {
	Account   *account.Account
	Token     string
	ExpiresAt time.Time
}

// RunLogin authenticates email and password.
//
// Checks run in order: unknown account, active lock, unverified, password.
// A wrong password records a guard failure; the failure that engages the
// lock returns AccountLocked instead of InvalidCredentials.
func RunLogin(ctx context.Context, email, password string, deps Deps) (Session, error) {
	normalizeDeps(&deps)
	if err := ready(&deps); err != nil {
		return Session{}, err
	}
	start := deps.Now()
	defer func() {
		deps.MetricObserve(deps.Metrics.LoginLatency, deps.Now().Sub(start))
	}()
	email = account.NormalizeEmail(email)

	acct, err := deps.Store.GetByEmail(ctx, email)
	if errors.Is(err, account.ErrNotFound) {
		if deps.DummyDigest != "" {
			_, _ = deps.Passwords.Verify(password, deps.DummyDigest)
		}
		return Session{}, loginFailed(ctx, &deps, "", "unknown_account")
	}
	if err != nil {
		return Session{}, storeError(&deps, err)
	}

	if deps.Guard.IsLocked(guardState(acct), deps.Now()) {
		deps.MetricInc(deps.Metrics.LoginLocked)
		deps.EmitAudit(ctx, deps.Events.Login, false, acct.ID, deps.Errors.AccountLocked, nil)
		return Session{}, deps.Errors.AccountLocked
	}
	if !acct.Verified() {
		deps.MetricInc(deps.Metrics.LoginNotVerified)
		deps.EmitAudit(ctx, deps.Events.Login, false, acct.ID, deps.Errors.NotVerified, nil)
		return Session{}, deps.Errors.NotVerified
	}

	ok, err := deps.Passwords.Verify(password, acct.PasswordDigest)
	if err != nil {
		return Session{}, fmt.Errorf("%w: verify password: %v", deps.Errors.Internal, err)
	}
	if !ok {
		return Session{}, recordLoginFailure(ctx, &deps, acct)
	}

	verifiedDigest := acct.PasswordDigest
	upgraded := rehashIfNeeded(ctx, &deps, acct.ID, password, verifiedDigest)

	updated, err := casUpdate(ctx, &deps, acct, func(a *account.Account) error {
		now := deps.Now()
		if deps.Guard.IsLocked(guardState(a), now) {
			return deps.Errors.AccountLocked
		}
		if a.PasswordDigest != verifiedDigest {
			return deps.Errors.InvalidCredentials
		}
		applyGuardState(a, deps.Guard.RecordSuccess(guardState(a)))
		a.LastLoginAt = now
		if upgraded != "" {
			a.PasswordDigest = upgraded
		}
		return nil
	})
	if err != nil {
		err = storeError(&deps, err)
		if errors.Is(err, deps.Errors.InvalidCredentials) {
			return Session{}, loginFailed(ctx, &deps, acct.ID, "password_changed")
		}
		return Session{}, err
	}
	if upgraded != "" {
		deps.MetricInc(deps.Metrics.PasswordRehash)
	}

	token, expiresAt, err := deps.Tokens.Issue(updated.ID, updated.Email)
	if err != nil {
		return Session{}, fmt.Errorf("%w: issue token: %v", deps.Errors.Internal, err)
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.Login, true, updated.ID, nil, nil)
	return Session{Account: updated, Token: token, ExpiresAt: expiresAt}, nil
}

func recordLoginFailure(ctx context.Context, deps *Deps, acct *account.Account) error {
	var engaged bool
	_, err := casUpdate(ctx, deps, acct, func(a *account.Account) error {
		engaged = false
		now := deps.Now()
		state := guardState(a)
		if deps.Guard.IsLocked(state, now) {
			// A concurrent failure already engaged the lock.
			engaged = true
			return errNoWrite
		}
		next, locked := deps.Guard.RecordFailure(state, now)
		applyGuardState(a, next)
		engaged = locked
		return nil
	})
	if err != nil {
		return storeError(deps, err)
	}

	if engaged {
		deps.MetricInc(deps.Metrics.AccountLocked)
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.AccountLocked, true, acct.ID, deps.Errors.AccountLocked, nil)
		return deps.Errors.AccountLocked
	}
	return loginFailed(ctx, deps, acct.ID, "bad_password")
}

func loginFailed(ctx context.Context, deps *Deps, accountID, reason string) error {
	deps.MetricInc(deps.Metrics.LoginFailure)
	deps.EmitAudit(ctx, deps.Events.Login, false, accountID, deps.Errors.InvalidCredentials, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	return deps.Errors.InvalidCredentials
}

// rehashIfNeeded returns a fresh digest when the stored one is outdated, or
// "" when no upgrade is needed or hashing failed.
func rehashIfNeeded(ctx context.Context, deps *Deps, accountID, password, digest string) string {
	needs, err := deps.Passwords.NeedsUpgrade(digest)
	if err != nil || !needs {
		return ""
	}
	upgraded, err := deps.Passwords.Hash(password)
	if err != nil {
		deps.Log.Warn(ctx, "password rehash failed", "account_id", accountID, "err", err)
		return ""
	}
	return upgraded
}
