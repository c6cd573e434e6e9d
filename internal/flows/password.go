package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal"
	"github.com/MrEthical07/goAccount/internal/challenges"
	"github.com/MrEthical07/goAccount/internal/limiters"
)

// RunRequestPasswordReset stores a fresh reset digest for a known address
// and mails the raw token. The caller always sees success unless the store
// is unreachable.
func RunRequestPasswordReset(ctx context.Context, email string, deps Deps) error {
	normalizeDeps(&deps)
	if err := ready(&deps); err != nil {
		return err
	}
	email = account.NormalizeEmail(email)
	deps.MetricInc(deps.Metrics.PasswordResetRequest)

	if !allowMail(ctx, &deps, limiters.ScopeReset, email) {
		return nil
	}

	acct, err := deps.Store.GetByEmail(ctx, email)
	if errors.Is(err, account.ErrNotFound) {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, "", nil, func() map[string]string {
			return map[string]string{"reason": "unknown_account"}
		})
		return nil
	}
	if err != nil {
		return storeError(&deps, err)
	}

	var raw string
	updated, err := casUpdate(ctx, &deps, acct, func(a *account.Account) error {
		token, digest, expiresAt, err := challenges.IssueResetToken(deps.Now(), deps.ResetTTL)
		if err != nil {
			return fmt.Errorf("%w: issue reset token: %v", deps.Errors.Internal, err)
		}
		raw = token
		a.ResetTokenDigest = digest
		a.ResetTokenExpiresAt = expiresAt
		return nil
	})
	if err != nil {
		return storeError(&deps, err)
	}

	deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, updated.ID, nil, nil)
	if err := deps.Mailer.SendPasswordResetEmail(ctx, updated.Email, updated.Name, raw); err != nil {
		deps.MetricInc(deps.Metrics.EmailFailure)
		deps.Log.Warn(ctx, "password reset email failed", "account_id", updated.ID, "err", err)
	}
	return nil
}

// RunResetPassword consumes a raw reset token and sets the new password in
// the same update that clears the token. The login guard is cleared too.
func RunResetPassword(ctx context.Context, rawToken, newPassword string, deps Deps) error {
	normalizeDeps(&deps)
	if err := ready(&deps); err != nil {
		return err
	}
	rawToken = strings.TrimSpace(rawToken)

	reject := func(accountID, reason string) error {
		deps.MetricInc(deps.Metrics.PasswordResetFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, accountID, deps.Errors.InvalidOrExpiredToken, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return deps.Errors.InvalidOrExpiredToken
	}

	if err := internal.ValidResetTokenShape(rawToken); err != nil {
		return reject("", "malformed")
	}
	acct, err := deps.Store.GetByResetDigest(ctx, internal.DigestResetToken(rawToken))
	if errors.Is(err, account.ErrNotFound) {
		return reject("", challenges.ReasonMismatch.String())
	}
	if err != nil {
		return storeError(&deps, err)
	}

	// Checked before hashing so expired tokens do not cost a hash.
	if outcome := challenges.ValidateResetToken(acct.ResetTokenDigest, acct.ResetTokenExpiresAt, rawToken, deps.Now()); !outcome.Accepted {
		return reject(acct.ID, outcome.Reason.String())
	}

	digest, err := deps.Passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", deps.Errors.Internal, err)
	}

	var reason challenges.Reason
	updated, err := casUpdate(ctx, &deps, acct, func(a *account.Account) error {
		outcome := challenges.ValidateResetToken(a.ResetTokenDigest, a.ResetTokenExpiresAt, rawToken, deps.Now())
		if !outcome.Accepted {
			reason = outcome.Reason
			return deps.Errors.InvalidOrExpiredToken
		}
		a.PasswordDigest = digest
		a.ResetTokenDigest = ""
		a.ResetTokenExpiresAt = time.Time{}
		applyGuardState(a, deps.Guard.RecordSuccess(guardState(a)))
		return nil
	})
	switch {
	case errors.Is(err, deps.Errors.InvalidOrExpiredToken):
		return reject(acct.ID, reason.String())
	case errors.Is(err, account.ErrNotFound):
		return reject(acct.ID, challenges.ReasonMismatch.String())
	case err != nil:
		return storeError(&deps, err)
	}

	deps.MetricInc(deps.Metrics.PasswordResetSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, true, updated.ID, nil, nil)
	return nil
}

// RunChangePassword replaces the password of an authenticated account.
func RunChangePassword(ctx context.Context, accountID, current, next string, deps Deps) error {
	normalizeDeps(&deps)
	if err := ready(&deps); err != nil {
		return err
	}

	acct, err := deps.Store.GetByID(ctx, accountID)
	if err != nil {
		return storeError(&deps, err)
	}

	invalid := func() error {
		deps.MetricInc(deps.Metrics.PasswordChangeInvalid)
		deps.EmitAudit(ctx, deps.Events.PasswordChange, false, accountID, deps.Errors.InvalidCredentials, nil)
		return deps.Errors.InvalidCredentials
	}

	ok, err := deps.Passwords.Verify(current, acct.PasswordDigest)
	if err != nil {
		return fmt.Errorf("%w: verify password: %v", deps.Errors.Internal, err)
	}
	if !ok {
		return invalid()
	}

	digest, err := deps.Passwords.Hash(next)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", deps.Errors.Internal, err)
	}

	verifiedDigest := acct.PasswordDigest
	_, err = casUpdate(ctx, &deps, acct, func(a *account.Account) error {
		if a.PasswordDigest != verifiedDigest {
			return deps.Errors.InvalidCredentials
		}
		a.PasswordDigest = digest
		return nil
	})
	if errors.Is(err, deps.Errors.InvalidCredentials) {
		return invalid()
	}
	if err != nil {
		return storeError(&deps, err)
	}

	deps.MetricInc(deps.Metrics.PasswordChangeSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordChange, true, accountID, nil, nil)
	return nil
}
