package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/challenges"
	"github.com/MrEthical07/goAccount/internal/limiters"
)

// VerificationStatus is the public view of an account's verification state.
type VerificationStatus struct {
	Email                   string
	IsVerified              bool
	HasVerificationCode     bool
	VerificationCodeExpired bool
}

// RunResendVerification reissues and sends a code for an unverified account.
// Unknown and verified addresses succeed silently so callers cannot tell
// them apart. Mail failures are logged, never returned.
func RunResendVerification(ctx context.Context, email string, deps Deps) error {
	normalizeDeps(&deps)
	if err := ready(&deps); err != nil {
		return err
	}
	email = account.NormalizeEmail(email)

	if !allowMail(ctx, &deps, limiters.ScopeResend, email) {
		return nil
	}

	acct, err := deps.Store.GetByEmail(ctx, email)
	if errors.Is(err, account.ErrNotFound) {
		deps.EmitAudit(ctx, deps.Events.VerificationResend, false, "", nil, func() map[string]string {
			return map[string]string{"reason": "unknown_account"}
		})
		return nil
	}
	if err != nil {
		return storeError(&deps, err)
	}
	if acct.Verified() {
		return nil
	}

	updated, err := casUpdate(ctx, &deps, acct, func(a *account.Account) error {
		if a.Verified() {
			return errNoWrite
		}
		code, expiresAt, err := challenges.IssueCode(deps.Now(), deps.CodeTTL)
		if err != nil {
			return fmt.Errorf("%w: issue verification code: %v", deps.Errors.Internal, err)
		}
		a.VerificationCode = code
		a.VerificationCodeExpiresAt = expiresAt
		return nil
	})
	if err != nil {
		return storeError(&deps, err)
	}
	if updated.Verified() {
		return nil
	}

	deps.MetricInc(deps.Metrics.VerificationResent)
	deps.EmitAudit(ctx, deps.Events.VerificationResend, true, updated.ID, nil, nil)
	if err := deps.Mailer.SendVerificationEmail(ctx, updated.Email, updated.Name, updated.VerificationCode); err != nil {
		deps.MetricInc(deps.Metrics.EmailFailure)
		deps.Log.Warn(ctx, "resend verification email failed", "account_id", updated.ID, "err", err)
	}
	return nil
}

// RunVerify consumes a verification code. When email is non-empty the code
// must belong to that address. A consumed, unknown, mismatched or expired
// code yields InvalidOrExpiredCode.
func RunVerify(ctx context.Context, email, code string, deps Deps) (*account.Account, error) {
	normalizeDeps(&deps)
	if err := ready(&deps); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)

	reject := func(reason string) error {
		deps.MetricInc(deps.Metrics.VerificationFailure)
		deps.EmitAudit(ctx, deps.Events.Verification, false, "", deps.Errors.InvalidOrExpiredCode, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return deps.Errors.InvalidOrExpiredCode
	}

	if code == "" {
		return nil, reject(challenges.ReasonNoCodeIssued.String())
	}
	acct, err := deps.Store.GetByVerificationCode(ctx, code)
	if errors.Is(err, account.ErrNotFound) {
		return nil, reject(challenges.ReasonMismatch.String())
	}
	if err != nil {
		return nil, storeError(&deps, err)
	}
	if email != "" && acct.Email != account.NormalizeEmail(email) {
		return nil, reject(challenges.ReasonMismatch.String())
	}

	var (
		sendWelcome bool
		reason      challenges.Reason
	)
	updated, err := casUpdate(ctx, &deps, acct, func(a *account.Account) error {
		sendWelcome = false
		outcome := challenges.ValidateCode(a.VerificationCode, a.VerificationCodeExpiresAt, code, deps.Now())
		if !outcome.Accepted {
			reason = outcome.Reason
			return deps.Errors.InvalidOrExpiredCode
		}
		sendWelcome = !a.Verified()
		a.Status = account.StatusVerified
		a.VerificationCode = ""
		a.VerificationCodeExpiresAt = time.Time{}
		return nil
	})
	switch {
	case errors.Is(err, deps.Errors.InvalidOrExpiredCode):
		return nil, reject(reason.String())
	case errors.Is(err, account.ErrNotFound):
		return nil, reject(challenges.ReasonMismatch.String())
	case err != nil:
		return nil, storeError(&deps, err)
	}

	deps.MetricInc(deps.Metrics.VerificationSuccess)
	deps.EmitAudit(ctx, deps.Events.Verification, true, updated.ID, nil, nil)
	if sendWelcome {
		if err := deps.Mailer.SendWelcomeEmail(ctx, updated.Email, updated.Name); err != nil {
			deps.MetricInc(deps.Metrics.EmailFailure)
			deps.Log.Warn(ctx, "welcome email failed", "account_id", updated.ID, "err", err)
		}
	}
	return updated, nil
}

// RunVerificationStatus reports verification state for an address.
func RunVerificationStatus(ctx context.Context, email string, deps Deps) (VerificationStatus, error) {
	normalizeDeps(&deps)
	if deps.Store == nil {
		return VerificationStatus{}, ready(&deps)
	}
	acct, err := deps.Store.GetByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		return VerificationStatus{}, storeError(&deps, err)
	}
	hasCode := acct.VerificationCode != ""
	return VerificationStatus{
		Email:                   acct.Email,
		IsVerified:              acct.Verified(),
		HasVerificationCode:     hasCode,
		VerificationCodeExpired: hasCode && deps.Now().After(acct.VerificationCodeExpiresAt),
	}, nil
}

// allowMail consults the throttle. A throttle outage is logged and allows.
func allowMail(ctx context.Context, deps *Deps, scope, email string) bool {
	ok, err := deps.Throttle.Allow(ctx, scope, email)
	if err != nil {
		deps.Log.Warn(ctx, "mail throttle unavailable", "scope", scope, "err", err)
	}
	if !ok {
		deps.MetricInc(deps.Metrics.MailThrottled)
	}
	return ok
}
