package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/challenges"
)

// RegisterInput is validated and normalized by the caller.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ProfileImage string
}

// RunRegister creates an unverified account and sends its verification
// code. If the email cannot be sent the account is deleted again and a
// Dependency error is returned.
func RunRegister(ctx context.Context, in RegisterInput, deps Deps) (*account.Account, error) {
	normalizeDeps(&deps)
	if err := ready(&deps); err != nil {
		return nil, err
	}
	email := account.NormalizeEmail(in.Email)

	if _, err := deps.Store.GetByEmail(ctx, email); err == nil {
		return nil, registerDuplicate(ctx, &deps)
	} else if !errors.Is(err, account.ErrNotFound) {
		return nil, storeError(&deps, err)
	}

	digest, err := deps.Passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", deps.Errors.Internal, err)
	}

	var acct *account.Account
	for attempt := 0; ; attempt++ {
		now := deps.Now()
		code, expiresAt, err := challenges.IssueCode(now, deps.CodeTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: issue verification code: %v", deps.Errors.Internal, err)
		}
		acct = &account.Account{
			ID:                        deps.NewID(),
			Email:                     email,
			Name:                      in.Name,
			PasswordDigest:            digest,
			ProfileImage:              in.ProfileImage,
			Status:                    account.StatusUnverified,
			VerificationCode:          code,
			VerificationCodeExpiresAt: expiresAt,
			CreatedAt:                 now,
			UpdatedAt:                 now,
		}

		err = deps.Store.Create(ctx, acct)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			return nil, registerDuplicate(ctx, &deps)
		case errors.Is(err, account.ErrSecretCollision) && attempt+1 < maxUpdateRetries:
			continue
		default:
			return nil, storeError(&deps, err)
		}
	}

	if err := deps.Mailer.SendVerificationEmail(ctx, acct.Email, acct.Name, acct.VerificationCode); err != nil {
		deps.MetricInc(deps.Metrics.EmailFailure)
		deps.MetricInc(deps.Metrics.RegisterRollback)
		if delErr := deps.Store.Delete(ctx, acct.ID); delErr != nil && !errors.Is(delErr, account.ErrNotFound) {
			deps.Log.Error(ctx, "registration rollback failed", "account_id", acct.ID, "err", delErr)
		}
		deps.Log.Warn(ctx, "verification email failed; registration rolled back", "account_id", acct.ID, "err", err)
		deps.EmitAudit(ctx, deps.Events.RegisterRollback, false, acct.ID, deps.Errors.Dependency, nil)
		return nil, fmt.Errorf("%w: verification email: %v", deps.Errors.Dependency, err)
	}

	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.Register, true, acct.ID, nil, nil)
	return acct, nil
}

func registerDuplicate(ctx context.Context, deps *Deps) error {
	deps.MetricInc(deps.Metrics.RegisterDuplicate)
	deps.EmitAudit(ctx, deps.Events.Register, false, "", deps.Errors.Conflict, func() map[string]string {
		return map[string]string{"reason": "duplicate_email"}
	})
	return deps.Errors.Conflict
}
