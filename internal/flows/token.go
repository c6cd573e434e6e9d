package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAccount/jwt"
)

// RunRefresh exchanges a valid, unexpired token for a new one. The account
// must still exist and be verified.
func RunRefresh(ctx context.Context, token string, deps Deps) (Session, error) {
	normalizeDeps(&deps)
	if err := ready(&deps); err != nil {
		return Session{}, err
	}

	reject := func(accountID, reason string) error {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.TokenRefresh, false, accountID, deps.Errors.InvalidOrExpiredToken, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return deps.Errors.InvalidOrExpiredToken
	}

	claims, err := deps.Tokens.Verify(token)
	if err != nil {
		return Session{}, reject("", tokenRejection(err))
	}

	acct, err := deps.Store.GetByID(ctx, claims.AccountID())
	if err != nil {
		mapped := storeError(&deps, err)
		if errors.Is(mapped, deps.Errors.NotFound) {
			return Session{}, reject(claims.AccountID(), "unknown_account")
		}
		return Session{}, mapped
	}
	if !acct.Verified() {
		return Session{}, reject(acct.ID, "unverified")
	}

	signed, expiresAt, err := deps.Tokens.Issue(acct.ID, acct.Email)
	if err != nil {
		return Session{}, fmt.Errorf("%w: issue token: %v", deps.Errors.Internal, err)
	}

	deps.MetricInc(deps.Metrics.RefreshSuccess)
	deps.EmitAudit(ctx, deps.Events.TokenRefresh, true, acct.ID, nil, nil)
	return Session{Account: acct, Token: signed, ExpiresAt: expiresAt}, nil
}

// RunAuthenticate validates a bearer token without touching the store.
func RunAuthenticate(_ context.Context, token string, deps Deps) (*jwt.Claims, error) {
	normalizeDeps(&deps)
	if deps.Tokens == nil {
		return nil, ready(&deps)
	}
	claims, err := deps.Tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", deps.Errors.InvalidOrExpiredToken, tokenRejection(err))
	}
	return claims, nil
}

func tokenRejection(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return "expired"
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, jwt.ErrMalformed):
		return "malformed"
	default:
		return "invalid_claims"
	}
}
