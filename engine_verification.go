package goAccount

import (
	"context"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/flows"
)

// ResendVerification issues a fresh code for an unverified account and
// emails it. The result is nil for unknown and already verified addresses
// and when sending fails; only malformed input and store outages surface.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	email = account.NormalizeEmail(email)
	if err := e.validateEmail(email); err != nil {
		return err
	}
	return flows.RunResendVerification(ctx, email, e.deps)
}

// VerifyCode consumes a verification code without knowing its owner.
func (e *Engine) VerifyCode(ctx context.Context, code string) (AccountView, error) {
	return e.VerifyEmailCode(ctx, "", code)
}

// VerifyEmailCode consumes a verification code that must belong to email.
// An empty email behaves like VerifyCode.
//
// Each code succeeds once. Every later attempt with it, and any unknown,
// mismatched or expired code, returns ErrInvalidOrExpiredCode.
func (e *Engine) VerifyEmailCode(ctx context.Context, email, code string) (AccountView, error) {
	if e == nil {
		return AccountView{}, ErrEngineNotReady
	}
	email = account.NormalizeEmail(email)
	if err := e.validateCode(email, code); err != nil {
		return AccountView{}, err
	}
	acct, err := flows.RunVerify(ctx, email, code, e.deps)
	if err != nil {
		return AccountView{}, err
	}
	return viewOf(acct), nil
}

// VerificationStatus reports whether email is verified and whether it holds
// an outstanding code. Unknown addresses return ErrNotFound.
func (e *Engine) VerificationStatus(ctx context.Context, email string) (VerificationStatusView, error) {
	if e == nil {
		return VerificationStatusView{}, ErrEngineNotReady
	}
	email = account.NormalizeEmail(email)
	if err := e.validateEmail(email); err != nil {
		return VerificationStatusView{}, err
	}
	st, err := flows.RunVerificationStatus(ctx, email, e.deps)
	if err != nil {
		return VerificationStatusView{}, err
	}
	return VerificationStatusView{
		Email:                   st.Email,
		IsVerified:              st.IsVerified,
		HasVerificationCode:     st.HasVerificationCode,
		VerificationCodeExpired: st.VerificationCodeExpired,
	}, nil
}
