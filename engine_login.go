package goAccount

import (
	"context"
	"strings"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/flows"
)

// Login checks email and password and issues a session token.
//
// Unknown addresses and wrong passwords both return ErrInvalidCredentials.
// A locked account returns ErrAccountLocked before the password is looked
// at, and an unverified one returns ErrNotVerified. The failure that
// reaches Lockout.MaxAttempts engages the lock and itself returns
// ErrAccountLocked.
func (e *Engine) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if e == nil {
		return LoginResult{}, ErrEngineNotReady
	}
	email = account.NormalizeEmail(email)
	if err := e.validateLogin(email, password); err != nil {
		return LoginResult{}, err
	}
	sess, err := flows.RunLogin(ctx, email, password, e.deps)
	if err != nil {
		return LoginResult{}, err
	}
	return loginResultOf(sess), nil
}

// Refresh exchanges an unexpired session token for a new one. The account
// must still exist and be verified; otherwise ErrInvalidOrExpiredToken.
func (e *Engine) Refresh(ctx context.Context, token string) (LoginResult, error) {
	if e == nil {
		return LoginResult{}, ErrEngineNotReady
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return LoginResult{}, &ValidationError{Fields: []FieldError{{Field: "refreshToken", Message: "cannot be blank"}}}
	}
	sess, err := flows.RunRefresh(ctx, token, e.deps)
	if err != nil {
		return LoginResult{}, err
	}
	return loginResultOf(sess), nil
}

// Authenticate validates a bearer token. It does not read the store.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Claims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	claims, err := flows.RunAuthenticate(ctx, strings.TrimSpace(token), e.deps)
	if err != nil {
		return nil, err
	}
	out := &Claims{AccountID: claims.AccountID(), Email: claims.Email}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
