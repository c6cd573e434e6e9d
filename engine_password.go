package goAccount

import (
	"context"
	"strings"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/flows"
)

// RequestPasswordReset stores a fresh reset token for email and sends it.
// The result is nil whether or not the address is registered.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	email = account.NormalizeEmail(email)
	if err := e.validateEmail(email); err != nil {
		return err
	}
	return flows.RunRequestPasswordReset(ctx, email, e.deps)
}

// ResetPassword consumes rawToken and sets newPassword. The token works
// once and only before it expires; any rejection is ErrInvalidOrExpiredToken.
// A successful reset also lifts a login lock.
func (e *Engine) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	rawToken = strings.TrimSpace(rawToken)
	if err := e.validateReset(rawToken, newPassword); err != nil {
		return err
	}
	return flows.RunResetPassword(ctx, rawToken, newPassword, e.deps)
}

// ChangePassword replaces the password of an authenticated account after
// checking the current one.
func (e *Engine) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.validateChange(currentPassword, newPassword); err != nil {
		return err
	}
	return flows.RunChangePassword(ctx, accountID, currentPassword, newPassword, e.deps)
}
