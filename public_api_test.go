package goAccount_test

import (
	"context"
	"net/http"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/mailer"
	"github.com/MrEthical07/goAccount/middleware"
)

// Fails to compile when an exported signature changes.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goAccount.New

	var _ *goAccount.Engine
	var _ goAccount.Config
	var _ goAccount.AccountView
	var _ goAccount.LoginResult
	var _ goAccount.RegisterRequest
	var _ goAccount.ProfileUpdate
	var _ goAccount.VerificationStatusView
	var _ goAccount.AuditSink
	var _ goAccount.SecurityReport
	var _ account.Store
	var _ mailer.Mailer

	var _ error = goAccount.ErrValidation
	var _ error = goAccount.ErrConflict
	var _ error = goAccount.ErrInvalidCredentials
	var _ error = goAccount.ErrNotVerified
	var _ error = goAccount.ErrAccountLocked
	var _ error = goAccount.ErrInvalidOrExpiredCode
	var _ error = goAccount.ErrInvalidOrExpiredToken
	var _ error = goAccount.ErrNotFound
	var _ error = goAccount.ErrDependency
	var _ error = goAccount.ErrInternal
	var _ error = (*goAccount.ValidationError)(nil)

	var _ func(*goAccount.Engine, ...middleware.Option) func(http.Handler) http.Handler = middleware.Guard
	var _ func(*goAccount.Engine, ...middleware.Option) func(http.Handler) http.Handler = middleware.RequireAccount

	var _ func(*goAccount.Engine, context.Context, goAccount.RegisterRequest) (goAccount.AccountView, error) = (*goAccount.Engine).Register
	var _ func(*goAccount.Engine, context.Context, string) error = (*goAccount.Engine).ResendVerification
	var _ func(*goAccount.Engine, context.Context, string) (goAccount.AccountView, error) = (*goAccount.Engine).VerifyCode
	var _ func(*goAccount.Engine, context.Context, string, string) (goAccount.AccountView, error) = (*goAccount.Engine).VerifyEmailCode
	var _ func(*goAccount.Engine, context.Context, string, string) (goAccount.LoginResult, error) = (*goAccount.Engine).Login
	var _ func(*goAccount.Engine, context.Context, string) (goAccount.LoginResult, error) = (*goAccount.Engine).Refresh
	var _ func(*goAccount.Engine, context.Context, string) (*goAccount.Claims, error) = (*goAccount.Engine).Authenticate
	var _ func(*goAccount.Engine, context.Context, string) error = (*goAccount.Engine).RequestPasswordReset
	var _ func(*goAccount.Engine, context.Context, string, string) error = (*goAccount.Engine).ResetPassword
	var _ func(*goAccount.Engine, context.Context, string, string, string) error = (*goAccount.Engine).ChangePassword
}
