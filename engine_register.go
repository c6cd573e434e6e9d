package goAccount

import (
	"context"
	"strings"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/flows"
)

// Register creates an unverified account and emails its verification code.
//
// A taken email returns ErrConflict. When the verification email cannot be
// sent the account is removed again and ErrDependency is returned, so a
// retry with the same address can succeed.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (AccountView, error) {
	if e == nil {
		return AccountView{}, ErrEngineNotReady
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = account.NormalizeEmail(req.Email)
	req.ProfileImage = strings.TrimSpace(req.ProfileImage)
	if err := e.validateRegister(req); err != nil {
		return AccountView{}, err
	}

	acct, err := flows.RunRegister(ctx, flows.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ProfileImage: req.ProfileImage,
	}, e.deps)
	if err != nil {
		return AccountView{}, err
	}
	return viewOf(acct), nil
}
