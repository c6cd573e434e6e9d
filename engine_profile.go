package goAccount

import (
	"context"
	"strings"

	"github.com/MrEthical07/goAccount/internal/flows"
)

func (e *Engine) Profile(ctx context.Context, accountID string) (AccountView, error) {
	if e == nil {
		return AccountView{}, ErrEngineNotReady
	}
	acct, err := flows.RunProfile(ctx, accountID, e.deps)
	if err != nil {
		return AccountView{}, err
	}
	return viewOf(acct), nil
}

// UpdateProfile changes the display name and profile image. Credentials and
// verification state cannot be changed here.
func (e *Engine) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (AccountView, error) {
	if e == nil {
		return AccountView{}, ErrEngineNotReady
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}
	if update.ProfileImage != nil {
		img := strings.TrimSpace(*update.ProfileImage)
		update.ProfileImage = &img
	}
	if err := e.validateProfile(update); err != nil {
		return AccountView{}, err
	}
	acct, err := flows.RunUpdateProfile(ctx, accountID, flows.ProfileChanges{
		Name:         update.Name,
		ProfileImage: update.ProfileImage,
	}, e.deps)
	if err != nil {
		return AccountView{}, err
	}
	return viewOf(acct), nil
}
