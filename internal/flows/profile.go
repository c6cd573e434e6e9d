package flows

import (
	"context"

	"github.com/MrEthical07/goAccount/account"
)

// ProfileChanges holds the mutable, non-credential fields. Nil means keep.
type ProfileChanges struct {
	Name         *string
	ProfileImage *string
}

// RunProfile loads an account by id.
func RunProfile(ctx context.Context, accountID string, deps Deps) (*account.Account, error) {
	normalizeDeps(&deps)
	if deps.Store == nil {
		return nil, ready(&deps)
	}
	acct, err := deps.Store.GetByID(ctx, accountID)
	if err != nil {
		return nil, storeError(&deps, err)
	}
	return acct, nil
}

// RunUpdateProfile applies changes with a conditional write.
func RunUpdateProfile(ctx context.Context, accountID string, changes ProfileChanges, deps Deps) (*account.Account, error) {
	normalizeDeps(&deps)
	if deps.Store == nil {
		return nil, ready(&deps)
	}
	acct, err := deps.Store.GetByID(ctx, accountID)
	if err != nil {
		return nil, storeError(&deps, err)
	}
	if changes.Name == nil && changes.ProfileImage == nil {
		return acct, nil
	}

	updated, err := casUpdate(ctx, &deps, acct, func(a *account.Account) error {
		if changes.Name != nil {
			a.Name = *changes.Name
		}
		if changes.ProfileImage != nil {
			a.ProfileImage = *changes.ProfileImage
		}
		return nil
	})
	if err != nil {
		return nil, storeError(&deps, err)
	}
	deps.EmitAudit(ctx, deps.Events.ProfileUpdate, true, updated.ID, nil, nil)
	return updated, nil
}
