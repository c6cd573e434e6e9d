// Package storetest holds a behavioural suite every account.Store adapter
// must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/account"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) account.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("CreateAndLookup", func(t *testing.T) { testCreateAndLookup(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("DuplicateID", func(t *testing.T) { testDuplicateID(t, newStore(t)) })
	t.Run("UpdateCAS", func(t *testing.T) { testUpdateCAS(t, newStore(t)) })
	t.Run("SecretIndexes", func(t *testing.T) { testSecretIndexes(t, newStore(t)) })
	t.Run("SecretCollision", func(t *testing.T) { testSecretCollision(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("ConcurrentUpdateSingleWinner", func(t *testing.T) { testConcurrentUpdate(t, newStore(t)) })
}

func sample(id, email string) *account.Account {
	return &account.Account{
		ID:                        id,
		Email:                     email,
		Name:                      "Ann",
		PasswordDigest:            "$argon2id$stub",
		Status:                    account.StatusUnverified,
		VerificationCode:          "123456",
		VerificationCodeExpiresAt: time.Unix(1_700_003_600, 0).UTC(),
	}
}

func testCreateAndLookup(t *testing.T, s account.Store) {
	ctx := context.Background()
	acct := sample("acc-1", "a@x.com")
	if err := s.Create(ctx, acct); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if acct.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", acct.Version)
	}

	byID, err := s.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Email != "a@x.com" || byID.Name != "Ann" || byID.VerificationCode != "123456" {
		t.Fatalf("unexpected record: %+v", byID)
	}
	if !byID.VerificationCodeExpiresAt.Equal(acct.VerificationCodeExpiresAt) {
		t.Fatalf("expiry not preserved: %v vs %v", byID.VerificationCodeExpiresAt, acct.VerificationCodeExpiresAt)
	}

	if _, err := s.GetByEmail(ctx, "  A@X.com "); err != nil {
		t.Fatalf("GetByEmail should normalize, got %v", err)
	}
	if got, err := s.GetByVerificationCode(ctx, "123456"); err != nil || got.ID != "acc-1" {
		t.Fatalf("GetByVerificationCode: %v %+v", err, got)
	}
	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetByResetDigest(ctx, "nope"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for reset digest, got %v", err)
	}
}

func testDuplicateEmail(t *testing.T, s account.Store) {
	ctx := context.Background()
	if err := s.Create(ctx, sample("acc-1", "a@x.com")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	dup := sample("acc-2", "A@X.COM ")
	dup.VerificationCode = "654321"
	if err := s.Create(ctx, dup); !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func testDuplicateID(t *testing.T, s account.Store) {
	ctx := context.Background()
	if err := s.Create(ctx, sample("acc-1", "a@x.com")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	dup := sample("acc-1", "b@x.com")
	dup.VerificationCode = "654321"
	if err := s.Create(ctx, dup); !errors.Is(err, account.ErrSecretCollision) {
		t.Fatalf("expected ErrSecretCollision for a reused id, got %v", err)
	}

	got, err := s.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != "a@x.com" || got.VerificationCode != "123456" {
		t.Fatalf("original record was overwritten: %+v", got)
	}
	if _, err := s.GetByEmail(ctx, "b@x.com"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected no index for the rejected email, got %v", err)
	}
}

func testUpdateCAS(t *testing.T, s account.Store) {
	ctx := context.Background()
	if err := s.Create(ctx, sample("acc-1", "a@x.com")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, _ := s.GetByID(ctx, "acc-1")
	second, _ := s.GetByID(ctx, "acc-1")

	first.FailedLoginCount = 1
	if err := s.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("expected version 2, got %d", first.Version)
	}

	second.FailedLoginCount = 7
	if err := s.Update(ctx, second); !errors.Is(err, account.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for stale write, got %v", err)
	}

	got, _ := s.GetByID(ctx, "acc-1")
	if got.FailedLoginCount != 1 {
		t.Fatalf("stale write leaked: %d", got.FailedLoginCount)
	}

	ghost := sample("ghost", "g@x.com")
	if err := s.Update(ctx, ghost); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing account, got %v", err)
	}
}

func testSecretIndexes(t *testing.T, s account.Store) {
	ctx := context.Background()
	if err := s.Create(ctx, sample("acc-1", "a@x.com")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	acct, _ := s.GetByID(ctx, "acc-1")

	acct.VerificationCode = ""
	acct.VerificationCodeExpiresAt = time.Time{}
	acct.Status = account.StatusVerified
	acct.ResetTokenDigest = "digest-1"
	acct.ResetTokenExpiresAt = time.Unix(1_700_000_600, 0).UTC()
	if err := s.Update(ctx, acct); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := s.GetByVerificationCode(ctx, "123456"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("cleared code must not resolve, got %v", err)
	}
	got, err := s.GetByResetDigest(ctx, "digest-1")
	if err != nil || got.ID != "acc-1" || !got.Verified() {
		t.Fatalf("GetByResetDigest: %v %+v", err, got)
	}

	got.ResetTokenDigest = ""
	got.ResetTokenExpiresAt = time.Time{}
	if err := s.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := s.GetByResetDigest(ctx, "digest-1"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("cleared digest must not resolve, got %v", err)
	}
}

func testSecretCollision(t *testing.T, s account.Store) {
	ctx := context.Background()
	if err := s.Create(ctx, sample("acc-1", "a@x.com")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	other := sample("acc-2", "b@x.com")
	if err := s.Create(ctx, other); !errors.Is(err, account.ErrSecretCollision) {
		t.Fatalf("expected ErrSecretCollision, got %v", err)
	}
	if _, err := s.GetByEmail(ctx, "b@x.com"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("rejected create must not persist, got %v", err)
	}
}

func testDelete(t *testing.T, s account.Store) {
	ctx := context.Background()
	if err := s.Create(ctx, sample("acc-1", "a@x.com")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Delete(ctx, "acc-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.GetByEmail(ctx, "a@x.com"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected email index removed, got %v", err)
	}
	if _, err := s.GetByVerificationCode(ctx, "123456"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected code index removed, got %v", err)
	}
	if err := s.Create(ctx, sample("acc-3", "a@x.com")); err != nil {
		t.Fatalf("email must be reusable after delete: %v", err)
	}
}

func testConcurrentUpdate(t *testing.T, s account.Store) {
	ctx := context.Background()
	if err := s.Create(ctx, sample("acc-1", "a@x.com")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const workers = 8
	snapshots := make([]*account.Account, workers)
	for i := range snapshots {
		acct, err := s.GetByID(ctx, "acc-1")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		snapshots[i] = acct
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(acct *account.Account) {
			defer wg.Done()
			acct.VerificationCode = ""
			acct.Status = account.StatusVerified
			err := s.Update(ctx, acct)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, account.ErrVersionConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(snapshots[i])
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winning update, got %d", wins)
	}
}
