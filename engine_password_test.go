package goAccount

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "a@x.com", "Ann", "Secret1!")
	ctx := context.Background()

	if err := h.engine.RequestPasswordReset(ctx, "A@x.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	raw := h.mail.resetToken("a@x.com")
	if len(raw) != 64 {
		t.Fatalf("expected 64-char token, got %q", raw)
	}
	acct := h.stored(t, "a@x.com")
	if acct.ResetTokenDigest == "" || acct.ResetTokenDigest == raw {
		t.Fatal("expected only a digest of the token to be stored")
	}
	if want := h.clock.Now().Add(10 * time.Minute); !acct.ResetTokenExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, acct.ResetTokenExpiresAt)
	}

	if err := h.engine.ResetPassword(ctx, raw, "NewSecret1!"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	acct = h.stored(t, "a@x.com")
	if acct.ResetTokenDigest != "" || !acct.ResetTokenExpiresAt.IsZero() {
		t.Fatal("expected reset fields cleared")
	}

	if err := h.engine.ResetPassword(ctx, raw, "Another1!"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken on reuse, got %v", err)
	}
	if _, err := h.engine.Login(ctx, "a@x.com", "Secret1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := h.engine.Login(ctx, "a@x.com", "NewSecret1!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPasswordResetTokenExpires(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "a@x.com", "Ann", "Secret1!")
	ctx := context.Background()

	if err := h.engine.RequestPasswordReset(ctx, "a@x.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	raw := h.mail.resetToken("a@x.com")

	h.clock.Advance(10*time.Minute + time.Second)
	if err := h.engine.ResetPassword(ctx, raw, "NewSecret1!"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
	if _, err := h.engine.Login(ctx, "a@x.com", "Secret1!"); err != nil {
		t.Fatalf("old password should still work: %v", err)
	}
}

func TestPasswordResetNewRequestInvalidatesOldToken(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "a@x.com", "Ann", "Secret1!")
	ctx := context.Background()

	_ = h.engine.RequestPasswordReset(ctx, "a@x.com")
	first := h.mail.resetToken("a@x.com")
	_ = h.engine.RequestPasswordReset(ctx, "a@x.com")
	second := h.mail.resetToken("a@x.com")

	if err := h.engine.ResetPassword(ctx, first, "NewSecret1!"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected superseded token to be rejected, got %v", err)
	}
	if err := h.engine.ResetPassword(ctx, second, "NewSecret1!"); err != nil {
		t.Fatalf("reset with current token: %v", err)
	}
}

func TestPasswordResetRequestIsSilent(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "a@x.com", "Ann", "Secret1!")
	ctx := context.Background()

	if err := h.engine.RequestPasswordReset(ctx, "nobody@x.com"); err != nil {
		t.Fatalf("unknown address: expected nil, got %v", err)
	}

	h.mail.failReset = true
	if err := h.engine.RequestPasswordReset(ctx, "a@x.com"); err != nil {
		t.Fatalf("mail failure: expected nil, got %v", err)
	}
	if err := h.engine.RequestPasswordReset(ctx, "bogus"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResetPasswordLiftsLock(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "a@x.com", "Ann", "Secret1!")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = h.engine.Login(ctx, "a@x.com", "wrong-password")
	}
	if _, err := h.engine.Login(ctx, "a@x.com", "Secret1!"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected lock, got %v", err)
	}

	_ = h.engine.RequestPasswordReset(ctx, "a@x.com")
	if err := h.engine.ResetPassword(ctx, h.mail.resetToken("a@x.com"), "NewSecret1!"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := h.engine.Login(ctx, "a@x.com", "NewSecret1!"); err != nil {
		t.Fatalf("login after reset: %v", err)
	}
}

func TestResetPasswordValidation(t *testing.T) {
	h := newHarness(t)

	if err := h.engine.ResetPassword(context.Background(), "", "NewSecret1!"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty token, got %v", err)
	}
	if err := h.engine.ResetPassword(context.Background(), "abc", "short"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for short password, got %v", err)
	}
	if err := h.engine.ResetPassword(context.Background(), "zz", "NewSecret1!"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken for malformed token, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	view := h.registerVerified(t, "a@x.com", "Ann", "Secret1!")
	ctx := context.Background()

	if err := h.engine.ChangePassword(ctx, view.ID, "wrong-current", "NewSecret1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := h.engine.ChangePassword(ctx, view.ID, "Secret1!", "Secret1!"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unchanged password, got %v", err)
	}
	if err := h.engine.ChangePassword(ctx, view.ID, "Secret1!", "NewSecret1!"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := h.engine.Login(ctx, "a@x.com", "NewSecret1!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if err := h.engine.ChangePassword(ctx, "missing-id", "Secret1!", "NewSecret2!"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	snap := h.engine.MetricsSnapshot()
	if snap.Counters[MetricPasswordChangeSuccess] != 1 || snap.Counters[MetricPasswordChangeInvalid] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestProfileReadAndUpdate(t *testing.T) {
	h := newHarness(t)
	view := h.registerVerified(t, "a@x.com", "Ann", "Secret1!")
	ctx := context.Background()

	name := "  Ann Smith "
	img := "avatars/ann.png"
	updated, err := h.engine.UpdateProfile(ctx, view.ID, ProfileUpdate{Name: &name, ProfileImage: &img})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Ann Smith" || updated.ProfileImage != img {
		t.Fatalf("unexpected view %+v", updated)
	}

	got, err := h.engine.Profile(ctx, view.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got.Name != "Ann Smith" || got.Email != "a@x.com" || !got.IsVerified {
		t.Fatalf("unexpected profile %+v", got)
	}

	blank := "   "
	if _, err := h.engine.UpdateProfile(ctx, view.ID, ProfileUpdate{Name: &blank}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank name, got %v", err)
	}
	if _, err := h.engine.Profile(ctx, "missing-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
