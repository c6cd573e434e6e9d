package challenges

import (
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/internal"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestIssueCode(t *testing.T) {
	code, exp, err := IssueCode(t0, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	if !exp.Equal(t0.Add(time.Hour)) {
		t.Fatalf("expected default 1h expiry, got %v", exp)
	}
}

func TestValidateCode(t *testing.T) {
	exp := t0.Add(time.Hour)
	cases := []struct {
		name     string
		stored   string
		expiry   time.Time
		supplied string
		now      time.Time
		want     Outcome
	}{
		{"accepted", "123456", exp, "123456", t0, Outcome{Accepted: true}},
		{"accepted at expiry instant", "123456", exp, "123456", exp, Outcome{Accepted: true}},
		{"no code", "", time.Time{}, "123456", t0, Outcome{Reason: ReasonNoCodeIssued}},
		{"code without expiry", "123456", time.Time{}, "123456", t0, Outcome{Reason: ReasonNoCodeIssued}},
		{"mismatch", "123456", exp, "654321", t0, Outcome{Reason: ReasonMismatch}},
		{"length mismatch", "123456", exp, "12345", t0, Outcome{Reason: ReasonMismatch}},
		{"expired", "123456", exp, "123456", exp.Add(time.Second), Outcome{Reason: ReasonExpired}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateCode(tc.stored, tc.expiry, tc.supplied, tc.now)
			if got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestIssueAndValidateResetToken(t *testing.T) {
	raw, digest, exp, err := IssueResetToken(t0, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if digest != internal.DigestResetToken(raw) {
		t.Fatal("digest does not match raw token")
	}
	if !exp.Equal(t0.Add(10 * time.Minute)) {
		t.Fatalf("expected default 10m expiry, got %v", exp)
	}

	if got := ValidateResetToken(digest, exp, raw, t0.Add(9*time.Minute)); !got.Accepted {
		t.Fatalf("expected accepted, got %+v", got)
	}
	if got := ValidateResetToken(digest, exp, raw, t0.Add(11*time.Minute)); got.Reason != ReasonExpired {
		t.Fatalf("expected expired, got %+v", got)
	}
	if got := ValidateResetToken(digest, exp, digest, t0); got.Reason != ReasonMismatch {
		t.Fatalf("digest must not be accepted as a raw token, got %+v", got)
	}
	if got := ValidateResetToken("", time.Time{}, raw, t0); got.Reason != ReasonNoTokenIssued {
		t.Fatalf("expected no token issued, got %+v", got)
	}
}

func TestReasonString(t *testing.T) {
	if ReasonExpired.String() != "expired" || Reason(99).String() != "unknown" {
		t.Fatal("unexpected reason strings")
	}
}
