package internal

import (
	"bytes"
	"strconv"
	"testing"
)

func TestNewVerificationCodeRange(t *testing.T) {
	for i := 0; i < 2000; i++ {
		code, err := NewVerificationCode()
		if err != nil {
			t.Fatalf("code: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 100000 || n > 999999 {
			t.Fatalf("code out of range: %q", code)
		}
	}
}

func TestNewVerificationCodeRejectsBiasedSamples(t *testing.T) {
	orig := Reader
	defer func() { Reader = orig }()

	// First sample is above the rejection limit, second maps to 0.
	Reader = bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00})
	code, err := NewVerificationCode()
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if code != "100000" {
		t.Fatalf("expected 100000, got %q", code)
	}
}

func TestNewVerificationCodeEntropyFailure(t *testing.T) {
	orig := Reader
	defer func() { Reader = orig }()
	Reader = bytes.NewReader(nil)

	if _, err := NewVerificationCode(); err == nil {
		t.Fatal("expected error when entropy source fails")
	}
}

func TestResetTokenAndDigest(t *testing.T) {
	raw, err := NewResetToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if len(raw) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(raw))
	}
	if err := ValidResetTokenShape(raw); err != nil {
		t.Fatalf("shape: %v", err)
	}

	d1 := DigestResetToken(raw)
	if d1 == raw || len(d1) != 64 || d1 != DigestResetToken(raw) {
		t.Fatalf("unexpected digest %q", d1)
	}

	other, _ := NewResetToken()
	if other == raw {
		t.Fatal("expected distinct tokens")
	}
}

func TestValidResetTokenShape(t *testing.T) {
	for _, in := range []string{"", "abc", string(bytes.Repeat([]byte("z"), 64))} {
		if err := ValidResetTokenShape(in); err == nil {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}
