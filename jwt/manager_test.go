package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newHSManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.Secret == nil {
		cfg.Secret = testSecret
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := newHSManager(t, Config{Issuer: "goaccount", Audience: "api"})
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	token, exp, err := m.Issue("acct-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.AccountID() != "acct-1" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.IssuedAt.Time.Equal(fixed) || !claims.ExpiresAt.Time.Equal(exp) {
		t.Fatalf("unexpected iat/exp %v/%v", claims.IssuedAt, claims.ExpiresAt)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := newHSManager(t, Config{})
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	token, _, err := m.Issue("acct-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = time.Now
	claims, err := m.Verify(token)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if claims != nil {
		t.Fatal("expired token must not return claims")
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	m := newHSManager(t, Config{})
	token, _, _ := m.Issue("acct-1", "a@example.com")

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := m.Verify(tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}

	other := newHSManager(t, Config{Secret: []byte("another-secret-another-secret-000")})
	if _, err := other.Verify(token); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for foreign key, got %v", err)
	}
}

func TestVerifySignatureCheckedBeforeExpiry(t *testing.T) {
	m := newHSManager(t, Config{})
	m.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	token, _, _ := m.Issue("acct-1", "a@example.com")

	other := newHSManager(t, Config{Secret: []byte("another-secret-another-secret-000")})
	if _, err := other.Verify(token); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for expired foreign token, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	m := newHSManager(t, Config{})
	for _, in := range []string{"", "   ", "abc", "a.b.c"} {
		if _, err := m.Verify(in); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%q: expected ErrMalformed, got %v", in, err)
		}
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	ed, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := Claims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "acct-1",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ed.Verify(token); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}

	good, _, err := ed.Issue("acct-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ed.Verify(good); err != nil {
		t.Fatalf("verify ed25519: %v", err)
	}
}

func TestVerifyIssuerAndAudience(t *testing.T) {
	m := newHSManager(t, Config{Issuer: "goaccount", Audience: "api"})
	wrong := newHSManager(t, Config{Issuer: "other", Audience: "api"})
	token, _, _ := wrong.Issue("acct-1", "a@example.com")
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("expected ErrInvalidClaims for issuer, got %v", err)
	}

	wrongAud := newHSManager(t, Config{Issuer: "goaccount", Audience: "web"})
	token, _, _ = wrongAud.Issue("acct-1", "a@example.com")
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("expected ErrInvalidClaims for audience, got %v", err)
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	m := newHSManager(t, Config{})
	claims := Claims{RegisteredClaims: gjwt.RegisteredClaims{Subject: "acct-1"}}
	token, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected token without exp to be rejected")
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []Config{
		{AccessTTL: 0, Secret: testSecret},
		{AccessTTL: time.Minute, Secret: []byte("short")},
		{AccessTTL: time.Minute, Secret: testSecret, Leeway: time.Hour},
		{AccessTTL: time.Minute, SigningMethod: MethodEd25519},
		{AccessTTL: time.Minute, SigningMethod: "rs256", Secret: testSecret},
	}
	for i, cfg := range cases {
		if _, err := NewManager(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}
