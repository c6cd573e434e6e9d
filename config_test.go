package goAccount

import (
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/account/memstore"
)

func TestDefaultConfigNeedsOnlyKeys(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default config without a secret to fail validation")
	}
	cfg.JWT.Secret = []byte(strings.Repeat("s", 32))
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config with secret to validate, got %v", err)
	}
	if cfg.Verification.CodeTTL != time.Hour || cfg.PasswordReset.TokenTTL != 10*time.Minute {
		t.Fatalf("unexpected secret lifetimes %v %v", cfg.Verification.CodeTTL, cfg.PasswordReset.TokenTTL)
	}
	if cfg.Lockout.MaxAttempts != 5 || cfg.Lockout.LockDuration != 15*time.Minute {
		t.Fatalf("unexpected lockout %+v", cfg.Lockout)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"short secret":       func(c *Config) { c.JWT.Secret = []byte("short") },
		"zero access ttl":    func(c *Config) { c.JWT.AccessTTL = 0 },
		"unknown method":     func(c *Config) { c.JWT.SigningMethod = "rs256" },
		"ed25519 no keys":    func(c *Config) { c.JWT.SigningMethod = "ed25519" },
		"leeway too large":   func(c *Config) { c.JWT.Leeway = time.Hour },
		"unknown algorithm":  func(c *Config) { c.Password.Algorithm = "md5" },
		"bcrypt cost":        func(c *Config) { c.Password.BcryptCost = 3 },
		"min password":       func(c *Config) { c.Validation.MinPasswordLength = 4 },
		"max below min":      func(c *Config) { c.Validation.MaxPasswordLength = 7 },
		"bcrypt min over 72": func(c *Config) { c.Validation.MinPasswordLength = 80 },
		"zero code ttl":      func(c *Config) { c.Verification.CodeTTL = 0 },
		"zero reset ttl":     func(c *Config) { c.PasswordReset.TokenTTL = 0 },
		"zero max attempts":  func(c *Config) { c.Lockout.MaxAttempts = 0 },
		"zero lock duration": func(c *Config) { c.Lockout.LockDuration = 0 },
		"throttle window":    func(c *Config) { c.Throttle.Enabled = true; c.Throttle.Window = 0 },
		"audit buffer":       func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 },
	}
	for name, mutate := range cases {
		cfg := testConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestNewPasswordMaxCappedForBcrypt(t *testing.T) {
	cfg := testConfig()
	cfg.Validation.MaxPasswordLength = 128
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected bcrypt config with max 128 to validate, got %v", err)
	}
	if got := cfg.newPasswordMax(); got != 72 {
		t.Fatalf("expected bcrypt cap 72, got %d", got)
	}

	cfg.Password.Algorithm = "argon2id"
	if got := cfg.newPasswordMax(); got != 128 {
		t.Fatalf("expected argon2id max 128, got %d", got)
	}
}

func TestBuildRequiresCollaborators(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).WithMailer(newRecordingMailer()).Build(); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := New().WithConfig(testConfig()).WithStore(memstore.New()).Build(); err == nil {
		t.Fatal("expected error without mailer")
	}

	cfg := testConfig()
	cfg.Throttle.Enabled = true
	if _, err := New().WithConfig(cfg).WithStore(memstore.New()).WithMailer(newRecordingMailer()).Build(); err == nil {
		t.Fatal("expected error for throttle without redis")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig()).WithStore(memstore.New()).WithMailer(newRecordingMailer())
	e, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestWithConfigCopiesKeyMaterial(t *testing.T) {
	cfg := testConfig()
	b := New().WithConfig(cfg)
	cfg.JWT.Secret[0] = 'x'
	if b.config.JWT.Secret[0] == 'x' {
		t.Fatal("expected builder to hold its own copy of the secret")
	}
}
