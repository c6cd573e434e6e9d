package goAccount

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/password"
)

// Config is the complete Engine configuration. Start from DefaultConfig and
// override what differs; Build validates the result.
type Config struct {
	JWT           JWTConfig
	Password      PasswordConfig
	Validation    ValidationConfig
	Verification  VerificationConfig
	PasswordReset PasswordResetConfig
	Lockout       LockoutConfig
	Email         EmailConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
	Throttle      ThrottleConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls session tokens.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	// Secret is the HS256 key, at least 32 bytes.
	Secret     []byte
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	Leeway     time.Duration
	KeyID      string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the hashing algorithm. Argon2 fields left at zero
// use the package defaults.
type PasswordConfig struct {
	Algorithm   string // "argon2id" (default) or "bcrypt"
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
	// UpgradeOnLogin rehashes digests made with older parameters or another
	// algorithm after a successful login.
	UpgradeOnLogin bool
}

/*
====================================
VALIDATION CONFIG
====================================
*/

// ValidationConfig bounds request fields.
type ValidationConfig struct {
	MinPasswordLength int
	MaxPasswordLength int
	MinNameLength     int
	MaxNameLength     int
	MaxEmailLength    int
	MaxProfileImage   int
}

/*
====================================
VERIFICATION CONFIG
====================================
*/

type VerificationConfig struct {
	CodeTTL time.Duration
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

type PasswordResetConfig struct {
	TokenTTL time.Duration
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig is the login guard policy. The failure counter resets when
// the lock engages.
type LockoutConfig struct {
	MaxAttempts  int
	LockDuration time.Duration
}

/*
====================================
EMAIL CONFIG
====================================
*/

// EmailConfig bounds each call into the mailer.
type EmailConfig struct {
	SendTimeout time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig caps verification and reset mail per address. It needs a
// Redis client (Builder.WithRedis); without one it is ignored.
type ThrottleConfig struct {
	Enabled      bool
	MaxPerWindow int
	Window       time.Duration
	RedisPrefix  string
}

// DefaultConfig returns a configuration with every field set except the
// JWT key material.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "goAccount",
		},
		Password: PasswordConfig{
			Algorithm:      "argon2id",
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			BcryptCost:     12,
			UpgradeOnLogin: true,
		},
		Validation: ValidationConfig{
			MinPasswordLength: 8,
			MaxPasswordLength: 128,
			MinNameLength:     2,
			MaxNameLength:     50,
			MaxEmailLength:    254,
			MaxProfileImage:   2048,
		},
		Verification: VerificationConfig{
			CodeTTL: time.Hour,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL: 10 * time.Minute,
		},
		Lockout: LockoutConfig{
			MaxAttempts:  5,
			LockDuration: 15 * time.Minute,
		},
		Email: EmailConfig{
			SendTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Throttle: ThrottleConfig{
			Enabled:      false,
			MaxPerWindow: 3,
			Window:       15 * time.Minute,
			RedisPrefix:  "acct:throttle",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	switch c.JWT.SigningMethod {
	case "hs256", "":
		if len(c.JWT.Secret) < 32 {
			return errors.New("hs256 requires a Secret of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 && len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey or PublicKey")
		}
	default:
		return fmt.Errorf("unsupported JWT signing method %q", c.JWT.SigningMethod)
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Password
	switch c.Password.Algorithm {
	case "argon2id", "bcrypt", "":
	default:
		return fmt.Errorf("unsupported password algorithm %q", c.Password.Algorithm)
	}
	if c.Password.BcryptCost != 0 && (c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31) {
		return errors.New("Password BcryptCost must be between 4 and 31")
	}

	// Validation
	v := c.Validation
	if v.MinPasswordLength < 8 {
		return errors.New("Validation MinPasswordLength must be >= 8")
	}
	if v.MaxPasswordLength < v.MinPasswordLength {
		return errors.New("Validation MaxPasswordLength must be >= MinPasswordLength")
	}
	if c.Password.Algorithm == "bcrypt" && v.MinPasswordLength > password.BcryptMaxPasswordBytes {
		return fmt.Errorf("Validation MinPasswordLength must be <= %d with bcrypt", password.BcryptMaxPasswordBytes)
	}
	if v.MinNameLength < 1 || v.MaxNameLength < v.MinNameLength {
		return errors.New("Validation name bounds are invalid")
	}
	if v.MaxEmailLength <= 0 || v.MaxProfileImage <= 0 {
		return errors.New("Validation MaxEmailLength and MaxProfileImage must be > 0")
	}

	// Secrets
	if c.Verification.CodeTTL <= 0 {
		return errors.New("Verification CodeTTL must be > 0")
	}
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}

	// Lockout
	if c.Lockout.MaxAttempts <= 0 {
		return errors.New("Lockout MaxAttempts must be > 0")
	}
	if c.Lockout.LockDuration <= 0 {
		return errors.New("Lockout LockDuration must be > 0")
	}

	if c.Email.SendTimeout < 0 {
		return errors.New("Email SendTimeout must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Throttle.Enabled {
		if c.Throttle.MaxPerWindow <= 0 {
			return errors.New("Throttle MaxPerWindow must be > 0")
		}
		if c.Throttle.Window <= 0 {
			return errors.New("Throttle Window must be > 0")
		}
	}
	return nil
}

// newPasswordMax is the upper bound for passwords about to be hashed. bcrypt
// caps it at 72 bytes; login keeps MaxPasswordLength so digests made under
// another algorithm still verify.
func (c Config) newPasswordMax() int {
	if c.Password.Algorithm == "bcrypt" && c.Validation.MaxPasswordLength > password.BcryptMaxPasswordBytes {
		return password.BcryptMaxPasswordBytes
	}
	return c.Validation.MaxPasswordLength
}
