package security

import "time"

// Thresholds below which BuildReport adds a warning.
const (
	minArgon2MemoryKiB = 19 * 1024
	minBcryptCost      = 10
	maxAccessTTL       = 7 * 24 * time.Hour
	maxResetTTL        = time.Hour
	maxCodeTTL         = 24 * time.Hour
	maxLoginAttempts   = 10
)

type PasswordReport struct {
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	BcryptCost  int
	RehashOnUse bool
}

type Report struct {
	SigningAlgorithm    string
	AccessTTL           time.Duration
	Password            PasswordReport
	LockoutActive       bool
	MaxLoginAttempts    int
	LockDuration        time.Duration
	VerificationCodeTTL time.Duration
	ResetTokenTTL       time.Duration
	MailThrottleActive  bool
	AuditActive         bool
	Warnings            []string
}

type ReportInput struct {
	SigningAlgorithm    string
	AccessTTL           time.Duration
	Password            PasswordReport
	MaxLoginAttempts    int
	LockDuration        time.Duration
	VerificationCodeTTL time.Duration
	ResetTokenTTL       time.Duration
	ThrottleEnabled     bool
	ThrottleMax         int
	AuditEnabled        bool
}

func BuildReport(input ReportInput) Report {
	r := Report{
		SigningAlgorithm:    input.SigningAlgorithm,
		AccessTTL:           input.AccessTTL,
		Password:            input.Password,
		LockoutActive:       input.MaxLoginAttempts > 0 && input.LockDuration > 0,
		MaxLoginAttempts:    input.MaxLoginAttempts,
		LockDuration:        input.LockDuration,
		VerificationCodeTTL: input.VerificationCodeTTL,
		ResetTokenTTL:       input.ResetTokenTTL,
		MailThrottleActive:  input.ThrottleEnabled && input.ThrottleMax > 0,
		AuditActive:         input.AuditEnabled,
	}

	switch input.Password.Algorithm {
	case "bcrypt":
		if input.Password.BcryptCost < minBcryptCost {
			r.Warnings = append(r.Warnings, "bcrypt cost below 10")
		}
	default:
		if input.Password.Memory < minArgon2MemoryKiB {
			r.Warnings = append(r.Warnings, "argon2id memory below 19 MiB")
		}
	}
	if input.AccessTTL > maxAccessTTL {
		r.Warnings = append(r.Warnings, "session tokens live longer than 7 days")
	}
	if input.ResetTokenTTL > maxResetTTL {
		r.Warnings = append(r.Warnings, "reset tokens live longer than 1 hour")
	}
	if input.VerificationCodeTTL > maxCodeTTL {
		r.Warnings = append(r.Warnings, "verification codes live longer than 24 hours")
	}
	if !r.LockoutActive || input.MaxLoginAttempts > maxLoginAttempts {
		r.Warnings = append(r.Warnings, "login lockout is weak or disabled")
	}
	return r
}
