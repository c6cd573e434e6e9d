package goAccount

import "github.com/MrEthical07/goAccount/internal/security"

// SecurityReport is a read-only snapshot of the engine's security posture,
// returned by [Engine.SecurityReport]. Warnings lists settings weaker than
// common guidance; it is informational and never blocks Build.
type SecurityReport = security.Report

// PasswordReport describes the configured password hashing.
type PasswordReport = security.PasswordReport

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	c := e.config
	pw := passwordConfig(c.Password)
	return security.BuildReport(security.ReportInput{
		SigningAlgorithm: c.JWT.SigningMethod,
		AccessTTL:        c.JWT.AccessTTL,
		Password: security.PasswordReport{
			Algorithm:   c.Password.Algorithm,
			Memory:      pw.Argon2.Memory,
			Time:        pw.Argon2.Time,
			Parallelism: pw.Argon2.Parallelism,
			BcryptCost:  c.Password.BcryptCost,
			RehashOnUse: c.Password.UpgradeOnLogin,
		},
		MaxLoginAttempts:    c.Lockout.MaxAttempts,
		LockDuration:        c.Lockout.LockDuration,
		VerificationCodeTTL: c.Verification.CodeTTL,
		ResetTokenTTL:       c.PasswordReset.TokenTTL,
		ThrottleEnabled:     c.Throttle.Enabled,
		ThrottleMax:         c.Throttle.MaxPerWindow,
		AuditEnabled:        e.audit != nil,
	})
}
