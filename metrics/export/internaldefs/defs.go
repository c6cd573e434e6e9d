package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: goAccount.MetricRegisterSuccess, Name: "account_register_success_total", Help: "Successful registrations."},
	{ID: goAccount.MetricRegisterDuplicate, Name: "account_register_duplicate_total", Help: "Registrations rejected for a taken email."},
	{ID: goAccount.MetricRegisterRollback, Name: "account_register_rollback_total", Help: "Registrations rolled back after the verification email failed."},
	{ID: goAccount.MetricVerificationResent, Name: "account_verification_resent_total", Help: "Verification codes reissued."},
	{ID: goAccount.MetricVerificationSuccess, Name: "account_verification_success_total", Help: "Successful email verifications."},
	{ID: goAccount.MetricVerificationFailure, Name: "account_verification_failure_total", Help: "Rejected verification codes."},
	{ID: goAccount.MetricLoginSuccess, Name: "account_login_success_total", Help: "Successful logins."},
	{ID: goAccount.MetricLoginFailure, Name: "account_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: goAccount.MetricLoginLocked, Name: "account_login_locked_total", Help: "Logins rejected while the account was locked."},
	{ID: goAccount.MetricLoginNotVerified, Name: "account_login_not_verified_total", Help: "Logins rejected for unverified accounts."},
	{ID: goAccount.MetricAccountLocked, Name: "account_locked_total", Help: "Login guard lock engagements."},
	{ID: goAccount.MetricPasswordResetRequest, Name: "account_password_reset_request_total", Help: "Password reset requests."},
	{ID: goAccount.MetricPasswordResetSuccess, Name: "account_password_reset_success_total", Help: "Completed password resets."},
	{ID: goAccount.MetricPasswordResetFailure, Name: "account_password_reset_failure_total", Help: "Rejected password reset tokens."},
	{ID: goAccount.MetricPasswordChangeSuccess, Name: "account_password_change_success_total", Help: "Successful password changes."},
	{ID: goAccount.MetricPasswordChangeInvalid, Name: "account_password_change_invalid_total", Help: "Password changes rejected for a wrong current password."},
	{ID: goAccount.MetricPasswordRehash, Name: "account_password_rehash_total", Help: "Digests upgraded on login."},
	{ID: goAccount.MetricRefreshSuccess, Name: "account_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goAccount.MetricRefreshFailure, Name: "account_refresh_failure_total", Help: "Rejected token refreshes."},
	{ID: goAccount.MetricEmailFailure, Name: "account_email_failure_total", Help: "Failed email dispatches."},
	{ID: goAccount.MetricMailThrottled, Name: "account_mail_throttled_total", Help: "Emails suppressed by the per-address throttle."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goAccount.MetricLoginLatency, Name: "account_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds are the upper bounds of the engine's latency buckets.
var HistogramBounds = []string{
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds made safe for metric names.
var HistogramBoundSuffix = []string{
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing
// buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
