package challenges

import (
	"crypto/subtle"
	"time"

	"github.com/MrEthical07/goAccount/internal"
)

// DefaultCodeTTL is the verification code lifetime when none is configured.
const DefaultCodeTTL = time.Hour

// IssueCode returns a fresh code and its expiry. The caller overwrites any
// prior code with it.
func IssueCode(now time.Time, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	code, err := internal.NewVerificationCode()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, now.Add(ttl), nil
}

// ValidateCode checks supplied against the stored code. A code is valid up
// to and including its expiry instant.
func ValidateCode(storedCode string, storedExpiry time.Time, supplied string, now time.Time) Outcome {
	if storedCode == "" || storedExpiry.IsZero() {
		return rejected(ReasonNoCodeIssued)
	}
	if subtle.ConstantTimeCompare([]byte(storedCode), []byte(supplied)) != 1 {
		return rejected(ReasonMismatch)
	}
	if now.After(storedExpiry) {
		return rejected(ReasonExpired)
	}
	return accepted()
}
