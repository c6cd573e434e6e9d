package challenges

import (
	"crypto/subtle"
	"time"

	"github.com/MrEthical07/goAccount/internal"
)

// DefaultResetTTL is the reset token lifetime when none is configured.
const DefaultResetTTL = 10 * time.Minute

// IssueResetToken returns the raw token to send, its digest to persist, and
// the expiry.
func IssueResetToken(now time.Time, ttl time.Duration) (raw, digest string, expiresAt time.Time, err error) {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	raw, err = internal.NewResetToken()
	if err != nil {
		return "", "", time.Time{}, err
	}
	return raw, internal.DigestResetToken(raw), now.Add(ttl), nil
}

// ValidateResetToken digests suppliedRaw and compares it with storedDigest.
func ValidateResetToken(storedDigest string, storedExpiry time.Time, suppliedRaw string, now time.Time) Outcome {
	if storedDigest == "" || storedExpiry.IsZero() {
		return rejected(ReasonNoTokenIssued)
	}
	supplied := internal.DigestResetToken(suppliedRaw)
	if subtle.ConstantTimeCompare([]byte(storedDigest), []byte(supplied)) != 1 {
		return rejected(ReasonMismatch)
	}
	if now.After(storedExpiry) {
		return rejected(ReasonExpired)
	}
	return accepted()
}
