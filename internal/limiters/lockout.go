package limiters

import "time"

const (
	DefaultMaxAttempts  = 5
	DefaultLockDuration = 15 * time.Minute
)

// LockoutConfig holds the brute-force guard policy.
type LockoutConfig struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// GuardState is the slice of the account record the guard reads and writes.
type GuardState struct {
	FailedCount int
	LockedUntil time.Time
}

// Guard evaluates LoginGuard transitions. It holds no state of its own.
type Guard struct {
	config LockoutConfig
}

// NewGuard fills zero fields with defaults.
func NewGuard(cfg LockoutConfig) Guard {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = DefaultLockDuration
	}
	return Guard{config: cfg}
}

// IsLocked reports whether a lock is set and still in the future. An expired
// lock is treated as absent; it is cleared on the next successful login.
func (g Guard) IsLocked(s GuardState, now time.Time) bool {
	return !s.LockedUntil.IsZero() && s.LockedUntil.After(now)
}

// RecordFailure counts one failed attempt. When the count reaches
// MaxAttempts the lock engages and the counter restarts at zero.
func (g Guard) RecordFailure(s GuardState, now time.Time) (GuardState, bool) {
	if !s.LockedUntil.IsZero() && !s.LockedUntil.After(now) {
		s.LockedUntil = time.Time{}
	}
	s.FailedCount++
	if s.FailedCount >= g.config.MaxAttempts {
		return GuardState{LockedUntil: now.Add(g.config.LockDuration)}, true
	}
	return s, false
}

// RecordSuccess clears the counter and any lock.
func (g Guard) RecordSuccess(GuardState) GuardState {
	return GuardState{}
}
