package limiters

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/internal/rate"
	"github.com/redis/go-redis/v9"
)

// Mail throttle scopes.
const (
	ScopeResend = "resend"
	ScopeReset  = "reset"
)

// ThrottleConfig caps mail dispatch per email address.
type ThrottleConfig struct {
	MaxPerWindow int
	Window       time.Duration
	KeyPrefix    string
}

// MailThrottle limits how often a single address is sent verification or
// reset mail.
type MailThrottle struct {
	limiter *rate.Limiter
}

// NewMailThrottle returns a throttle over redisClient.
func NewMailThrottle(redisClient redis.UniversalClient, cfg ThrottleConfig) *MailThrottle {
	return &MailThrottle{limiter: rate.New(redisClient, rate.Config{
		MaxPerWindow: cfg.MaxPerWindow,
		Window:       cfg.Window,
		Prefix:       cfg.KeyPrefix,
	})}
}

// Allow records a dispatch for (scope, email). It returns false, nil when
// the budget is spent, and true with the error when Redis fails so that an
// outage never blocks mail.
func (t *MailThrottle) Allow(ctx context.Context, scope, email string) (bool, error) {
	if t == nil || t.limiter == nil {
		return true, nil
	}
	err := t.limiter.Hit(ctx, scope, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, rate.ErrRateLimited):
		return false, nil
	default:
		return true, err
	}
}
