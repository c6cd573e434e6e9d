package goAccount

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/mailer"
)

// Engine runs the account credential state machine. It is safe for
// concurrent use.
type Engine struct {
	config  Config
	store   account.Store
	mailer  mailer.Mailer
	redis   redis.UniversalClient
	audit   *audit.Dispatcher
	metrics *Metrics
	log     logging.Logger
	now     func() time.Time

	deps flows.Deps
}

// Close flushes pending audit events. The store, mailer and Redis client
// belong to the caller and stay open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

type pinger interface {
	Ping(ctx context.Context) error
}

// CheckDependencies pings the store, the mailer when it supports Ping, and
// the throttle's Redis client. Failures wrap ErrDependency.
func (e *Engine) CheckDependencies(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: store: %v", ErrDependency, err)
	}
	if p, ok := e.mailer.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%w: mailer: %v", ErrDependency, err)
		}
	}
	if e.redis != nil {
		if err := e.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%w: redis: %v", ErrDependency, err)
		}
	}
	return nil
}

// timeoutMailer bounds every send by a per-call deadline.
type timeoutMailer struct {
	next    mailer.Mailer
	timeout time.Duration
}

func (m timeoutMailer) SendVerificationEmail(ctx context.Context, email, name, code string) error {
	ctx, cancel := m.context(ctx)
	defer cancel()
	return m.next.SendVerificationEmail(ctx, email, name, code)
}

func (m timeoutMailer) SendPasswordResetEmail(ctx context.Context, email, name, rawToken string) error {
	ctx, cancel := m.context(ctx)
	defer cancel()
	return m.next.SendPasswordResetEmail(ctx, email, name, rawToken)
}

func (m timeoutMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	ctx, cancel := m.context(ctx)
	defer cancel()
	return m.next.SendWelcomeEmail(ctx, email, name)
}

func (m timeoutMailer) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}
