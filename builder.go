package goAccount

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/internal/limiters"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/mailer"
	"github.com/MrEthical07/goAccount/password"
)

// Builder assembles an Engine. A Builder is single-use; configure it during
// initialization and call Build once.
type Builder struct {
	config Config
	store  account.Store
	mailer mailer.Mailer
	redis  redis.UniversalClient
	logger logging.Logger

	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the account store. Required.
func (b *Builder) WithStore(store account.Store) *Builder {
	b.store = store
	return b
}

// WithMailer sets the email gateway. Required.
func (b *Builder) WithMailer(m mailer.Mailer) *Builder {
	b.mailer = m
	return b
}

// WithRedis supplies the client used by the mail throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(log logging.Logger) *Builder {
	b.logger = log
	return b
}

// WithAuditSink enables audit dispatch to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock replaces time.Now for expiry checks and lock windows. Tokens
// are always stamped with the wall clock.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("account store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}
	if cfg.Throttle.Enabled && b.redis == nil {
		return nil, errors.New("Throttle requires redis client")
	}

	log := b.logger
	if log == nil {
		log = logging.Nop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- PASSWORDS --------
	verifier, err := password.New(passwordConfig(cfg.Password))
	if err != nil {
		return nil, err
	}
	var hasher flows.Hasher = verifier
	if !cfg.Password.UpgradeOnLogin {
		hasher = pinnedHasher{verifier}
	}
	dummy, err := dummyDigest(verifier)
	if err != nil {
		return nil, err
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		Secret:        cloneBytes(cfg.JWT.Secret),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config: cfg,
		store:  b.store,
		mailer: b.mailer,
		redis:  b.redis,
		log:    log.With("component", "account_engine"),
		now:    now,
	}
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled || b.auditSink != nil,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Log:        engine.log,
	}, b.auditSink)

	var throttle *limiters.MailThrottle
	if cfg.Throttle.Enabled {
		throttle = limiters.NewMailThrottle(b.redis, limiters.ThrottleConfig{
			MaxPerWindow: cfg.Throttle.MaxPerWindow,
			Window:       cfg.Throttle.Window,
			KeyPrefix:    cfg.Throttle.RedisPrefix,
		})
	}

	engine.deps = flows.Deps{
		Store:     b.store,
		Passwords: hasher,
		Tokens:    jm,
		Mailer:    timeoutMailer{next: b.mailer, timeout: cfg.Email.SendTimeout},
		Guard: limiters.NewGuard(limiters.LockoutConfig{
			MaxAttempts:  cfg.Lockout.MaxAttempts,
			LockDuration: cfg.Lockout.LockDuration,
		}),
		Throttle:    throttle,
		Log:         engine.log,
		CodeTTL:     cfg.Verification.CodeTTL,
		ResetTTL:    cfg.PasswordReset.TokenTTL,
		DummyDigest: dummy,

		NewID:               uuid.NewString,
		Now:                 now,
		ClientIPFromContext: clientIPFromContext,

		MetricInc: func(id int) {
			engine.metrics.Inc(MetricID(id))
		},
		MetricObserve: func(id int, d time.Duration) {
			engine.metrics.Observe(MetricID(id), d)
		},
		EmitAudit: engine.emitAudit,

		Metrics: flowMetrics(),
		Events:  flowEvents(),
		Errors:  flowErrors(),
	}

	b.built = true

	return engine, nil
}

func passwordConfig(c PasswordConfig) password.Config {
	def := password.DefaultArgon2Config()
	a := password.Argon2Config{
		Memory:      c.Memory,
		Time:        c.Time,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
	if a.Memory == 0 {
		a.Memory = def.Memory
	}
	if a.Time == 0 {
		a.Time = def.Time
	}
	if a.Parallelism == 0 {
		a.Parallelism = def.Parallelism
	}
	if a.SaltLength == 0 {
		a.SaltLength = def.SaltLength
	}
	if a.KeyLength == 0 {
		a.KeyLength = def.KeyLength
	}
	return password.Config{
		Algorithm:  password.Algorithm(c.Algorithm),
		Argon2:     a,
		BcryptCost: c.BcryptCost,
	}
}

// dummyDigest hashes a random throwaway password. Logins for unknown
// addresses verify against it.
func dummyDigest(v *password.Verifier) (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("dummy digest: %w", err)
	}
	return v.Hash(hex.EncodeToString(raw[:]))
}

// pinnedHasher never asks for a rehash.
type pinnedHasher struct {
	*password.Verifier
}

func (pinnedHasher) NeedsUpgrade(string) (bool, error) { return false, nil }

func flowMetrics() flows.Metrics {
	return flows.Metrics{
		RegisterSuccess:       int(MetricRegisterSuccess),
		RegisterDuplicate:     int(MetricRegisterDuplicate),
		RegisterRollback:      int(MetricRegisterRollback),
		VerificationResent:    int(MetricVerificationResent),
		VerificationSuccess:   int(MetricVerificationSuccess),
		VerificationFailure:   int(MetricVerificationFailure),
		LoginSuccess:          int(MetricLoginSuccess),
		LoginFailure:          int(MetricLoginFailure),
		LoginLocked:           int(MetricLoginLocked),
		LoginNotVerified:      int(MetricLoginNotVerified),
		AccountLocked:         int(MetricAccountLocked),
		PasswordResetRequest:  int(MetricPasswordResetRequest),
		PasswordResetSuccess:  int(MetricPasswordResetSuccess),
		PasswordResetFailure:  int(MetricPasswordResetFailure),
		PasswordChangeSuccess: int(MetricPasswordChangeSuccess),
		PasswordChangeInvalid: int(MetricPasswordChangeInvalid),
		PasswordRehash:        int(MetricPasswordRehash),
		RefreshSuccess:        int(MetricRefreshSuccess),
		RefreshFailure:        int(MetricRefreshFailure),
		EmailFailure:          int(MetricEmailFailure),
		MailThrottled:         int(MetricMailThrottled),
		LoginLatency:          int(MetricLoginLatency),
	}
}

func flowErrors() flows.Errors {
	return flows.Errors{
		Validation:            ErrValidation,
		Conflict:              ErrConflict,
		InvalidCredentials:    ErrInvalidCredentials,
		NotVerified:           ErrNotVerified,
		AccountLocked:         ErrAccountLocked,
		InvalidOrExpiredCode:  ErrInvalidOrExpiredCode,
		InvalidOrExpiredToken: ErrInvalidOrExpiredToken,
		NotFound:              ErrNotFound,
		Dependency:            ErrDependency,
		Internal:              ErrInternal,
	}
}
