package goAccount

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/account/memstore"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingMailer struct {
	mu          sync.Mutex
	codes       map[string]string
	resets      map[string]string
	welcomes    []string
	failVerify  bool
	failWelcome bool
	failReset   bool
	verifySends int
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{codes: map[string]string{}, resets: map[string]string{}}
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, email, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failVerify {
		return errors.New("smtp down")
	}
	m.verifySends++
	m.codes[email] = code
	return nil
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, email, _, rawToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReset {
		return errors.New("smtp down")
	}
	m.resets[email] = rawToken
	return nil
}

func (m *recordingMailer) SendWelcomeEmail(_ context.Context, email, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWelcome {
		return errors.New("smtp down")
	}
	m.welcomes = append(m.welcomes, email)
	return nil
}

func (m *recordingMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func (m *recordingMailer) resetToken(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[email]
}

func (m *recordingMailer) welcomeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.welcomes)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("k", 32))
	cfg.Password.Algorithm = "bcrypt"
	cfg.Password.BcryptCost = 4
	return cfg
}

type harness struct {
	engine *Engine
	store  *memstore.Store
	mail   *recordingMailer
	clock  *testClock
}

func newHarness(t *testing.T, mutate ...func(*Builder)) *harness {
	t.Helper()
	clock := newTestClock()
	h := &harness{
		store: memstore.New(memstore.WithClock(clock.Now)),
		mail:  newRecordingMailer(),
		clock: clock,
	}
	b := New().
		WithConfig(testConfig()).
		WithStore(h.store).
		WithMailer(h.mail).
		WithClock(clock.Now)
	for _, fn := range mutate {
		fn(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	h.engine = engine
	return h
}

func (h *harness) register(t *testing.T, email, name, password string) AccountView {
	t.Helper()
	view, err := h.engine.Register(context.Background(), RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return view
}

func (h *harness) registerVerified(t *testing.T, email, name, password string) AccountView {
	t.Helper()
	h.register(t, email, name, password)
	view, err := h.engine.VerifyCode(context.Background(), h.mail.code(account.NormalizeEmail(email)))
	if err != nil {
		t.Fatalf("verify %s: %v", email, err)
	}
	return view
}

func (h *harness) stored(t *testing.T, email string) *account.Account {
	t.Helper()
	acct, err := h.store.GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("load %s: %v", email, err)
	}
	return acct
}

func TestRegisterCreatesUnverifiedAccountWithCode(t *testing.T) {
	h := newHarness(t)

	view := h.register(t, "a@x.com", "Ann", "Secret1!")
	if view.IsVerified {
		t.Fatal("expected new account to be unverified")
	}
	if view.ID == "" || view.Email != "a@x.com" || view.Name != "Ann" {
		t.Fatalf("unexpected view %+v", view)
	}

	acct := h.stored(t, "a@x.com")
	if acct.Status != account.StatusUnverified {
		t.Fatalf("expected unverified, got %v", acct.Status)
	}
	if len(acct.VerificationCode) != 6 {
		t.Fatalf("expected 6-digit code, got %q", acct.VerificationCode)
	}
	for _, r := range acct.VerificationCode {
		if r < '0' || r > '9' {
			t.Fatalf("code must be digits only, got %q", acct.VerificationCode)
		}
	}
	if want := h.clock.Now().Add(time.Hour); !acct.VerificationCodeExpiresAt.Equal(want) {
		t.Fatalf("expected code expiry %v, got %v", want, acct.VerificationCodeExpiresAt)
	}
	if acct.PasswordDigest == "" || acct.PasswordDigest == "Secret1!" {
		t.Fatal("expected password to be stored as a digest")
	}
	if h.mail.code("a@x.com") != acct.VerificationCode {
		t.Fatal("expected the stored code to be mailed")
	}
}

func TestRegisterRejectsDuplicateNormalizedEmail(t *testing.T) {
	h := newHarness(t)
	h.register(t, "a@x.com", "Ann", "Secret1!")

	for _, email := range []string{"a@x.com", "A@X.COM", "  a@X.com  "} {
		_, err := h.engine.Register(context.Background(), RegisterRequest{Name: "Other", Email: email, Password: "Secret2!"})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("%q: expected ErrConflict, got %v", email, err)
		}
	}
	if got := h.engine.MetricsSnapshot().Counters[MetricRegisterDuplicate]; got != 3 {
		t.Fatalf("expected 3 duplicate registrations counted, got %d", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.Register(context.Background(), RegisterRequest{Name: "A", Email: "not-an-email", Password: "short"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"email", "name", "password"} {
		if !fields[want] {
			t.Fatalf("expected field %q in %+v", want, verr.Fields)
		}
	}
	if h.store.Len() != 0 {
		t.Fatal("expected no account to be created")
	}
}

func TestRegisterRollsBackWhenVerificationEmailFails(t *testing.T) {
	h := newHarness(t)
	h.mail.failVerify = true

	_, err := h.engine.Register(context.Background(), RegisterRequest{Name: "Ann", Email: "a@x.com", Password: "Secret1!"})
	if !errors.Is(err, ErrDependency) {
		t.Fatalf("expected ErrDependency, got %v", err)
	}
	if h.store.Len() != 0 {
		t.Fatalf("expected rollback, store has %d accounts", h.store.Len())
	}
	if got := h.engine.MetricsSnapshot().Counters[MetricRegisterRollback]; got != 1 {
		t.Fatalf("expected one rollback counted, got %d", got)
	}

	h.mail.failVerify = false
	h.register(t, "a@x.com", "Ann", "Secret1!")
}

func TestVerifyCodeIsSingleUse(t *testing.T) {
	h := newHarness(t)
	h.register(t, "a@x.com", "Ann", "Secret1!")
	code := h.mail.code("a@x.com")

	view, err := h.engine.VerifyCode(context.Background(), code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !view.IsVerified {
		t.Fatal("expected verified view")
	}
	acct := h.stored(t, "a@x.com")
	if acct.VerificationCode != "" || !acct.VerificationCodeExpiresAt.IsZero() {
		t.Fatal("expected code to be cleared")
	}

	if _, err := h.engine.VerifyCode(context.Background(), code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode on reuse, got %v", err)
	}
	if _, err := h.engine.VerifyEmailCode(context.Background(), "a@x.com", code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode on scoped reuse, got %v", err)
	}
	if h.mail.welcomeCount() != 1 {
		t.Fatalf("expected exactly one welcome email, got %d", h.mail.welcomeCount())
	}
}

func TestVerifyCodeConcurrentSingleSuccess(t *testing.T) {
	h := newHarness(t)
	h.register(t, "a@x.com", "Ann", "Secret1!")
	code := h.mail.code("a@x.com")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.VerifyCode(context.Background(), code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInvalidOrExpiredCode):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || rejected != workers-1 {
		t.Fatalf("expected 1 success and %d rejections, got %d and %d", workers-1, successes, rejected)
	}
	if h.mail.welcomeCount() != 1 {
		t.Fatalf("expected one welcome email, got %d", h.mail.welcomeCount())
	}
}

func TestVerifyEmailCodeScopedToOwner(t *testing.T) {
	h := newHarness(t)
	h.register(t, "a@x.com", "Ann", "Secret1!")
	h.register(t, "b@x.com", "Bob", "Secret1!")

	_, err := h.engine.VerifyEmailCode(context.Background(), "b@x.com", h.mail.code("a@x.com"))
	if !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode, got %v", err)
	}
	if h.stored(t, "a@x.com").Verified() {
		t.Fatal("code of a@x.com must not verify through another address")
	}

	if _, err := h.engine.VerifyEmailCode(context.Background(), " A@X.com", h.mail.code("a@x.com")); err != nil {
		t.Fatalf("expected scoped verify to succeed, got %v", err)
	}
}

func TestVerifyCodeExpired(t *testing.T) {
	h := newHarness(t)
	h.register(t, "a@x.com", "Ann", "Secret1!")
	code := h.mail.code("a@x.com")

	h.clock.Advance(time.Hour + time.Second)
	if _, err := h.engine.VerifyCode(context.Background(), code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode, got %v", err)
	}

	st, err := h.engine.VerificationStatus(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.IsVerified || !st.HasVerificationCode || !st.VerificationCodeExpired {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestResendVerificationReplacesCode(t *testing.T) {
	h := newHarness(t)
	h.register(t, "a@x.com", "Ann", "Secret1!")
	first := h.mail.code("a@x.com")

	for {
		if err := h.engine.ResendVerification(context.Background(), "a@x.com"); err != nil {
			t.Fatalf("resend: %v", err)
		}
		if h.mail.code("a@x.com") != first {
			break
		}
	}
	second := h.mail.code("a@x.com")

	if _, err := h.engine.VerifyCode(context.Background(), first); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected old code to be rejected, got %v", err)
	}
	if _, err := h.engine.VerifyCode(context.Background(), second); err != nil {
		t.Fatalf("expected new code to verify, got %v", err)
	}
}

func TestResendVerificationIsSilentForUnknownAndVerified(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "a@x.com", "Ann", "Secret1!")
	sends := h.mail.verifySends

	if err := h.engine.ResendVerification(context.Background(), "nobody@x.com"); err != nil {
		t.Fatalf("unknown address: expected nil, got %v", err)
	}
	if err := h.engine.ResendVerification(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("verified address: expected nil, got %v", err)
	}
	if h.mail.verifySends != sends {
		t.Fatal("expected no verification mail for unknown or verified addresses")
	}
	if err := h.engine.ResendVerification(context.Background(), "bogus"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed email, got %v", err)
	}
}

func TestWelcomeEmailFailureDoesNotFailVerification(t *testing.T) {
	h := newHarness(t)
	h.register(t, "a@x.com", "Ann", "Secret1!")
	h.mail.failWelcome = true

	if _, err := h.engine.VerifyCode(context.Background(), h.mail.code("a@x.com")); err != nil {
		t.Fatalf("expected verification to succeed, got %v", err)
	}
	if got := h.engine.MetricsSnapshot().Counters[MetricEmailFailure]; got != 1 {
		t.Fatalf("expected email failure counted, got %d", got)
	}
}

func TestVerificationStatusUnknown(t *testing.T) {
	h := newHarness(t)
	if _, err := h.engine.VerificationStatus(context.Background(), "nobody@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type pingMailer struct {
	*recordingMailer
	err error
}

func (m pingMailer) Ping(context.Context) error { return m.err }

func TestCheckDependencies(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.CheckDependencies(context.Background()); err != nil {
		t.Fatalf("expected healthy dependencies, got %v", err)
	}

	down := pingMailer{recordingMailer: newRecordingMailer(), err: errors.New("smtp down")}
	h = newHarness(t, func(b *Builder) { b.WithMailer(down) })
	err := h.engine.CheckDependencies(context.Background())
	if !errors.Is(err, ErrDependency) {
		t.Fatalf("expected ErrDependency, got %v", err)
	}
	if !strings.Contains(err.Error(), "mailer") {
		t.Fatalf("expected mailer in error, got %v", err)
	}

	var nilEngine *Engine
	if err := nilEngine.CheckDependencies(context.Background()); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestBcryptRejectsOverlongPasswordsAsValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	long := strings.Repeat("p", 100)

	_, err := h.engine.Register(ctx, RegisterRequest{Name: "Ann", Email: "a@x.com", Password: long})
	if !errors.Is(err, ErrValidation) || errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrValidation for a 100-byte password, got %v", err)
	}

	view := h.registerVerified(t, "b@x.com", "Bob", strings.Repeat("q", 72))
	if err := h.engine.ChangePassword(ctx, view.ID, strings.Repeat("q", 72), long); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation on change, got %v", err)
	}

	if err := h.engine.RequestPasswordReset(ctx, "b@x.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if err := h.engine.ResetPassword(ctx, h.mail.resetToken("b@x.com"), long); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation on reset, got %v", err)
	}
}
