package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/account/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *codeMailer) SendVerificationEmail(_ context.Context, email, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *codeMailer) SendPasswordResetEmail(context.Context, string, string, string) error {
	return nil
}

func (m *codeMailer) SendWelcomeEmail(context.Context, string, string) error { return nil }

type fixture struct {
	engine *goAccount.Engine
	store  *memstore.Store
	token  string
	id     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := goAccount.DefaultConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("m", 32))
	cfg.Password.Algorithm = "bcrypt"
	cfg.Password.BcryptCost = 4

	store := memstore.New()
	mailer := &codeMailer{codes: map[string]string{}}
	engine, err := goAccount.New().WithConfig(cfg).WithStore(store).WithMailer(mailer).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	ctx := context.Background()
	view, err := engine.Register(ctx, goAccount.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	_, err = engine.VerifyCode(ctx, mailer.codes["ada@example.com"])
	require.NoError(t, err)
	res, err := engine.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)

	return fixture{engine: engine, store: store, token: res.Token, id: view.ID}
}

func claimsEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(claims.AccountID))
	})
}

func serve(h http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuardAcceptsValidBearer(t *testing.T) {
	f := newFixture(t)
	h := Guard(f.engine)(claimsEcho(t))

	rec := serve(h, "Bearer "+f.token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, f.id, rec.Body.String())

	rec = serve(h, "bearer "+f.token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRejectsMissingAndInvalidTokens(t *testing.T) {
	f := newFixture(t)
	h := Guard(f.engine)(claimsEcho(t))

	for _, auth := range []string{"", "Bearer ", "Basic abc", "Bearer not.a.jwt", "Bearer " + f.token + "x"} {
		rec := serve(h, auth)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "auth=%q", auth)
	}
}

func TestGuardCustomErrorHandler(t *testing.T) {
	f := newFixture(t)
	var got error
	h := Guard(f.engine, WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	}))(claimsEcho(t))

	rec := serve(h, "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, got, ErrMissingToken)

	rec = serve(h, "Bearer garbage")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, got, goAccount.ErrInvalidOrExpiredToken)
}

func TestGuardNilEngine(t *testing.T) {
	rec := serve(Guard(nil)(claimsEcho(t)), "Bearer x")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAccountRejectsDeletedAccount(t *testing.T) {
	f := newFixture(t)
	var got error
	h := RequireAccount(f.engine, WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusUnauthorized)
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view, ok := AccountFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(view.Email))
	}))

	rec := serve(h, "Bearer "+f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", rec.Body.String())

	require.NoError(t, f.store.Delete(context.Background(), f.id))

	rec = serve(h, "Bearer "+f.token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, errors.Is(got, goAccount.ErrNotFound), "got %v", got)
}

func TestOptionalTokenPassesThrough(t *testing.T) {
	f := newFixture(t)
	h := OptionalToken(f.engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); ok {
			_, _ = w.Write([]byte("authed"))
			return
		}
		_, _ = w.Write([]byte("anon"))
	}))

	assert.Equal(t, "authed", serve(h, "Bearer "+f.token).Body.String())
	assert.Equal(t, "anon", serve(h, "").Body.String())
	assert.Equal(t, "anon", serve(h, "Bearer junk").Body.String())
}
