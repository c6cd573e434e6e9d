package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
)

// ErrMissingToken is passed to the error handler when the Authorization
// header is absent or not a bearer token.
var ErrMissingToken = errors.New("missing bearer token")

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by a guard.
func ClaimsFromContext(ctx context.Context) (*goAccount.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*goAccount.Claims)
	return c, ok
}

// ErrorHandler writes the rejection for a failed guard.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a guard.
type Option func(*options)

type options struct {
	onError ErrorHandler
}

// WithErrorHandler replaces the default plain-text 401.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

func defaultUnauthorized(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func buildOptions(opts []Option) options {
	o := options{onError: defaultUnauthorized}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Guard rejects requests without a valid bearer token and stores the
// verified claims on the request context.
func Guard(engine *goAccount.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(engine, r)
			if err != nil {
				o.onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey{}, claims)))
		})
	}
}

// OptionalToken attaches claims when the request carries a valid bearer
// token. Requests without one, or with a bad one, continue unauthenticated.
func OptionalToken(engine *goAccount.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := authenticate(engine, r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), claimsContextKey{}, claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(engine *goAccount.Engine, r *http.Request) (*goAccount.Claims, error) {
	if engine == nil {
		return nil, goAccount.ErrEngineNotReady
	}
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, ErrMissingToken
	}
	return engine.Authenticate(r.Context(), token)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
