package middleware

import (
	"context"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
)

type accountContextKey struct{}

// AccountFromContext returns the account loaded by RequireAccount.
func AccountFromContext(ctx context.Context) (goAccount.AccountView, bool) {
	v, ok := ctx.Value(accountContextKey{}).(goAccount.AccountView)
	return v, ok
}

// RequireAccount is Guard plus a store lookup of the token's account. A
// token for a deleted account is rejected with goAccount.ErrNotFound passed
// to the error handler.
func RequireAccount(engine *goAccount.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(engine, r)
			if err != nil {
				o.onError(w, r, err)
				return
			}
			view, err := engine.Profile(r.Context(), claims.AccountID)
			if err != nil {
				o.onError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			ctx = context.WithValue(ctx, accountContextKey{}, view)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
