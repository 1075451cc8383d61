// Package requesttime pins one "now" per HTTP request so a code issued and its
// expiry, or a session and its token, share the same timestamp.
package requesttime

import (
	"net/http"
	"time"

	"cashwallet/pkg/requestcontext"
)

// Middleware stores the request start time; services read it with requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with a replaceable clock, for tests.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
