package timeout

import (
	"context"
	"net/http"
	"time"
)

// Timeout middleware bounds the request context, and with it the registry
// lock wait and store calls made on behalf of the request. A non-positive
// timeout leaves the context untouched.
func Timeout(timeout time.Duration) func(next http.Handler) http.Handler {
	if timeout <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
