package ratelimit

import (
	"log/slog"
	"net/http"
	"phonereuse/lib/api/response"
	"phonereuse/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// New throttles the whole API to perSecond requests with the given burst.
// A non-positive perSecond disables throttling.
func New(log *slog.Logger, perSecond float64, burst int) func(next http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	mod := sl.Module("middleware.ratelimit")
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.With(
					mod,
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				).Debug("rate limit exceeded")
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("Too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
