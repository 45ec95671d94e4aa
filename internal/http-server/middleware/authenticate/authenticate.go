package authenticate

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"phonereuse/entity"
	"phonereuse/lib/api/cont"
	"phonereuse/lib/api/response"
	"phonereuse/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

var (
	errNoHeader = errors.New("authorization header not found")
	errNoToken  = errors.New("bearer token not found")
)

type Authenticate interface {
	AuthenticateByToken(token string) (*entity.Client, error)
}

// New resolves the bearer token to an API client, stores the client in the
// request context and writes one access log line per request.
func New(log *slog.Logger, auth Authenticate) func(next http.Handler) http.Handler {
	log = log.With(sl.Module("middleware.authenticate"))
	log.Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			var client *entity.Client
			var token string
			var failure error

			defer func() {
				accessLog(log, r, ww, started, client, token, failure)
			}()

			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				failure = err
				denied(ww, r, err.Error())
				return
			}
			if auth == nil {
				failure = errors.New("authentication not enabled")
				denied(ww, r, "Unauthorized: authentication not enabled")
				return
			}
			client, err = auth.AuthenticateByToken(token)
			if err != nil {
				failure = err
				denied(ww, r, "Unauthorized: unknown token")
				return
			}

			ww.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
			ww.Header().Set("X-Client", client.Name)
			next.ServeHTTP(ww, r.WithContext(cont.PutClient(r.Context(), client)))
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoHeader
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", errNoToken
	}
	return token, nil
}

// remoteAddr prefers the proxy supplied client address.
func remoteAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

func accessLog(log *slog.Logger, r *http.Request, ww middleware.WrapResponseWriter, started time.Time, client *entity.Client, token string, failure error) {
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", remoteAddr(r)),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("status", ww.Status()),
		slog.Int("size", ww.BytesWritten()),
		slog.Float64("duration", time.Since(started).Seconds()),
	}
	if client != nil {
		attrs = append(attrs, slog.String("client", client.Name))
	}
	if failure != nil {
		if token != "" {
			attrs = append(attrs, sl.Secret("token", token))
		}
		attrs = append(attrs, sl.Err(failure))
	}
	log.With(attrs...).Info("incoming request")
}

func denied(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
