package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"phonereuse/internal/config"
	"phonereuse/internal/http-server/handlers/errors"
	"phonereuse/internal/http-server/handlers/numbers"
	"phonereuse/internal/http-server/handlers/stats"
	"phonereuse/internal/http-server/middleware/authenticate"
	"phonereuse/internal/http-server/middleware/ratelimit"
	"phonereuse/internal/http-server/middleware/timeout"
	"phonereuse/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	numbers.Core
	stats.Core
}

// NewRouter mounts the registry API under /v1 behind token authentication
// and exposes prometheus metrics on /metrics.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(conf.Api.Timeout))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Handle("/metrics", promhttp.Handler())

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(ratelimit.New(log, conf.Api.RateLimit, conf.Api.RateBurst))
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Route("/numbers", func(num chi.Router) {
			num.Get("/", numbers.List(log, handler))
			num.Post("/", numbers.Register(log, handler))
			num.Post("/acquire", numbers.Acquire(log, handler))
			num.Post("/{phone}/use", numbers.MarkUsed(log, handler))
			num.Delete("/{phone}", numbers.Remove(log, handler))
		})
		rootApi.Get("/stats", stats.Get(log, handler))
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {
	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      NewRouter(conf, log, handler),
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
