package stats

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"phonereuse/entity"
	"phonereuse/lib/api/response"
	"phonereuse/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	NumberStats(ctx context.Context) (*entity.Statistics, error)
}

func Get(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.stats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			log.Error("stats service not available")
			render.JSON(w, r, response.Error("Stats not available"))
			return
		}

		stats, err := handler.NumberStats(r.Context())
		if err != nil {
			log.Error("number stats", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}

		render.JSON(w, r, response.Ok(stats))
	}
}
