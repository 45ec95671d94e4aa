package errors

import (
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"phonereuse/lib/api/response"
	"phonereuse/lib/sl"
)

func NotFound(log *slog.Logger) http.HandlerFunc {
	mod := sl.Module("http.handlers.errors")
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(mod, slog.String("path", r.URL.Path)).Debug("route not found")

		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Requested resource not found"))
	}
}
