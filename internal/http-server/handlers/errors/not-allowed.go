package errors

import (
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"phonereuse/lib/api/response"
	"phonereuse/lib/sl"
)

func NotAllowed(log *slog.Logger) http.HandlerFunc {
	mod := sl.Module("http.handlers.errors")
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(mod, slog.String("method", r.Method), slog.String("path", r.URL.Path)).Debug("method not allowed")

		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("Method not allowed"))
	}
}
