package numbers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"phonereuse/entity"
	"phonereuse/internal/registry"
	"phonereuse/lib/api/cont"
	"phonereuse/lib/api/response"
	"phonereuse/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	RegisterNumber(ctx context.Context, req *entity.RegisterRequest) error
	AcquireNumber(ctx context.Context, service string) (*entity.NumberView, error)
	MarkNumberUsed(ctx context.Context, phoneNumber, service string) (bool, error)
	ListNumbers(ctx context.Context, filter string) ([]*entity.NumberView, error)
	RemoveNumber(ctx context.Context, phoneNumber string) (bool, error)
}

// MarkResult tells whether mark-used found the number.
type MarkResult struct {
	Marked bool `json:"marked"`
}

func Register(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		if handler == nil {
			log.Error("numbers service not available")
			render.JSON(w, r, response.Error("Numbers service not available"))
			return
		}

		var req entity.RegisterRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		log = log.With(sl.Phone(req.PhoneNumber), sl.Service(req.Service))

		if err := handler.RegisterNumber(r.Context(), &req); err != nil {
			log.Error("register number", sl.Err(err))
			failed(w, r, err)
			return
		}
		log.Debug("number registered")

		render.JSON(w, r, response.Empty("Registered"))
	}
}

func Acquire(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		if handler == nil {
			log.Error("numbers service not available")
			render.JSON(w, r, response.Error("Numbers service not available"))
			return
		}

		req, ok := bindService(w, r, log)
		if !ok {
			return
		}

		view, err := handler.AcquireNumber(r.Context(), req.Service)
		if err != nil {
			log.Error("acquire number", sl.Err(err))
			failed(w, r, err)
			return
		}
		if view == nil {
			log.Debug("no reusable number")
			render.JSON(w, r, response.Empty("No reusable number"))
			return
		}
		log.With(
			sl.Phone(view.PhoneNumber),
			slog.Int("times_used", view.TimesUsed),
		).Debug("number acquired")

		render.JSON(w, r, response.Ok(view))
	}
}

func MarkUsed(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phoneNumber, ok := phoneParam(w, r, logger)
		if !ok {
			return
		}
		log := requestLogger(logger, r).With(sl.Phone(phoneNumber))

		if handler == nil {
			log.Error("numbers service not available")
			render.JSON(w, r, response.Error("Numbers service not available"))
			return
		}

		req, ok := bindService(w, r, log)
		if !ok {
			return
		}

		marked, err := handler.MarkNumberUsed(r.Context(), phoneNumber, req.Service)
		if err != nil {
			log.Error("mark number used", sl.Err(err))
			failed(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(MarkResult{Marked: marked}))
	}
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		if handler == nil {
			log.Error("numbers service not available")
			render.JSON(w, r, response.Error("Numbers service not available"))
			return
		}

		views, err := handler.ListNumbers(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			log.Error("list numbers", sl.Err(err))
			failed(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(views))
	}
}

func Remove(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phoneNumber, ok := phoneParam(w, r, logger)
		if !ok {
			return
		}
		log := requestLogger(logger, r).With(sl.Phone(phoneNumber))

		if handler == nil {
			log.Error("numbers service not available")
			render.JSON(w, r, response.Error("Numbers service not available"))
			return
		}

		removed, err := handler.RemoveNumber(r.Context(), phoneNumber)
		if err != nil {
			log.Error("remove number", sl.Err(err))
			failed(w, r, err)
			return
		}
		if !removed {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Number not found"))
			return
		}
		log.Info("number removed")

		render.JSON(w, r, response.Empty("Removed"))
	}
}

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	log := logger.With(
		sl.Module("http.handlers.numbers"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if client := cont.GetClient(r.Context()); client != nil {
		log = log.With(slog.String("client", client.Name))
	}
	return log
}

// phoneParam decodes the {phone} segment; clients usually send the leading plus as %2B.
func phoneParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	raw := chi.URLParam(r, "phone")
	phoneNumber, err := url.PathUnescape(raw)
	if err != nil {
		requestLogger(logger, r).With(slog.String("phone", raw)).Warn("invalid phone path parameter", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf("Invalid phone number: %v", err)))
		return "", false
	}
	return phoneNumber, true
}

// bindService reads an optional ServiceRequest body; an empty body selects the default service.
func bindService(w http.ResponseWriter, r *http.Request, log *slog.Logger) (entity.ServiceRequest, bool) {
	var req entity.ServiceRequest
	if err := render.Bind(r, &req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("invalid request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
		return req, false
	}
	return req, true
}

func failed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalidPhone), errors.Is(err, registry.ErrInvalidService):
		render.Status(r, http.StatusBadRequest)
	default:
		render.Status(r, http.StatusInternalServerError)
	}
	render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
}
