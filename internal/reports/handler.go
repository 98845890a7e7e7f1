package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockbridge/stockbridge/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Overview)
	r.Get("/locations/{ref}", h.LocationReport)
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.BuildOverview(r.Context())
	if err != nil {
		h.logger.Error("report overview failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, overview)
}

func (h *Handler) LocationReport(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "from must be YYYY-MM-DD or RFC 3339")
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "to must be YYYY-MM-DD or RFC 3339")
		return
	}

	report, err := h.service.BuildLocationReport(r.Context(), chi.URLParam(r, "ref"), from, to)
	if err != nil {
		h.logger.Error("location report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, report)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
