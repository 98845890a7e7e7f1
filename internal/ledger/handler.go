package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockbridge/stockbridge/internal/platform/httpx"
	"github.com/stockbridge/stockbridge/internal/settings"
)

// Handler exposes transfer and sale recording plus recent activity.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	settings  *settings.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, settingsService *settings.Service) *Handler {
	return &Handler{logger: logger, service: service, settings: settingsService, validator: validator.New()}
}

// MountTransferRoutes registers the transfer endpoints.
func (h *Handler) MountTransferRoutes(r chi.Router) {
	r.Get("/", h.ListTransfers)
	r.Post("/", h.CreateTransfer)
	r.Post("/batch", h.CreateTransferBatch)
}

// MountSaleRoutes registers the sale endpoints.
func (h *Handler) MountSaleRoutes(r chi.Router) {
	r.Get("/", h.ListSales)
	r.Post("/", h.CreateSale)
}

type createTransferRequest struct {
	From  string `json:"from" validate:"required"`
	To    string `json:"to" validate:"required"`
	SKU   string `json:"sku" validate:"required"`
	Qty   int    `json:"qty"`
	Notes string `json:"notes"`
}

type createTransferBatchRequest struct {
	Origin      string      `json:"origin" validate:"required"`
	Destination string      `json:"destination" validate:"required"`
	Notes       string      `json:"notes"`
	Lines       []BatchLine `json:"lines" validate:"required,min=1"`
}

type createSaleRequest struct {
	Location string   `json:"location" validate:"required"`
	SKU      string   `json:"sku" validate:"required"`
	Qty      int      `json:"qty"`
	Value    *float64 `json:"value,omitempty"`
}

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "from, to and sku are required")
		return
	}

	created, err := h.service.RecordTransfer(r.Context(), TransferInput{
		FromName: req.From,
		ToName:   req.To,
		SKU:      req.SKU,
		Qty:      req.Qty,
		Notes:    req.Notes,
	})
	if err != nil {
		h.logger.Error("record transfer failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) CreateTransferBatch(w http.ResponseWriter, r *http.Request) {
	var req createTransferBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "origin, destination and lines are required")
		return
	}

	applied, batchRef, err := h.service.RecordTransferBatch(r.Context(), req.Origin, req.Destination, req.Notes, req.Lines)
	if err != nil {
		h.logger.Error("record transfer batch failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, map[string]any{"count": applied, "batch_ref": batchRef, "destination": req.Destination})
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "location and sku are required")
		return
	}

	cfg, err := h.settings.Load(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	created, err := h.service.RecordSale(r.Context(), SaleInput{
		LocationName: req.Location,
		SKU:          req.SKU,
		Qty:          req.Qty,
		Value:        req.Value,
	}, cfg)
	if err != nil {
		h.logger.Error("record sale failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 10)
	views, err := h.service.RecentTransfers(r.Context(), limit)
	if err != nil {
		h.logger.Error("list transfers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, TransferRows(views))
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 10)
	views, err := h.service.RecentSales(r.Context(), limit)
	if err != nil {
		h.logger.Error("list sales failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, SaleRows(views))
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	if n > 500 {
		return 500
	}
	return n
}
