package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockbridge/stockbridge/internal/platform/httpx"
	"github.com/stockbridge/stockbridge/internal/shopify"
)

// Handler exposes the settings record and the platform location list.
type Handler struct {
	logger  *slog.Logger
	service *Service
	shop    *shopify.Client
}

// NewHandler constructs a Handler. shop may be nil.
func NewHandler(logger *slog.Logger, service *Service, shop *shopify.Client) *Handler {
	return &Handler{logger: logger, service: service, shop: shop}
}

// MountRoutes registers the settings endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Show)
	r.Put("/", h.Update)
}

type updateSettingsRequest struct {
	WarehouseLocationRef string `json:"warehouse_location_ref"`
	AutoSyncOrders       *bool  `json:"auto_sync_orders,omitempty"`
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Load(r.Context())
	if err != nil {
		h.logger.Error("load settings failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	var platformLocations []shopify.Location
	if h.shop != nil {
		platformLocations, err = h.shop.ListLocations(r.Context())
		if err != nil {
			// The settings page still renders with an empty picker.
			h.logger.Warn("list platform locations", slog.Any("error", err))
			platformLocations = nil
		}
	}

	httpx.OK(w, map[string]any{
		"settings":  current,
		"locations": platformLocations,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid JSON body")
		return
	}

	if err := h.service.SaveWarehouseRef(r.Context(), req.WarehouseLocationRef); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.AutoSyncOrders != nil {
		if err := h.service.SaveAutoSync(r.Context(), *req.AutoSyncOrders); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}

	current, err := h.service.Load(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, current)
}
