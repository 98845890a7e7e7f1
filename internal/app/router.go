package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockbridge/stockbridge/internal/dashboard"
	"github.com/stockbridge/stockbridge/internal/ledger"
	"github.com/stockbridge/stockbridge/internal/locations"
	"github.com/stockbridge/stockbridge/internal/observability"
	"github.com/stockbridge/stockbridge/internal/platform/httpx"
	"github.com/stockbridge/stockbridge/internal/reports"
	"github.com/stockbridge/stockbridge/internal/settings"
	"github.com/stockbridge/stockbridge/jobs"
)

// RouterParams carries everything the HTTP surface mounts.
type RouterParams struct {
	Middleware []func(http.Handler) http.Handler
	Metrics    *observability.Metrics

	Locations *locations.Handler
	Ledger    *ledger.Handler
	Settings  *settings.Handler
	Dashboard *dashboard.Handler
	Reports   *reports.Handler
	Jobs      *jobs.Handler
}

// NewRouter assembles the chi router.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	r.Use(p.Middleware...)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.OK(w, map[string]string{"status": "ok"})
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/locations", p.Locations.MountRoutes)
		api.Route("/transfers", p.Ledger.MountTransferRoutes)
		api.Route("/sales", p.Ledger.MountSaleRoutes)
		api.Route("/settings", p.Settings.MountRoutes)
		api.Route("/dashboard", p.Dashboard.MountRoutes)
		api.Route("/reports", p.Reports.MountRoutes)
		if p.Jobs != nil {
			api.Route("/jobs", p.Jobs.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Fail(w, http.StatusNotFound, httpx.CodeNotFound, "route not found")
	})

	return r
}
