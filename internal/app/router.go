package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/servicehub/sparecrm/internal/approval"
	"github.com/servicehub/sparecrm/internal/authz"
	"github.com/servicehub/sparecrm/internal/delivery"
	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/observability"
	"github.com/servicehub/sparecrm/internal/spares"
	"github.com/servicehub/sparecrm/jobs"
)

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Authn            authz.Middleware
	SparesHandler    *spares.Handler
	ApprovalHandler  *approval.Handler
	DeliveryHandler  *delivery.Handler
	InventoryHandler *inventory.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	Health           Pinger
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Health != nil {
			if err := params.Health.Ping(r.Context()); err != nil {
				params.Logger.Warn("health check failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(params.Authn.RequirePrincipal)
		r.Route("/spare-requests", func(r chi.Router) {
			if params.SparesHandler != nil {
				params.SparesHandler.MountRoutes(r)
			}
			if params.ApprovalHandler != nil {
				params.ApprovalHandler.MountRoutes(r)
			}
			if params.DeliveryHandler != nil {
				params.DeliveryHandler.MountRoutes(r)
			}
		})
		if params.InventoryHandler != nil {
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
	})

	return r
}
