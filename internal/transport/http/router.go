package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"landledger/internal/platform/middleware"
)

// NewRouter assembles the full HTTP surface: public reads, token-protected
// mutations, health, and metrics.
func NewRouter(
	registry *RegistryHandler,
	encumbrance *EncumbranceHandler,
	queries *QueryHandler,
	validator middleware.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		queries.RegisterPublic(public)
		registry.RegisterPublic(public)
		encumbrance.RegisterPublic(public)
	})

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(validator, logger))
		registry.RegisterProtected(protected)
		encumbrance.RegisterProtected(protected)
	})

	return r
}
