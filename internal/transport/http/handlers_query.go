package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landledger/internal/registry/models"
	"landledger/pkg/domainerrors"
)

// QueryService answers attribute lookups over parcels.
type QueryService interface {
	ByOwner(ctx context.Context, owner string) ([]models.LandParcel, error)
	ByStatus(ctx context.Context, status models.ParcelStatus) ([]models.LandParcel, error)
	ByDistrict(ctx context.Context, state, district string) ([]models.LandParcel, error)
}

// QueryHandler serves the parcel search endpoint.
type QueryHandler struct {
	queries QueryService
}

func NewQueryHandler(queries QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// RegisterPublic mounts the search route. Queries are public reads.
func (h *QueryHandler) RegisterPublic(r chi.Router) {
	r.Get("/parcels", h.handleSearch)
}

// handleSearch dispatches on exactly one supported predicate:
// ?owner=, ?status=, or ?state=&district=.
func (h *QueryHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		parcels []models.LandParcel
		err     error
	)
	switch {
	case q.Get("owner") != "":
		parcels, err = h.queries.ByOwner(ctx, q.Get("owner"))
	case q.Get("status") != "":
		parcels, err = h.queries.ByStatus(ctx, models.ParcelStatus(q.Get("status")))
	case q.Get("state") != "" && q.Get("district") != "":
		parcels, err = h.queries.ByDistrict(ctx, q.Get("state"), q.Get("district"))
	default:
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest,
			"provide one of: owner, status, or state and district"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parcels)
}
