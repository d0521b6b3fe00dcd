package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landledger/internal/access"
	"landledger/internal/platform/middleware"
	"landledger/internal/registry/models"
	"landledger/internal/registry/service"
	"landledger/pkg/domainerrors"
)

// RegistryService is the title-registry surface the handler depends on.
type RegistryService interface {
	CreateParcel(ctx context.Context, caller access.Caller, p service.CreateParcelParams) error
	GetParcel(ctx context.Context, landID string) (*models.LandParcel, error)
	GetOwnershipHistory(ctx context.Context, landID string) ([]models.OwnershipEvent, error)
	ProposeSaleTransfer(ctx context.Context, caller access.Caller, p service.TransferParams) (string, error)
	FinalizeSaleTransfer(ctx context.Context, caller access.Caller, landID, transactionID string) error
	FreezeParcel(ctx context.Context, caller access.Caller, landID, remarks string) error
	UnfreezeParcel(ctx context.Context, caller access.Caller, landID string) error
}

// RegistryHandler serves parcel endpoints.
type RegistryHandler struct {
	registry RegistryService
}

func NewRegistryHandler(registry RegistryService) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

// RegisterProtected mounts the mutating parcel routes.
func (h *RegistryHandler) RegisterProtected(r chi.Router) {
	r.Post("/parcels", h.handleCreateParcel)
	r.Post("/parcels/{landID}/transfers", h.handleProposeTransfer)
	r.Post("/parcels/{landID}/transfers/{transactionID}/finalize", h.handleFinalizeTransfer)
	r.Post("/parcels/{landID}/freeze", h.handleFreeze)
	r.Post("/parcels/{landID}/unfreeze", h.handleUnfreeze)
}

// RegisterPublic mounts the read-only parcel routes.
func (h *RegistryHandler) RegisterPublic(r chi.Router) {
	r.Get("/parcels/{landID}", h.handleGetParcel)
	r.Get("/parcels/{landID}/history", h.handleGetHistory)
}

type createParcelRequest struct {
	LandID       string  `json:"landId"`
	SurveyNumber string  `json:"surveyNumber"`
	State        string  `json:"state"`
	District     string  `json:"district"`
	Tehsil       string  `json:"tehsil"`
	Village      string  `json:"village"`
	Pincode      string  `json:"pincode"`
	Area         float64 `json:"area"`
	AreaUnit     string  `json:"areaUnit"`
	OwnerID      string  `json:"ownerId"`
	OwnerName    string  `json:"ownerName"`
	OwnerType    string  `json:"ownerType"`
	LandType     string  `json:"landType"`
	DocumentHash string  `json:"documentHash,omitempty"`
	DocumentURI  string  `json:"documentUri,omitempty"`
}

func (h *RegistryHandler) handleCreateParcel(w http.ResponseWriter, r *http.Request) {
	var req createParcelRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.LandID == "" || req.OwnerID == "" || req.OwnerName == "" {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "landId, ownerId and ownerName are required"))
		return
	}

	err := h.registry.CreateParcel(r.Context(), middleware.CallerFrom(r.Context()), service.CreateParcelParams{
		Parcel: models.NewParcelInput{
			LandID:       req.LandID,
			SurveyNumber: req.SurveyNumber,
			State:        req.State,
			District:     req.District,
			Tehsil:       req.Tehsil,
			Village:      req.Village,
			Pincode:      req.Pincode,
			Area:         req.Area,
			AreaUnit:     req.AreaUnit,
			OwnerID:      req.OwnerID,
			OwnerName:    req.OwnerName,
			OwnerType:    req.OwnerType,
			LandType:     req.LandType,
		},
		DocumentHash: req.DocumentHash,
		DocumentURI:  req.DocumentURI,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"landId": req.LandID})
}

func (h *RegistryHandler) handleGetParcel(w http.ResponseWriter, r *http.Request) {
	parcel, err := h.registry.GetParcel(r.Context(), chi.URLParam(r, "landID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parcel)
}

func (h *RegistryHandler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.registry.GetOwnershipHistory(r.Context(), chi.URLParam(r, "landID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type proposeTransferRequest struct {
	NewOwner           string  `json:"newOwner"`
	NewOwnerName       string  `json:"newOwnerName"`
	RegistrationNumber string  `json:"registrationNumber,omitempty"`
	Consideration      float64 `json:"consideration,omitempty"`
	StampDuty          float64 `json:"stampDuty,omitempty"`
	DocumentHash       string  `json:"documentHash,omitempty"`
	DocumentURI        string  `json:"documentUri,omitempty"`
	BiometricVerified  bool    `json:"biometricVerified,omitempty"`
}

func (h *RegistryHandler) handleProposeTransfer(w http.ResponseWriter, r *http.Request) {
	var req proposeTransferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.NewOwner == "" || req.NewOwnerName == "" {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "newOwner and newOwnerName are required"))
		return
	}

	txnID, err := h.registry.ProposeSaleTransfer(r.Context(), middleware.CallerFrom(r.Context()), service.TransferParams{
		LandID:             chi.URLParam(r, "landID"),
		NewOwner:           req.NewOwner,
		NewOwnerName:       req.NewOwnerName,
		RegistrationNumber: req.RegistrationNumber,
		Consideration:      req.Consideration,
		StampDuty:          req.StampDuty,
		DocumentHash:       req.DocumentHash,
		DocumentURI:        req.DocumentURI,
		BiometricVerified:  req.BiometricVerified,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transactionId": txnID})
}

func (h *RegistryHandler) handleFinalizeTransfer(w http.ResponseWriter, r *http.Request) {
	err := h.registry.FinalizeSaleTransfer(r.Context(), middleware.CallerFrom(r.Context()),
		chi.URLParam(r, "landID"), chi.URLParam(r, "transactionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type freezeRequest struct {
	Remarks string `json:"remarks,omitempty"`
}

func (h *RegistryHandler) handleFreeze(w http.ResponseWriter, r *http.Request) {
	var req freezeRequest
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := h.registry.FreezeParcel(r.Context(), middleware.CallerFrom(r.Context()), chi.URLParam(r, "landID"), req.Remarks); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistryHandler) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.UnfreezeParcel(r.Context(), middleware.CallerFrom(r.Context()), chi.URLParam(r, "landID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
