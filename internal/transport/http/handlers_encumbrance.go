package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landledger/internal/access"
	"landledger/internal/encumbrance/models"
	"landledger/internal/encumbrance/service"
	"landledger/internal/platform/middleware"
	"landledger/pkg/domainerrors"
)

// EncumbranceService is the dispute/mortgage surface the handler depends on.
type EncumbranceService interface {
	RaiseDispute(ctx context.Context, caller access.Caller, in models.NewDisputeInput) error
	ResolveDispute(ctx context.Context, caller access.Caller, p service.ResolveDisputeParams) error
	GetDispute(ctx context.Context, disputeID string) (*models.DisputeRecord, error)
	CreateMortgage(ctx context.Context, caller access.Caller, p service.CreateMortgageParams) error
	CloseMortgage(ctx context.Context, caller access.Caller, mortgageID, closureReason string) error
	GetMortgage(ctx context.Context, mortgageID string) (*models.MortgageRecord, error)
}

// EncumbranceHandler serves dispute and mortgage endpoints.
type EncumbranceHandler struct {
	encumbrance EncumbranceService
}

func NewEncumbranceHandler(encumbrance EncumbranceService) *EncumbranceHandler {
	return &EncumbranceHandler{encumbrance: encumbrance}
}

// RegisterProtected mounts the mutating encumbrance routes.
func (h *EncumbranceHandler) RegisterProtected(r chi.Router) {
	r.Post("/disputes", h.handleRaiseDispute)
	r.Post("/disputes/{disputeID}/resolve", h.handleResolveDispute)
	r.Post("/mortgages", h.handleCreateMortgage)
	r.Post("/mortgages/{mortgageID}/close", h.handleCloseMortgage)
}

// RegisterPublic mounts the read-only encumbrance routes.
func (h *EncumbranceHandler) RegisterPublic(r chi.Router) {
	r.Get("/disputes/{disputeID}", h.handleGetDispute)
	r.Get("/mortgages/{mortgageID}", h.handleGetMortgage)
}

type raiseDisputeRequest struct {
	DisputeID        string `json:"disputeId"`
	LandID           string `json:"landId"`
	DisputeType      string `json:"disputeType"`
	FiledBy          string `json:"filedBy"`
	FiledByName      string `json:"filedByName"`
	FiledAgainst     string `json:"filedAgainst,omitempty"`
	FiledAgainstName string `json:"filedAgainstName,omitempty"`
	Description      string `json:"description"`
	CourtCaseID      string `json:"courtCaseId,omitempty"`
}

func (h *EncumbranceHandler) handleRaiseDispute(w http.ResponseWriter, r *http.Request) {
	var req raiseDisputeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.DisputeID == "" || req.LandID == "" {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "disputeId and landId are required"))
		return
	}

	err := h.encumbrance.RaiseDispute(r.Context(), middleware.CallerFrom(r.Context()), models.NewDisputeInput{
		DisputeID:        req.DisputeID,
		LandID:           req.LandID,
		DisputeType:      req.DisputeType,
		FiledBy:          req.FiledBy,
		FiledByName:      req.FiledByName,
		FiledAgainst:     req.FiledAgainst,
		FiledAgainstName: req.FiledAgainstName,
		Description:      req.Description,
		CourtCaseID:      req.CourtCaseID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"disputeId": req.DisputeID})
}

type resolveDisputeRequest struct {
	ResolutionDetails string `json:"resolutionDetails,omitempty"`
	ReassignOwner     string `json:"reassignOwner,omitempty"`
	ReassignOwnerName string `json:"reassignOwnerName,omitempty"`
}

func (h *EncumbranceHandler) handleResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req resolveDisputeRequest
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	err := h.encumbrance.ResolveDispute(r.Context(), middleware.CallerFrom(r.Context()), service.ResolveDisputeParams{
		DisputeID:         chi.URLParam(r, "disputeID"),
		ResolutionDetails: req.ResolutionDetails,
		ReassignOwner:     req.ReassignOwner,
		ReassignOwnerName: req.ReassignOwnerName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EncumbranceHandler) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.encumbrance.GetDispute(r.Context(), chi.URLParam(r, "disputeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute)
}

type createMortgageRequest struct {
	MortgageID         string  `json:"mortgageId"`
	LandID             string  `json:"landId"`
	MortgageType       string  `json:"mortgageType"`
	Borrower           string  `json:"borrower"`
	BorrowerName       string  `json:"borrowerName"`
	Lender             string  `json:"lender"`
	LenderName         string  `json:"lenderName"`
	LoanAmount         float64 `json:"loanAmount"`
	InterestRate       float64 `json:"interestRate"`
	LoanTenureMonths   int     `json:"loanTenure"`
	SanctionLetterHash string  `json:"sanctionLetterHash,omitempty"`
	SanctionLetterURI  string  `json:"sanctionLetterUri,omitempty"`
}

func (h *EncumbranceHandler) handleCreateMortgage(w http.ResponseWriter, r *http.Request) {
	var req createMortgageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.MortgageID == "" || req.LandID == "" || req.Borrower == "" {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "mortgageId, landId and borrower are required"))
		return
	}

	err := h.encumbrance.CreateMortgage(r.Context(), middleware.CallerFrom(r.Context()), service.CreateMortgageParams{
		Mortgage: models.NewMortgageInput{
			MortgageID:       req.MortgageID,
			LandID:           req.LandID,
			MortgageType:     req.MortgageType,
			Borrower:         req.Borrower,
			BorrowerName:     req.BorrowerName,
			Lender:           req.Lender,
			LenderName:       req.LenderName,
			LoanAmount:       req.LoanAmount,
			InterestRate:     req.InterestRate,
			LoanTenureMonths: req.LoanTenureMonths,
		},
		SanctionLetterHash: req.SanctionLetterHash,
		SanctionLetterURI:  req.SanctionLetterURI,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"mortgageId": req.MortgageID})
}

type closeMortgageRequest struct {
	ClosureReason string `json:"closureReason"`
}

func (h *EncumbranceHandler) handleCloseMortgage(w http.ResponseWriter, r *http.Request) {
	var req closeMortgageRequest
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	err := h.encumbrance.CloseMortgage(r.Context(), middleware.CallerFrom(r.Context()),
		chi.URLParam(r, "mortgageID"), req.ClosureReason)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EncumbranceHandler) handleGetMortgage(w http.ResponseWriter, r *http.Request) {
	mortgage, err := h.encumbrance.GetMortgage(r.Context(), chi.URLParam(r, "mortgageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mortgage)
}
