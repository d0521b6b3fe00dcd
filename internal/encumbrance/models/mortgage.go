package models

import "time"

// MortgageStatus is a mortgage's lifecycle state.
type MortgageStatus string

const (
	MortgageActive MortgageStatus = "ACTIVE"
	MortgageClosed MortgageStatus = "CLOSED"
)

// MortgageRecord tracks a loan secured against a parcel.
type MortgageRecord struct {
	MortgageID   string         `json:"mortgageId"`
	LandID       string         `json:"landId"`
	MortgageType string         `json:"mortgageType"`
	Status       MortgageStatus `json:"status"`

	Borrower     string `json:"borrower"`
	BorrowerName string `json:"borrowerName"`
	Lender       string `json:"lender"`
	LenderName   string `json:"lenderName"`

	LoanAmount        float64 `json:"loanAmount"`
	InterestRate      float64 `json:"interestRate"`
	LoanTenureMonths  int     `json:"loanTenure"`
	OutstandingAmount float64 `json:"outstandingAmount"`

	MortgageStartDate time.Time `json:"mortgageStartDate"`
	MortgageEndDate   time.Time `json:"mortgageEndDate"`

	SanctionLetterRef string `json:"sanctionLetterRef,omitempty"`

	ClosureDate   *time.Time `json:"closureDate,omitempty"`
	ClosureReason string     `json:"closureReason,omitempty"`

	RecordedBy    string    `json:"recordedBy"`
	LastUpdatedBy string    `json:"lastUpdatedBy,omitempty"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt,omitempty"`
}

// NewMortgageInput carries the terms for creating a mortgage.
type NewMortgageInput struct {
	MortgageID       string
	LandID           string
	MortgageType     string
	Borrower         string
	BorrowerName     string
	Lender           string
	LenderName       string
	LoanAmount       float64
	InterestRate     float64
	LoanTenureMonths int
}

// NewMortgageRecord opens a mortgage with status ACTIVE, the outstanding
// amount equal to the principal, and the end date derived from the tenure.
func NewMortgageRecord(in NewMortgageInput, recordedBy string, at time.Time, sanctionLetterRef string) MortgageRecord {
	return MortgageRecord{
		MortgageID:        in.MortgageID,
		LandID:            in.LandID,
		MortgageType:      in.MortgageType,
		Status:            MortgageActive,
		Borrower:          in.Borrower,
		BorrowerName:      in.BorrowerName,
		Lender:            in.Lender,
		LenderName:        in.LenderName,
		LoanAmount:        in.LoanAmount,
		InterestRate:      in.InterestRate,
		LoanTenureMonths:  in.LoanTenureMonths,
		OutstandingAmount: in.LoanAmount,
		MortgageStartDate: at,
		MortgageEndDate:   at.AddDate(0, in.LoanTenureMonths, 0),
		SanctionLetterRef: sanctionLetterRef,
		RecordedBy:        recordedBy,
	}
}

// MortgageKey is the ledger key for a mortgage record.
func MortgageKey(mortgageID string) string {
	return "mortgage/" + mortgageID
}
