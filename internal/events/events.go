// Package events defines the domain events the registry emits after a write
// commits, and the publishers that deliver them. Delivery is best-effort:
// services log a failed publish but never fail the operation for it.
package events

import "context"

// Event is a named domain event payload.
type Event interface {
	EventName() string
}

type ParcelCreated struct {
	LandID       string `json:"landId"`
	SurveyNumber string `json:"surveyNumber"`
}

func (ParcelCreated) EventName() string { return "ParcelCreated" }

type OwnershipTransferred struct {
	LandID        string `json:"landId"`
	FromOwner     string `json:"fromOwner"`
	ToOwner       string `json:"toOwner"`
	TransactionID string `json:"transactionId"`
}

func (OwnershipTransferred) EventName() string { return "OwnershipTransferred" }

type DisputeRaised struct {
	DisputeID   string `json:"disputeId"`
	LandID      string `json:"landId"`
	DisputeType string `json:"disputeType"`
}

func (DisputeRaised) EventName() string { return "DisputeRaised" }

type DisputeResolved struct {
	DisputeID string `json:"disputeId"`
	LandID    string `json:"landId"`
}

func (DisputeResolved) EventName() string { return "DisputeResolved" }

type MortgageCreated struct {
	MortgageID string  `json:"mortgageId"`
	LandID     string  `json:"landId"`
	LoanAmount float64 `json:"loanAmount"`
}

func (MortgageCreated) EventName() string { return "MortgageCreated" }

type MortgageClosed struct {
	MortgageID string `json:"mortgageId"`
	LandID     string `json:"landId"`
}

func (MortgageClosed) EventName() string { return "MortgageClosed" }

type ParcelFrozen struct {
	LandID string `json:"landId"`
}

func (ParcelFrozen) EventName() string { return "ParcelFrozen" }

type ParcelUnfrozen struct {
	LandID string `json:"landId"`
}

func (ParcelUnfrozen) EventName() string { return "ParcelUnfrozen" }

// Publisher hands a committed event to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards events; useful default for tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
