package models

import "time"

// EventType classifies an ownership transition.
type EventType string

const (
	EventGenesis     EventType = "GENESIS"
	EventSale        EventType = "SALE"
	EventInheritance EventType = "INHERITANCE"
	EventGift        EventType = "GIFT"
	EventCourtOrder  EventType = "COURT_ORDER"
	EventMutation    EventType = "MUTATION"
)

// OwnershipEvent is one link in a parcel's ownership chain. Events are
// immutable once appended; they are owned by the parcel's history and never
// independently addressable for mutation.
type OwnershipEvent struct {
	EventID            string    `json:"eventId"`
	EventType          EventType `json:"eventType"`
	FromOwner          string    `json:"fromOwner,omitempty"`
	FromOwnerName      string    `json:"fromOwnerName,omitempty"`
	ToOwner            string    `json:"toOwner"`
	ToOwnerName        string    `json:"toOwnerName"`
	TransactionDate    time.Time `json:"transactionDate"`
	RegistrationNumber string    `json:"registrationNumber,omitempty"`
	DocumentRef        string    `json:"documentRef,omitempty"`
	Consideration      float64   `json:"consideration"`
	StampDuty          float64   `json:"stampDuty"`
	RecordedBy         string    `json:"recordedBy"`
	BiometricVerified  bool      `json:"biometricVerified"`
}

// GenesisEventID returns the deterministic event ID used at parcel genesis.
func GenesisEventID(landID string) string {
	return landID + "-GENESIS"
}

// SaleEventID returns the event ID for a sale under the given transaction.
func SaleEventID(landID, txnID string) string {
	return landID + "-EVENT-" + txnID
}

// CourtOrderEventID returns the event ID for a court-ordered reassignment.
func CourtOrderEventID(landID, txnID string) string {
	return landID + "-EVENT-COURT-" + txnID
}

// NewGenesisEvent records the initial ownership at onboarding. There is no
// prior owner and no consideration.
func NewGenesisEvent(landID, ownerID, ownerName, recordedBy string, at time.Time) OwnershipEvent {
	return OwnershipEvent{
		EventID:         GenesisEventID(landID),
		EventType:       EventGenesis,
		ToOwner:         ownerID,
		ToOwnerName:     ownerName,
		TransactionDate: at,
		RecordedBy:      recordedBy,
	}
}
