// Package models holds the encumbrance entities: disputes and mortgages.
// Both are independently addressable ledger records that back-reference the
// parcel they encumber.
package models

import "time"

// DisputeStatus is a dispute's lifecycle state. RESOLVED and DISMISSED are
// terminal; only then does the dispute stop encumbering its parcel.
type DisputeStatus string

const (
	DisputeOpen      DisputeStatus = "OPEN"
	DisputeResolved  DisputeStatus = "RESOLVED"
	DisputeDismissed DisputeStatus = "DISMISSED"
)

// DisputeRecord tracks litigation over a parcel.
type DisputeRecord struct {
	DisputeID   string        `json:"disputeId"`
	LandID      string        `json:"landId"`
	DisputeType string        `json:"disputeType"`
	Status      DisputeStatus `json:"status"`

	FiledBy          string    `json:"filedBy"`
	FiledByName      string    `json:"filedByName"`
	FiledAgainst     string    `json:"filedAgainst,omitempty"`
	FiledAgainstName string    `json:"filedAgainstName,omitempty"`
	FiledDate        time.Time `json:"filedDate"`
	Description      string    `json:"description"`
	CourtCaseID      string    `json:"courtCaseId,omitempty"`

	ResolutionDate    *time.Time `json:"resolutionDate,omitempty"`
	ResolutionDetails string     `json:"resolutionDetails,omitempty"`

	RecordedBy    string    `json:"recordedBy"`
	LastUpdatedBy string    `json:"lastUpdatedBy,omitempty"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt,omitempty"`
}

// IsClosed reports whether the dispute has reached a terminal status.
func (d *DisputeRecord) IsClosed() bool {
	return d.Status == DisputeResolved || d.Status == DisputeDismissed
}

// NewDisputeInput carries the descriptors for filing a dispute.
type NewDisputeInput struct {
	DisputeID        string
	LandID           string
	DisputeType      string
	FiledBy          string
	FiledByName      string
	FiledAgainst     string
	FiledAgainstName string
	Description      string
	CourtCaseID      string
}

// NewDisputeRecord files a dispute with status OPEN.
func NewDisputeRecord(in NewDisputeInput, recordedBy string, at time.Time) DisputeRecord {
	return DisputeRecord{
		DisputeID:        in.DisputeID,
		LandID:           in.LandID,
		DisputeType:      in.DisputeType,
		Status:           DisputeOpen,
		FiledBy:          in.FiledBy,
		FiledByName:      in.FiledByName,
		FiledAgainst:     in.FiledAgainst,
		FiledAgainstName: in.FiledAgainstName,
		FiledDate:        at,
		Description:      in.Description,
		CourtCaseID:      in.CourtCaseID,
		RecordedBy:       recordedBy,
	}
}

// DisputeKey is the ledger key for a dispute record.
func DisputeKey(disputeID string) string {
	return "dispute/" + disputeID
}
