// Package models holds the title-registry entities. A parcel is the aggregate
// root: its ownership history and documents are embedded, encumbrances are
// referenced by ID and stored as independent ledger entities.
package models

import "time"

// ParcelStatus is the parcel's lifecycle state.
type ParcelStatus string

const (
	StatusActive       ParcelStatus = "ACTIVE"
	StatusMortgaged    ParcelStatus = "MORTGAGED"
	StatusUnderDispute ParcelStatus = "UNDER_DISPUTE"
	StatusFrozen       ParcelStatus = "FROZEN"
)

// Boundaries describes a parcel's neighbouring references.
type Boundaries struct {
	North string `json:"north,omitempty"`
	South string `json:"south,omitempty"`
	East  string `json:"east,omitempty"`
	West  string `json:"west,omitempty"`
}

// GPSCoordinates pins the parcel on the map.
type GPSCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LandParcel is the registry record for a single unit of land.
//
// Invariants maintained by the services:
//   - Version increases by exactly one per successful mutation and mirrors
//     the ledger version of the parcel's key.
//   - OwnershipHistory is append-only; CurrentOwner always equals the last
//     entry's ToOwner.
//   - Status MORTGAGED tracks a non-empty MortgageIDs set; UNDER_DISPUTE
//     holds while any referenced dispute is unresolved.
type LandParcel struct {
	LandID       string `json:"landId"`
	SurveyNumber string `json:"surveyNumber"`

	State    string `json:"state"`
	District string `json:"district"`
	Tehsil   string `json:"tehsil"`
	Village  string `json:"village"`
	Pincode  string `json:"pincode"`

	Area           float64         `json:"area"`
	AreaUnit       string          `json:"areaUnit"`
	Boundaries     *Boundaries     `json:"boundaries,omitempty"`
	GPSCoordinates *GPSCoordinates `json:"gpsCoordinates,omitempty"`

	CurrentOwner     string       `json:"currentOwner"`
	CurrentOwnerName string       `json:"currentOwnerName"`
	OwnerType        string       `json:"ownerType"`
	Status           ParcelStatus `json:"status"`

	LandType string `json:"landType"`
	LandUse  string `json:"landUse,omitempty"`

	MarketValue     float64 `json:"marketValue,omitempty"`
	GovernmentValue float64 `json:"governmentValue,omitempty"`

	OwnershipHistory []OwnershipEvent `json:"ownershipHistory"`
	Documents        []DocumentRef    `json:"documents"`

	MortgageIDs []string `json:"mortgageIds"`
	DisputeIDs  []string `json:"disputeIds"`

	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
	Version       uint64    `json:"version"`

	Remarks string `json:"remarks,omitempty"`
}

// NewParcelInput carries the descriptors for parcel genesis.
type NewParcelInput struct {
	LandID       string
	SurveyNumber string
	State        string
	District     string
	Tehsil       string
	Village      string
	Pincode      string
	Area         float64
	AreaUnit     string
	OwnerID      string
	OwnerName    string
	OwnerType    string
	LandType     string
}

// NewLandParcel builds a genesis parcel: status ACTIVE, version 1, the given
// genesis event as the first history entry, and the optional genesis document.
func NewLandParcel(in NewParcelInput, createdBy string, at time.Time, genesis OwnershipEvent, genesisDoc *DocumentRef) LandParcel {
	documents := []DocumentRef{}
	if genesisDoc != nil {
		documents = append(documents, *genesisDoc)
	}
	return LandParcel{
		LandID:           in.LandID,
		SurveyNumber:     in.SurveyNumber,
		State:            in.State,
		District:         in.District,
		Tehsil:           in.Tehsil,
		Village:          in.Village,
		Pincode:          in.Pincode,
		Area:             in.Area,
		AreaUnit:         in.AreaUnit,
		CurrentOwner:     in.OwnerID,
		CurrentOwnerName: in.OwnerName,
		OwnerType:        in.OwnerType,
		Status:           StatusActive,
		LandType:         in.LandType,
		OwnershipHistory: []OwnershipEvent{genesis},
		Documents:        documents,
		MortgageIDs:      []string{},
		DisputeIDs:       []string{},
		CreatedAt:        at,
		CreatedBy:        createdBy,
		LastUpdatedAt:    at,
		LastUpdatedBy:    createdBy,
		Version:          1,
	}
}

// Touch stamps the audit fields and bumps the version. Call exactly once per
// mutation, after all other fields are updated.
func (p *LandParcel) Touch(by string, at time.Time) {
	p.LastUpdatedAt = at
	p.LastUpdatedBy = by
	p.Version++
}

// HasOpenMortgages reports whether any mortgage still references the parcel.
func (p *LandParcel) HasOpenMortgages() bool {
	return len(p.MortgageIDs) > 0
}

// RemoveMortgageID drops one mortgage reference, preserving order.
func (p *LandParcel) RemoveMortgageID(mortgageID string) {
	kept := p.MortgageIDs[:0]
	for _, id := range p.MortgageIDs {
		if id != mortgageID {
			kept = append(kept, id)
		}
	}
	p.MortgageIDs = kept
}

// ParcelKey is the ledger key for a parcel.
func ParcelKey(landID string) string {
	return "parcel/" + landID
}
