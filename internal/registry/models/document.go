package models

import "time"

// DocumentType labels what a referenced document certifies.
type DocumentType string

const (
	DocROR            DocumentType = "ROR"
	DocSaleDeed       DocumentType = "SALE_DEED"
	DocSanctionLetter DocumentType = "SANCTION_LETTER"
	DocCourtOrder     DocumentType = "COURT_ORDER"
)

// DocumentRef points at a file stored off-ledger. The hash is accepted as-is;
// hashing and later verification belong to the external document service.
type DocumentRef struct {
	DocumentID   string       `json:"documentId"`
	DocumentHash string       `json:"documentHash"`
	DocumentType DocumentType `json:"documentType"`
	StorageURI   string       `json:"storageUri"`
	UploadedAt   time.Time    `json:"uploadedAt"`
	UploadedBy   string       `json:"uploadedBy"`
	IssuedByOrg  string       `json:"issuedByOrg"`

	RegistrationNumber string  `json:"registrationNumber,omitempty"`
	Consideration      float64 `json:"consideration,omitempty"`
	StampDuty          float64 `json:"stampDuty,omitempty"`
	Description        string  `json:"description,omitempty"`
}

// GenesisDocumentID returns the document ID for a parcel's genesis record.
func GenesisDocumentID(landID string) string {
	return landID + "-DOC-GENESIS"
}

// TransferDocumentID returns the document ID for a sale deed.
func TransferDocumentID(landID, txnID string) string {
	return landID + "-DOC-" + txnID
}

// SanctionDocumentID returns the document ID for a mortgage sanction letter.
func SanctionDocumentID(mortgageID string) string {
	return mortgageID + "-DOC-SANCTION"
}

// NewDocumentRef builds a document reference stamped at the given time.
func NewDocumentRef(documentID, hash string, docType DocumentType, uri, uploadedBy, issuedByOrg string, at time.Time) DocumentRef {
	return DocumentRef{
		DocumentID:   documentID,
		DocumentHash: hash,
		DocumentType: docType,
		StorageURI:   uri,
		UploadedAt:   at,
		UploadedBy:   uploadedBy,
		IssuedByOrg:  issuedByOrg,
	}
}

// DocumentKey is the ledger key for a standalone document record (documents
// embedded in a parcel are not independently addressed).
func DocumentKey(documentID string) string {
	return "doc/" + documentID
}
