// Package sentinel holds sentinel errors for infrastructure facts. Ledger
// backends return these (optionally wrapped) so services can translate them
// into domain errors without knowing which backend is in use.
//
// These represent factual states about ledger entries, not validation
// failures:
//   - ErrNotFound: no entry exists under the key
//   - ErrConflict: a compare-and-swap write lost to a concurrent transaction
//   - ErrUnavailable: the backend is temporarily unreachable
//
// For business-rule failures use pkg/domainerrors directly.
package sentinel

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
