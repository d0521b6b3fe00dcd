// Package query maintains the secondary indexes the ledger store itself does
// not provide, and answers by-owner / by-status / by-district lookups from
// them. Index records are ordinary ledger entities so their updates commit in
// the same transaction as the parcel write they mirror.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"landledger/internal/ledger"
	"landledger/internal/registry/models"
	"landledger/pkg/platform/sentinel"
)

// indexRecord is the stored form of one index entry: the sorted set of parcel
// IDs matching the indexed attribute value.
type indexRecord struct {
	IDs []string `json:"ids"`
}

func ownerIndexKey(owner string) string {
	return "idx/owner/" + owner
}

func statusIndexKey(status models.ParcelStatus) string {
	return "idx/status/" + string(status)
}

func districtIndexKey(state, district string) string {
	return "idx/district/" + state + "/" + district
}

// Indexer computes index deltas for parcel writes. Services call Stage inside
// the same transaction that writes the parcel, so indexes can never drift.
type Indexer struct {
	store ledger.Store
}

func NewIndexer(store ledger.Store) *Indexer {
	return &Indexer{store: store}
}

// Stage appends the index writes implied by moving a parcel from its previous
// value (nil at genesis) to next.
func (ix *Indexer) Stage(ctx context.Context, txn *ledger.Txn, prev *models.LandParcel, next *models.LandParcel) error {
	if prev == nil {
		if err := ix.add(ctx, txn, ownerIndexKey(next.CurrentOwner), next.LandID); err != nil {
			return err
		}
		if err := ix.add(ctx, txn, statusIndexKey(next.Status), next.LandID); err != nil {
			return err
		}
		return ix.add(ctx, txn, districtIndexKey(next.State, next.District), next.LandID)
	}

	if prev.CurrentOwner != next.CurrentOwner {
		if err := ix.remove(ctx, txn, ownerIndexKey(prev.CurrentOwner), next.LandID); err != nil {
			return err
		}
		if err := ix.add(ctx, txn, ownerIndexKey(next.CurrentOwner), next.LandID); err != nil {
			return err
		}
	}
	if prev.Status != next.Status {
		if err := ix.remove(ctx, txn, statusIndexKey(prev.Status), next.LandID); err != nil {
			return err
		}
		if err := ix.add(ctx, txn, statusIndexKey(next.Status), next.LandID); err != nil {
			return err
		}
	}
	// Location never changes after genesis, so the district index is static.
	return nil
}

func (ix *Indexer) add(ctx context.Context, txn *ledger.Txn, key, landID string) error {
	record, version, err := ix.load(ctx, key)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(record.IDs, landID)
	if i < len(record.IDs) && record.IDs[i] == landID {
		return nil
	}
	record.IDs = append(record.IDs, "")
	copy(record.IDs[i+1:], record.IDs[i:])
	record.IDs[i] = landID
	return ix.stage(txn, key, record, version)
}

func (ix *Indexer) remove(ctx context.Context, txn *ledger.Txn, key, landID string) error {
	record, version, err := ix.load(ctx, key)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(record.IDs, landID)
	if i >= len(record.IDs) || record.IDs[i] != landID {
		return nil
	}
	record.IDs = append(record.IDs[:i], record.IDs[i+1:]...)
	return ix.stage(txn, key, record, version)
}

func (ix *Indexer) load(ctx context.Context, key string) (indexRecord, uint64, error) {
	value, version, err := ix.store.Get(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return indexRecord{IDs: []string{}}, 0, nil
	}
	if err != nil {
		return indexRecord{}, 0, fmt.Errorf("load index %q: %w", key, err)
	}
	var record indexRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return indexRecord{}, 0, fmt.Errorf("decode index %q: %w", key, err)
	}
	return record, version, nil
}

func (ix *Indexer) stage(txn *ledger.Txn, key string, record indexRecord, version uint64) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode index %q: %w", key, err)
	}
	txn.Put(key, value, version)
	return nil
}
