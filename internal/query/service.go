package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"landledger/internal/ledger"
	"landledger/internal/registry/models"
	"landledger/pkg/platform/sentinel"
)

// Service answers attribute lookups by index scan followed by point gets.
// Queries are public reads; an empty result is a valid answer, not an error.
type Service struct {
	store ledger.Store
}

func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// ByOwner returns every parcel currently held by the owner.
func (s *Service) ByOwner(ctx context.Context, owner string) ([]models.LandParcel, error) {
	return s.resolve(ctx, ownerIndexKey(owner))
}

// ByStatus returns every parcel in the given status.
func (s *Service) ByStatus(ctx context.Context, status models.ParcelStatus) ([]models.LandParcel, error) {
	return s.resolve(ctx, statusIndexKey(status))
}

// ByDistrict returns every parcel registered in the state/district pair.
func (s *Service) ByDistrict(ctx context.Context, state, district string) ([]models.LandParcel, error) {
	return s.resolve(ctx, districtIndexKey(state, district))
}

func (s *Service) resolve(ctx context.Context, indexKey string) ([]models.LandParcel, error) {
	value, _, err := s.store.Get(ctx, indexKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return []models.LandParcel{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index %q: %w", indexKey, err)
	}

	var record indexRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, fmt.Errorf("decode index %q: %w", indexKey, err)
	}

	parcels := make([]models.LandParcel, 0, len(record.IDs))
	for _, landID := range record.IDs {
		raw, _, err := s.store.Get(ctx, models.ParcelKey(landID))
		if errors.Is(err, sentinel.ErrNotFound) {
			// Index entry may briefly outlive its parcel under a racing
			// writer; skip rather than fail the whole query.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load parcel %q: %w", landID, err)
		}
		var parcel models.LandParcel
		if err := json.Unmarshal(raw, &parcel); err != nil {
			return nil, fmt.Errorf("decode parcel %q: %w", landID, err)
		}
		parcels = append(parcels, parcel)
	}
	return parcels, nil
}
