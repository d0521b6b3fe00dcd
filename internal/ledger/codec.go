package ledger

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON loads and decodes the entity stored under key, returning the ledger
// version the caller must present when writing it back.
func GetJSON(ctx context.Context, store Store, key string, v any) (uint64, error) {
	value, version, err := store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(value, v); err != nil {
		return 0, fmt.Errorf("decode entity %q: %w", key, err)
	}
	return version, nil
}

// StageJSON encodes an entity and stages its compare-and-swap write.
func StageJSON(txn *Txn, key string, v any, expectedVersion uint64) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode entity %q: %w", key, err)
	}
	txn.Put(key, value, expectedVersion)
	return nil
}
