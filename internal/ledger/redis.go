package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"landledger/pkg/platform/sentinel"
)

const (
	keyPrefix    = "ll:"
	fieldValue   = "value"
	fieldVersion = "version"
)

// RedisStore keeps ledger entries in Redis hashes (one per key, holding the
// value and its version). Apply runs under WATCH so concurrent writers race on
// versions exactly as they do on the other backends.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed ledger store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(key string) string {
	return keyPrefix + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, uint64, error) {
	fields, err := s.client.HMGet(ctx, redisKey(key), fieldValue, fieldVersion).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("get ledger entry: %w", err)
	}
	if fields[0] == nil || fields[1] == nil {
		return nil, 0, sentinel.ErrNotFound
	}
	value, ok := fields[0].(string)
	if !ok {
		return nil, 0, fmt.Errorf("ledger entry %q: unexpected value type", key)
	}
	raw, ok := fields[1].(string)
	if !ok {
		return nil, 0, fmt.Errorf("ledger entry %q: unexpected version type", key)
	}
	version, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger entry %q: parse version: %w", key, err)
	}
	return []byte(value), version, nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("check ledger entry: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Apply(ctx context.Context, txn *Txn) error {
	writes := txn.Writes()
	watched := make([]string, 0, len(writes))
	for _, w := range writes {
		watched = append(watched, redisKey(w.Key))
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		// Validate every version inside the watch so any concurrent touch
		// of these keys aborts the MULTI/EXEC below.
		for _, w := range writes {
			raw, err := tx.HGet(ctx, redisKey(w.Key), fieldVersion).Result()
			current := uint64(0)
			switch {
			case errors.Is(err, redis.Nil):
				// absent, version stays 0
			case err != nil:
				return fmt.Errorf("read version %q: %w", w.Key, err)
			default:
				current, err = strconv.ParseUint(raw, 10, 64)
				if err != nil {
					return fmt.Errorf("parse version %q: %w", w.Key, err)
				}
			}
			if current != w.ExpectedVersion {
				return sentinel.ErrConflict
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range writes {
				pipe.HSet(ctx, redisKey(w.Key),
					fieldValue, string(w.Value),
					fieldVersion, strconv.FormatUint(w.ExpectedVersion+1, 10),
				)
			}
			return nil
		})
		return err
	}, watched...)

	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrConflict
	}
	return err
}
