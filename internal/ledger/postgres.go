package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"landledger/pkg/platform/sentinel"
)

// PostgresStore persists ledger entries in a single key/value/version table.
// Version predicates on every write reproduce the platform's at-most-one-winner
// guarantee inside an ordinary SQL transaction.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed ledger store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ledger table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			key     TEXT PRIMARY KEY,
			value   JSONB  NOT NULL,
			version BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, uint64, error) {
	var value []byte
	var version uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, version FROM ledger_entries WHERE key = $1`, key,
	).Scan(&value, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, sentinel.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get ledger entry: %w", err)
	}
	return value, version, nil
}

func (s *PostgresStore) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE key = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger entry: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Apply(ctx context.Context, txn *Txn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger txn: %w", err)
	}
	defer tx.Rollback()

	for _, w := range txn.Writes() {
		var res sql.Result
		if w.ExpectedVersion == 0 {
			res, err = tx.ExecContext(ctx, `
				INSERT INTO ledger_entries (key, value, version)
				VALUES ($1, $2, 1)
				ON CONFLICT (key) DO NOTHING
			`, w.Key, w.Value)
		} else {
			res, err = tx.ExecContext(ctx, `
				UPDATE ledger_entries
				SET value = $2, version = version + 1
				WHERE key = $1 AND version = $3
			`, w.Key, w.Value, w.ExpectedVersion)
		}
		if err != nil {
			return fmt.Errorf("apply ledger write %q: %w", w.Key, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("apply ledger write %q: %w", w.Key, err)
		}
		if affected != 1 {
			return sentinel.ErrConflict
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger txn: %w", err)
	}
	return nil
}
