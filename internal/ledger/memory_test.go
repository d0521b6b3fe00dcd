package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"landledger/pkg/platform/sentinel"
)

type LedgerStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *LedgerStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestLedgerStoreSuite(t *testing.T) {
	suite.Run(t, new(LedgerStoreSuite))
}

func (s *LedgerStoreSuite) put(key, value string, expected uint64) error {
	txn := NewTxn()
	txn.Put(key, []byte(value), expected)
	return s.store.Apply(s.ctx, txn)
}

func (s *LedgerStoreSuite) TestGetAndExists() {
	s.Run("returns ErrNotFound for absent key", func() {
		_, _, err := s.store.Get(s.ctx, "parcel/missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		ok, err := s.store.Exists(s.ctx, "parcel/missing")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("round-trips value and version", func() {
		s.Require().NoError(s.put("parcel/MH-1", `{"landId":"MH-1"}`, 0))

		value, version, err := s.store.Get(s.ctx, "parcel/MH-1")
		s.Require().NoError(err)
		s.Equal(`{"landId":"MH-1"}`, string(value))
		s.Equal(uint64(1), version)

		ok, err := s.store.Exists(s.ctx, "parcel/MH-1")
		s.Require().NoError(err)
		s.True(ok)
	})
}

func (s *LedgerStoreSuite) TestVersioning() {
	s.Run("version advances by one per commit", func() {
		s.Require().NoError(s.put("parcel/KA-1", "v1", 0))
		s.Require().NoError(s.put("parcel/KA-1", "v2", 1))
		s.Require().NoError(s.put("parcel/KA-1", "v3", 2))

		_, version, err := s.store.Get(s.ctx, "parcel/KA-1")
		s.Require().NoError(err)
		s.Equal(uint64(3), version)
	})

	s.Run("stale expected version fails with ErrConflict", func() {
		s.Require().NoError(s.put("parcel/KA-2", "v1", 0))
		s.Require().NoError(s.put("parcel/KA-2", "v2", 1))

		err := s.put("parcel/KA-2", "late writer", 1)
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		value, version, err := s.store.Get(s.ctx, "parcel/KA-2")
		s.Require().NoError(err)
		s.Equal("v2", string(value))
		s.Equal(uint64(2), version)
	})

	s.Run("create of existing key fails with ErrConflict", func() {
		s.Require().NoError(s.put("dispute/D-1", "first", 0))
		s.Require().ErrorIs(s.put("dispute/D-1", "second", 0), sentinel.ErrConflict)
	})
}

func (s *LedgerStoreSuite) TestAtomicity() {
	s.Run("conflict on one key rolls back the whole batch", func() {
		s.Require().NoError(s.put("parcel/TN-1", "parcel", 0))

		txn := NewTxn()
		txn.Put("mortgage/M-1", []byte("mortgage"), 0)
		txn.Put("parcel/TN-1", []byte("updated"), 99) // stale

		s.Require().ErrorIs(s.store.Apply(s.ctx, txn), sentinel.ErrConflict)

		ok, err := s.store.Exists(s.ctx, "mortgage/M-1")
		s.Require().NoError(err)
		s.False(ok, "no partial writes may be visible")

		value, _, err := s.store.Get(s.ctx, "parcel/TN-1")
		s.Require().NoError(err)
		s.Equal("parcel", string(value))
	})

	s.Run("multi-key batch commits together", func() {
		txn := NewTxn()
		txn.Put("parcel/TN-2", []byte("parcel"), 0)
		txn.Put("idx/owner/alice", []byte(`["TN-2"]`), 0)
		s.Require().NoError(s.store.Apply(s.ctx, txn))

		for _, key := range []string{"parcel/TN-2", "idx/owner/alice"} {
			_, version, err := s.store.Get(s.ctx, key)
			s.Require().NoError(err)
			s.Equal(uint64(1), version)
		}
	})
}

func (s *LedgerStoreSuite) TestGetReturnsCopy() {
	s.Require().NoError(s.put("parcel/AP-1", "immutable", 0))

	value, _, err := s.store.Get(s.ctx, "parcel/AP-1")
	s.Require().NoError(err)
	value[0] = 'X'

	fresh, _, err := s.store.Get(s.ctx, "parcel/AP-1")
	s.Require().NoError(err)
	s.Equal("immutable", string(fresh))
}
