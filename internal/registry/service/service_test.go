package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landledger/internal/access"
	"landledger/internal/events"
	"landledger/internal/ledger"
	"landledger/internal/query"
	"landledger/internal/registry/models"
	"landledger/pkg/domainerrors"
	"landledger/pkg/platform/sentinel"
)

type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) last() events.Event {
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// conflictStore simulates a concurrent writer winning every Apply race.
type conflictStore struct {
	ledger.Store
}

func (conflictStore) Apply(context.Context, *ledger.Txn) error {
	return sentinel.ErrConflict
}

type RegistrySuite struct {
	suite.Suite
	ctx       context.Context
	store     *ledger.InMemoryStore
	publisher *capturePublisher
	service   *Service

	revenue   access.Caller
	registrar access.Caller
	bank      access.Caller
	admin     access.Caller
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = ledger.NewInMemoryStore()
	s.publisher = &capturePublisher{}

	seq := 0
	s.service = NewService(
		s.store,
		query.NewIndexer(s.store),
		s.publisher,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }),
		WithIDSource(func() string { seq++; return fmt.Sprintf("TXN-%d", seq) }),
	)

	s.revenue = access.NewCaller("revenue-officer-1", access.OrgRevenue)
	s.registrar = access.NewCaller("registrar-1", access.OrgRegistrar)
	s.bank = access.NewCaller("bank-1", access.OrgBank)
	s.admin = access.NewCaller("govtech-1", access.OrgGovTech)
}

func (s *RegistrySuite) newParcelInput(landID string) models.NewParcelInput {
	return models.NewParcelInput{
		LandID:       landID,
		SurveyNumber: "SRV-" + landID,
		State:        "Maharashtra",
		District:     "Mumbai",
		Tehsil:       "Andheri",
		Village:      "Versova",
		Pincode:      "400061",
		Area:         520.5,
		AreaUnit:     "SQMT",
		OwnerID:      "AADH-1001",
		OwnerName:    "Rajesh Kumar",
		OwnerType:    "INDIVIDUAL",
		LandType:     "RESIDENTIAL",
	}
}

func (s *RegistrySuite) createParcel(landID string) {
	s.Require().NoError(s.service.CreateParcel(s.ctx, s.revenue, CreateParcelParams{
		Parcel: s.newParcelInput(landID),
	}))
}

// mutateParcel rewrites a stored parcel directly, for arranging states the
// registry service alone cannot reach (open mortgages, disputes).
func (s *RegistrySuite) mutateParcel(landID string, fn func(*models.LandParcel)) {
	var parcel models.LandParcel
	version, err := ledger.GetJSON(s.ctx, s.store, models.ParcelKey(landID), &parcel)
	s.Require().NoError(err)
	fn(&parcel)
	txn := ledger.NewTxn()
	s.Require().NoError(ledger.StageJSON(txn, models.ParcelKey(landID), parcel, version))
	s.Require().NoError(s.store.Apply(s.ctx, txn))
}

func (s *RegistrySuite) TestCreateParcel() {
	s.Run("creates genesis record", func() {
		s.Require().NoError(s.service.CreateParcel(s.ctx, s.revenue, CreateParcelParams{
			Parcel:       s.newParcelInput("MH-MUM-001"),
			DocumentHash: "abc123",
			DocumentURI:  "digilocker://ror/MH-MUM-001",
		}))

		parcel, err := s.service.GetParcel(s.ctx, "MH-MUM-001")
		s.Require().NoError(err)
		s.Equal(models.StatusActive, parcel.Status)
		s.Equal(uint64(1), parcel.Version)
		s.Equal("AADH-1001", parcel.CurrentOwner)

		s.Require().Len(parcel.OwnershipHistory, 1)
		genesis := parcel.OwnershipHistory[0]
		s.Equal(models.EventGenesis, genesis.EventType)
		s.Empty(genesis.FromOwner)
		s.Zero(genesis.Consideration)
		s.Equal("MH-MUM-001-GENESIS", genesis.EventID)

		s.Require().Len(parcel.Documents, 1)
		s.Equal(models.DocROR, parcel.Documents[0].DocumentType)
		s.Equal("MH-MUM-001-DOC-GENESIS", parcel.Documents[0].DocumentID)

		s.Equal(events.ParcelCreated{LandID: "MH-MUM-001", SurveyNumber: "SRV-MH-MUM-001"}, s.publisher.last())
	})

	s.Run("omits genesis document when hash missing", func() {
		s.createParcel("MH-MUM-002")
		parcel, err := s.service.GetParcel(s.ctx, "MH-MUM-002")
		s.Require().NoError(err)
		s.Empty(parcel.Documents)
	})

	s.Run("duplicate landId fails AlreadyExists and leaves record intact", func() {
		s.createParcel("MH-MUM-003")

		in := s.newParcelInput("MH-MUM-003")
		in.OwnerName = "Someone Else"
		err := s.service.CreateParcel(s.ctx, s.registrar, CreateParcelParams{Parcel: in})
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeAlreadyExists))

		parcel, err := s.service.GetParcel(s.ctx, "MH-MUM-003")
		s.Require().NoError(err)
		s.Equal("Rajesh Kumar", parcel.CurrentOwnerName)
		s.Equal(uint64(1), parcel.Version)
	})

	s.Run("bank cannot create parcels", func() {
		err := s.service.CreateParcel(s.ctx, s.bank, CreateParcelParams{Parcel: s.newParcelInput("MH-MUM-004")})
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodePermissionDenied))
	})
}

func (s *RegistrySuite) TestReads() {
	s.Run("GetParcel of unknown id fails NotFound", func() {
		_, err := s.service.GetParcel(s.ctx, "NOPE-1")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})

	s.Run("ParcelExists", func() {
		s.createParcel("KA-BLR-001")
		ok, err := s.service.ParcelExists(s.ctx, "KA-BLR-001")
		s.Require().NoError(err)
		s.True(ok)

		ok, err = s.service.ParcelExists(s.ctx, "KA-BLR-404")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("GetOwnershipHistory returns the chain", func() {
		s.createParcel("KA-BLR-002")
		history, err := s.service.GetOwnershipHistory(s.ctx, "KA-BLR-002")
		s.Require().NoError(err)
		s.Require().Len(history, 1)
		s.Equal(models.EventGenesis, history[0].EventType)
	})
}

func (s *RegistrySuite) TestProposeSaleTransfer() {
	transfer := func(landID string) (string, error) {
		return s.service.ProposeSaleTransfer(s.ctx, s.registrar, TransferParams{
			LandID:             landID,
			NewOwner:           "AADH-2002",
			NewOwnerName:       "Anita Sharma",
			RegistrationNumber: "REG-2026-42",
			Consideration:      2500000,
			StampDuty:          125000,
			DocumentHash:       "deed-hash",
			DocumentURI:        "digilocker://deed/42",
			BiometricVerified:  true,
		})
	}

	s.Run("appends sale event and swaps owner", func() {
		s.createParcel("TN-CHN-001")

		txnID, err := transfer("TN-CHN-001")
		s.Require().NoError(err)
		s.NotEmpty(txnID)

		parcel, err := s.service.GetParcel(s.ctx, "TN-CHN-001")
		s.Require().NoError(err)
		s.Equal("AADH-2002", parcel.CurrentOwner)
		s.Equal("Anita Sharma", parcel.CurrentOwnerName)
		s.Equal(uint64(2), parcel.Version)

		s.Require().Len(parcel.OwnershipHistory, 2)
		sale := parcel.OwnershipHistory[1]
		s.Equal(models.EventSale, sale.EventType)
		s.Equal("AADH-1001", sale.FromOwner)
		s.Equal("AADH-2002", sale.ToOwner)
		s.Equal(sale.ToOwner, parcel.CurrentOwner)
		s.True(sale.BiometricVerified)

		s.Require().Len(parcel.Documents, 1)
		s.Equal(models.DocSaleDeed, parcel.Documents[0].DocumentType)
		s.Equal(sale.DocumentRef, parcel.Documents[0].DocumentID)

		s.Equal(events.OwnershipTransferred{
			LandID: "TN-CHN-001", FromOwner: "AADH-1001", ToOwner: "AADH-2002", TransactionID: txnID,
		}, s.publisher.last())
	})

	s.Run("rejects transfer of mortgaged parcel", func() {
		s.createParcel("TN-CHN-002")
		s.mutateParcel("TN-CHN-002", func(p *models.LandParcel) {
			p.MortgageIDs = []string{"MTG-9"}
			p.Status = models.StatusMortgaged
		})

		_, err := transfer("TN-CHN-002")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeInvalidState))

		parcel, err := s.service.GetParcel(s.ctx, "TN-CHN-002")
		s.Require().NoError(err)
		s.Len(parcel.OwnershipHistory, 1)
		s.Equal("AADH-1001", parcel.CurrentOwner)
	})

	s.Run("rejects transfer while under dispute", func() {
		s.createParcel("TN-CHN-003")
		s.mutateParcel("TN-CHN-003", func(p *models.LandParcel) {
			p.Status = models.StatusUnderDispute
			p.DisputeIDs = []string{"DSP-9"}
		})

		_, err := transfer("TN-CHN-003")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeInvalidState))
	})

	s.Run("rejects transfer of frozen parcel", func() {
		s.createParcel("TN-CHN-004")
		s.Require().NoError(s.service.FreezeParcel(s.ctx, s.admin, "TN-CHN-004", "fraud investigation"))

		_, err := transfer("TN-CHN-004")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeInvalidState))
	})

	s.Run("only registrar may transfer", func() {
		s.createParcel("TN-CHN-005")
		_, err := s.service.ProposeSaleTransfer(s.ctx, s.revenue, TransferParams{LandID: "TN-CHN-005", NewOwner: "X", NewOwnerName: "X"})
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodePermissionDenied))
	})

	s.Run("unknown parcel fails NotFound", func() {
		_, err := transfer("TN-CHN-404")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func (s *RegistrySuite) TestFinalizeSaleTransfer() {
	s.createParcel("WB-KOL-001")
	txnID, err := s.service.ProposeSaleTransfer(s.ctx, s.registrar, TransferParams{
		LandID: "WB-KOL-001", NewOwner: "AADH-3003", NewOwnerName: "Dipak Sen",
	})
	s.Require().NoError(err)

	s.Run("confirms a recorded transfer without mutating", func() {
		before, err := s.service.GetParcel(s.ctx, "WB-KOL-001")
		s.Require().NoError(err)

		s.Require().NoError(s.service.FinalizeSaleTransfer(s.ctx, s.registrar, "WB-KOL-001", txnID))

		after, err := s.service.GetParcel(s.ctx, "WB-KOL-001")
		s.Require().NoError(err)
		s.Equal(before.Version, after.Version)
	})

	s.Run("unknown transaction fails NotFound", func() {
		err := s.service.FinalizeSaleTransfer(s.ctx, s.registrar, "WB-KOL-001", "TXN-UNKNOWN")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})

	s.Run("unknown parcel fails NotFound", func() {
		err := s.service.FinalizeSaleTransfer(s.ctx, s.registrar, "WB-KOL-404", txnID)
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func (s *RegistrySuite) TestFreezeUnfreeze() {
	s.Run("only admin may freeze", func() {
		s.createParcel("GJ-AHM-001")
		err := s.service.FreezeParcel(s.ctx, s.registrar, "GJ-AHM-001", "")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodePermissionDenied))
	})

	s.Run("freeze and unfreeze restore encumbrance-derived status", func() {
		s.createParcel("GJ-AHM-002")
		s.Require().NoError(s.service.FreezeParcel(s.ctx, s.admin, "GJ-AHM-002", "court direction"))

		parcel, err := s.service.GetParcel(s.ctx, "GJ-AHM-002")
		s.Require().NoError(err)
		s.Equal(models.StatusFrozen, parcel.Status)
		s.Equal(uint64(2), parcel.Version)

		s.Require().NoError(s.service.UnfreezeParcel(s.ctx, s.admin, "GJ-AHM-002"))
		parcel, err = s.service.GetParcel(s.ctx, "GJ-AHM-002")
		s.Require().NoError(err)
		s.Equal(models.StatusActive, parcel.Status)
		s.Equal(uint64(3), parcel.Version)
	})

	s.Run("unfreeze restores MORTGAGED when mortgages remain", func() {
		s.createParcel("GJ-AHM-003")
		s.mutateParcel("GJ-AHM-003", func(p *models.LandParcel) {
			p.MortgageIDs = []string{"MTG-7"}
			p.Status = models.StatusMortgaged
		})
		s.Require().NoError(s.service.FreezeParcel(s.ctx, s.admin, "GJ-AHM-003", ""))
		s.Require().NoError(s.service.UnfreezeParcel(s.ctx, s.admin, "GJ-AHM-003"))

		parcel, err := s.service.GetParcel(s.ctx, "GJ-AHM-003")
		s.Require().NoError(err)
		s.Equal(models.StatusMortgaged, parcel.Status)
	})

	s.Run("double freeze fails InvalidState", func() {
		s.createParcel("GJ-AHM-004")
		s.Require().NoError(s.service.FreezeParcel(s.ctx, s.admin, "GJ-AHM-004", ""))
		err := s.service.FreezeParcel(s.ctx, s.admin, "GJ-AHM-004", "")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeInvalidState))
	})
}

func (s *RegistrySuite) TestVersionCounting() {
	s.createParcel("UP-LKO-001")
	for i := 0; i < 3; i++ {
		_, err := s.service.ProposeSaleTransfer(s.ctx, s.registrar, TransferParams{
			LandID:       "UP-LKO-001",
			NewOwner:     fmt.Sprintf("AADH-%d", 5000+i),
			NewOwnerName: fmt.Sprintf("Owner %d", i),
		})
		s.Require().NoError(err)
	}

	parcel, err := s.service.GetParcel(s.ctx, "UP-LKO-001")
	s.Require().NoError(err)
	// version = 1 + N successful mutations
	s.Equal(uint64(4), parcel.Version)
	s.Len(parcel.OwnershipHistory, 4)
	s.Equal(parcel.OwnershipHistory[3].ToOwner, parcel.CurrentOwner)
}

func (s *RegistrySuite) TestConflictSurfaces() {
	s.createParcel("RJ-JPR-001")

	racy := NewService(
		conflictStore{s.store},
		query.NewIndexer(s.store),
		s.publisher,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	_, err := racy.ProposeSaleTransfer(s.ctx, s.registrar, TransferParams{
		LandID: "RJ-JPR-001", NewOwner: "AADH-9", NewOwnerName: "Racer",
	})
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeConflict))

	// loser's view is unchanged
	parcel, err := s.service.GetParcel(s.ctx, "RJ-JPR-001")
	s.Require().NoError(err)
	s.Equal("AADH-1001", parcel.CurrentOwner)
	s.Equal(uint64(1), parcel.Version)
}
