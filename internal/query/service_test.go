package query_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"landledger/internal/access"
	encmodels "landledger/internal/encumbrance/models"
	encservice "landledger/internal/encumbrance/service"
	"landledger/internal/events"
	"landledger/internal/ledger"
	"landledger/internal/query"
	"landledger/internal/registry/models"
	regservice "landledger/internal/registry/service"
)

type QuerySuite struct {
	suite.Suite
	ctx         context.Context
	queries     *query.Service
	registry    *regservice.Service
	encumbrance *encservice.Service

	revenue   access.Caller
	registrar access.Caller
}

func TestQuerySuite(t *testing.T) {
	suite.Run(t, new(QuerySuite))
}

func (s *QuerySuite) SetupTest() {
	s.ctx = context.Background()
	store := ledger.NewInMemoryStore()
	indexer := query.NewIndexer(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.queries = query.NewService(store)
	s.registry = regservice.NewService(store, indexer, events.Nop{}, logger)
	s.encumbrance = encservice.NewService(store, indexer, events.Nop{}, logger)

	s.revenue = access.NewCaller("revenue-officer-1", access.OrgRevenue)
	s.registrar = access.NewCaller("registrar-1", access.OrgRegistrar)
}

func (s *QuerySuite) createParcel(landID, state, district, ownerID, ownerName string) {
	s.Require().NoError(s.registry.CreateParcel(s.ctx, s.revenue, regservice.CreateParcelParams{
		Parcel: models.NewParcelInput{
			LandID:       landID,
			SurveyNumber: "SRV-" + landID,
			State:        state,
			District:     district,
			Tehsil:       "T",
			Village:      "V",
			Pincode:      "500001",
			Area:         1000,
			AreaUnit:     "SQFT",
			OwnerID:      ownerID,
			OwnerName:    ownerName,
			OwnerType:    "INDIVIDUAL",
			LandType:     "AGRICULTURAL",
		},
	}))
}

func (s *QuerySuite) landIDs(parcels []models.LandParcel) []string {
	ids := make([]string, 0, len(parcels))
	for _, p := range parcels {
		ids = append(ids, p.LandID)
	}
	return ids
}

func (s *QuerySuite) TestByOwner() {
	s.createParcel("TS-HYD-001", "Telangana", "Hyderabad", "AADH-1", "Farmer One")
	s.createParcel("TS-HYD-002", "Telangana", "Hyderabad", "AADH-1", "Farmer One")
	s.createParcel("TS-WGL-001", "Telangana", "Warangal", "AADH-2", "Farmer Two")

	parcels, err := s.queries.ByOwner(s.ctx, "AADH-1")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"TS-HYD-001", "TS-HYD-002"}, s.landIDs(parcels))

	s.Run("empty result for unknown owner", func() {
		parcels, err := s.queries.ByOwner(s.ctx, "AADH-404")
		s.Require().NoError(err)
		s.Empty(parcels)
		s.NotNil(parcels)
	})

	s.Run("transfer moves the parcel between owner entries", func() {
		_, err := s.registry.ProposeSaleTransfer(s.ctx, s.registrar, regservice.TransferParams{
			LandID: "TS-HYD-001", NewOwner: "AADH-2", NewOwnerName: "Farmer Two",
		})
		s.Require().NoError(err)

		parcels, err := s.queries.ByOwner(s.ctx, "AADH-1")
		s.Require().NoError(err)
		s.ElementsMatch([]string{"TS-HYD-002"}, s.landIDs(parcels))

		parcels, err = s.queries.ByOwner(s.ctx, "AADH-2")
		s.Require().NoError(err)
		s.ElementsMatch([]string{"TS-WGL-001", "TS-HYD-001"}, s.landIDs(parcels))
	})
}

func (s *QuerySuite) TestByStatus() {
	s.createParcel("TS-HYD-010", "Telangana", "Hyderabad", "AADH-10", "Owner Ten")
	s.createParcel("TS-HYD-011", "Telangana", "Hyderabad", "AADH-11", "Owner Eleven")

	parcels, err := s.queries.ByStatus(s.ctx, models.StatusActive)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"TS-HYD-010", "TS-HYD-011"}, s.landIDs(parcels))

	s.Run("status change moves the index entry", func() {
		s.Require().NoError(s.encumbrance.RaiseDispute(s.ctx, s.revenue, encmodels.NewDisputeInput{
			DisputeID: "DSP-10", LandID: "TS-HYD-010", DisputeType: "BOUNDARY",
			FiledBy: "AADH-11", FiledByName: "Owner Eleven",
		}))

		parcels, err := s.queries.ByStatus(s.ctx, models.StatusUnderDispute)
		s.Require().NoError(err)
		s.ElementsMatch([]string{"TS-HYD-010"}, s.landIDs(parcels))

		parcels, err = s.queries.ByStatus(s.ctx, models.StatusActive)
		s.Require().NoError(err)
		s.ElementsMatch([]string{"TS-HYD-011"}, s.landIDs(parcels))
	})

	s.Run("empty result for unused status", func() {
		parcels, err := s.queries.ByStatus(s.ctx, models.StatusFrozen)
		s.Require().NoError(err)
		s.Empty(parcels)
	})
}

func (s *QuerySuite) TestByDistrict() {
	s.createParcel("TS-HYD-020", "Telangana", "Hyderabad", "AADH-20", "Owner")
	s.createParcel("TS-WGL-020", "Telangana", "Warangal", "AADH-21", "Owner")
	s.createParcel("AP-VJA-020", "Andhra Pradesh", "Vijayawada", "AADH-22", "Owner")

	parcels, err := s.queries.ByDistrict(s.ctx, "Telangana", "Hyderabad")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"TS-HYD-020"}, s.landIDs(parcels))

	s.Run("district entry survives ownership changes", func() {
		_, err := s.registry.ProposeSaleTransfer(s.ctx, s.registrar, regservice.TransferParams{
			LandID: "TS-HYD-020", NewOwner: "AADH-23", NewOwnerName: "Buyer",
		})
		s.Require().NoError(err)

		parcels, err := s.queries.ByDistrict(s.ctx, "Telangana", "Hyderabad")
		s.Require().NoError(err)
		s.ElementsMatch([]string{"TS-HYD-020"}, s.landIDs(parcels))
	})

	s.Run("empty result for unknown district", func() {
		parcels, err := s.queries.ByDistrict(s.ctx, "Kerala", "Kochi")
		s.Require().NoError(err)
		s.Empty(parcels)
	})
}
