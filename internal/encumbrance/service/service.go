// Package service implements the encumbrance overlay: disputes and mortgages
// that restrict a parcel's transferability. Each operation mutates the
// encumbrance record and the parcel it references in one ledger transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"landledger/internal/access"
	"landledger/internal/encumbrance/models"
	"landledger/internal/events"
	"landledger/internal/ledger"
	"landledger/internal/platform/metrics"
	"landledger/internal/query"
	regmodels "landledger/internal/registry/models"
	"landledger/pkg/domainerrors"
	"landledger/pkg/platform/sentinel"
)

// Service owns dispute and mortgage entities.
type Service struct {
	store     ledger.Store
	indexer   *query.Indexer
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time
	newID     func() string
}

// Option configures the Service.
type Option func(*Service)

// WithClock pins the clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDSource replaces the event-ID generator for tests.
func WithIDSource(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithMetrics attaches operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs the encumbrance service.
func NewService(store ledger.Store, indexer *query.Indexer, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		indexer:   indexer,
		publisher: publisher,
		logger:    logger,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RaiseDispute files a dispute against a parcel and places the parcel under
// dispute. Several disputes may be open against one parcel at a time.
func (s *Service) RaiseDispute(ctx context.Context, caller access.Caller, in models.NewDisputeInput) (err error) {
	start := s.clock()
	defer func() { s.metrics.Observe(string(access.OpRaiseDispute), start, err) }()

	if err = access.AssertPermission(caller, access.OpRaiseDispute); err != nil {
		return err
	}

	disputeKey := models.DisputeKey(in.DisputeID)
	exists, err := s.store.Exists(ctx, disputeKey)
	if err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "check dispute existence", err)
	}
	if exists {
		return domainerrors.Newf(domainerrors.CodeAlreadyExists, "dispute %s already exists", in.DisputeID)
	}

	parcel, version, err := s.loadParcel(ctx, in.LandID)
	if err != nil {
		return err
	}

	now := s.clock()
	dispute := models.NewDisputeRecord(in, caller.Org, now)

	before := *parcel
	parcel.Status = regmodels.StatusUnderDispute
	parcel.DisputeIDs = append(parcel.DisputeIDs, in.DisputeID)
	parcel.Touch(caller.Org, now)

	txn := ledger.NewTxn()
	if err = ledger.StageJSON(txn, disputeKey, dispute, 0); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage dispute", err)
	}
	if err = ledger.StageJSON(txn, regmodels.ParcelKey(in.LandID), parcel, version); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage parcel", err)
	}
	if err = s.indexer.Stage(ctx, txn, &before, parcel); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage indexes", err)
	}
	if err = s.apply(ctx, txn); err != nil {
		return err
	}

	s.publish(ctx, events.DisputeRaised{
		DisputeID:   in.DisputeID,
		LandID:      in.LandID,
		DisputeType: in.DisputeType,
	})
	return nil
}

// ResolveDisputeParams carries a dispute resolution. The reassignment pair is
// optional; when set, a court order transfers ownership regardless of the
// parcel's encumbrance locks.
type ResolveDisputeParams struct {
	DisputeID         string
	ResolutionDetails string
	ReassignOwner     string
	ReassignOwnerName string
}

// ResolveDispute closes a dispute and returns the parcel to ACTIVE only when
// no other referenced dispute remains unresolved.
func (s *Service) ResolveDispute(ctx context.Context, caller access.Caller, p ResolveDisputeParams) (err error) {
	start := s.clock()
	defer func() { s.metrics.Observe(string(access.OpResolveDispute), start, err) }()

	if err = access.AssertPermission(caller, access.OpResolveDispute); err != nil {
		return err
	}

	dispute, disputeVersion, err := s.loadDispute(ctx, p.DisputeID)
	if err != nil {
		return err
	}
	if dispute.IsClosed() {
		return domainerrors.Newf(domainerrors.CodeInvalidState,
			"dispute %s is already %s", p.DisputeID, dispute.Status)
	}

	parcel, parcelVersion, err := s.loadParcel(ctx, dispute.LandID)
	if err != nil {
		return err
	}

	now := s.clock()
	dispute.Status = models.DisputeResolved
	dispute.ResolutionDate = &now
	dispute.ResolutionDetails = p.ResolutionDetails
	dispute.LastUpdatedBy = caller.Org
	dispute.LastUpdatedAt = now

	before := *parcel
	if p.ReassignOwner != "" && p.ReassignOwnerName != "" {
		event := regmodels.OwnershipEvent{
			EventID:            regmodels.CourtOrderEventID(dispute.LandID, s.newID()),
			EventType:          regmodels.EventCourtOrder,
			FromOwner:          parcel.CurrentOwner,
			FromOwnerName:      parcel.CurrentOwnerName,
			ToOwner:            p.ReassignOwner,
			ToOwnerName:        p.ReassignOwnerName,
			TransactionDate:    now,
			RegistrationNumber: dispute.CourtCaseID,
			RecordedBy:         caller.Org,
		}
		parcel.CurrentOwner = p.ReassignOwner
		parcel.CurrentOwnerName = p.ReassignOwnerName
		parcel.OwnershipHistory = append(parcel.OwnershipHistory, event)
	}

	allClosed, err := s.allDisputesClosed(ctx, parcel.DisputeIDs, dispute)
	if err != nil {
		return err
	}
	if allClosed {
		parcel.Status = regmodels.StatusActive
	}
	parcel.Touch(caller.Org, now)

	txn := ledger.NewTxn()
	if err = ledger.StageJSON(txn, models.DisputeKey(p.DisputeID), dispute, disputeVersion); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage dispute", err)
	}
	if err = ledger.StageJSON(txn, regmodels.ParcelKey(dispute.LandID), parcel, parcelVersion); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage parcel", err)
	}
	if err = s.indexer.Stage(ctx, txn, &before, parcel); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage indexes", err)
	}
	if err = s.apply(ctx, txn); err != nil {
		return err
	}

	s.publish(ctx, events.DisputeResolved{DisputeID: p.DisputeID, LandID: dispute.LandID})
	return nil
}

// allDisputesClosed checks every dispute referenced by the parcel, treating
// resolving as already closed since its write commits in the same transaction.
func (s *Service) allDisputesClosed(ctx context.Context, disputeIDs []string, resolving *models.DisputeRecord) (bool, error) {
	for _, disputeID := range disputeIDs {
		if disputeID == resolving.DisputeID {
			continue
		}
		var dispute models.DisputeRecord
		_, err := ledger.GetJSON(ctx, s.store, models.DisputeKey(disputeID), &dispute)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, domainerrors.Wrap(domainerrors.CodeInternal, "load dispute", err)
		}
		if !dispute.IsClosed() {
			return false, nil
		}
	}
	return true, nil
}

// CreateMortgageParams carries the mortgage terms plus an optional sanction
// letter stored under its own ledger key.
type CreateMortgageParams struct {
	Mortgage           models.NewMortgageInput
	SanctionLetterHash string
	SanctionLetterURI  string
}

// CreateMortgage encumbers a parcel with a bank loan. The borrower must be
// the parcel's current owner and the parcel must not be frozen or disputed.
func (s *Service) CreateMortgage(ctx context.Context, caller access.Caller, p CreateMortgageParams) (err error) {
	start := s.clock()
	defer func() { s.metrics.Observe(string(access.OpCreateMortgage), start, err) }()

	if err = access.AssertPermission(caller, access.OpCreateMortgage); err != nil {
		return err
	}

	mortgageKey := models.MortgageKey(p.Mortgage.MortgageID)
	exists, err := s.store.Exists(ctx, mortgageKey)
	if err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "check mortgage existence", err)
	}
	if exists {
		return domainerrors.Newf(domainerrors.CodeAlreadyExists, "mortgage %s already exists", p.Mortgage.MortgageID)
	}

	parcel, version, err := s.loadParcel(ctx, p.Mortgage.LandID)
	if err != nil {
		return err
	}
	if parcel.Status == regmodels.StatusFrozen || parcel.Status == regmodels.StatusUnderDispute {
		return domainerrors.Newf(domainerrors.CodeInvalidState,
			"cannot mortgage parcel %s: status is %s", p.Mortgage.LandID, parcel.Status)
	}
	if parcel.CurrentOwner != p.Mortgage.Borrower {
		return domainerrors.Newf(domainerrors.CodeOwnershipMismatch,
			"borrower %s is not the current owner of parcel %s", p.Mortgage.Borrower, p.Mortgage.LandID)
	}

	now := s.clock()
	txn := ledger.NewTxn()

	sanctionRef := ""
	if p.SanctionLetterHash != "" && p.SanctionLetterURI != "" {
		doc := regmodels.NewDocumentRef(
			regmodels.SanctionDocumentID(p.Mortgage.MortgageID),
			p.SanctionLetterHash, regmodels.DocSanctionLetter, p.SanctionLetterURI,
			caller.ID, caller.Org, now,
		)
		if err = ledger.StageJSON(txn, regmodels.DocumentKey(doc.DocumentID), doc, 0); err != nil {
			return domainerrors.Wrap(domainerrors.CodeInternal, "stage sanction letter", err)
		}
		sanctionRef = doc.DocumentID
	}

	mortgage := models.NewMortgageRecord(p.Mortgage, caller.Org, now, sanctionRef)

	before := *parcel
	parcel.MortgageIDs = append(parcel.MortgageIDs, p.Mortgage.MortgageID)
	parcel.Status = regmodels.StatusMortgaged
	parcel.Touch(caller.Org, now)

	if err = ledger.StageJSON(txn, mortgageKey, mortgage, 0); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage mortgage", err)
	}
	if err = ledger.StageJSON(txn, regmodels.ParcelKey(p.Mortgage.LandID), parcel, version); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage parcel", err)
	}
	if err = s.indexer.Stage(ctx, txn, &before, parcel); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage indexes", err)
	}
	if err = s.apply(ctx, txn); err != nil {
		return err
	}

	s.publish(ctx, events.MortgageCreated{
		MortgageID: p.Mortgage.MortgageID,
		LandID:     p.Mortgage.LandID,
		LoanAmount: p.Mortgage.LoanAmount,
	})
	return nil
}

// CloseMortgage settles a mortgage and lifts the encumbrance. The parcel
// reverts to ACTIVE only when this was its last open mortgage and nothing
// else changed its status meanwhile.
func (s *Service) CloseMortgage(ctx context.Context, caller access.Caller, mortgageID, closureReason string) (err error) {
	start := s.clock()
	defer func() { s.metrics.Observe(string(access.OpCloseMortgage), start, err) }()

	if err = access.AssertPermission(caller, access.OpCloseMortgage); err != nil {
		return err
	}

	mortgage, mortgageVersion, err := s.loadMortgage(ctx, mortgageID)
	if err != nil {
		return err
	}
	if mortgage.Status == models.MortgageClosed {
		return domainerrors.Newf(domainerrors.CodeInvalidState, "mortgage %s is already closed", mortgageID)
	}

	parcel, parcelVersion, err := s.loadParcel(ctx, mortgage.LandID)
	if err != nil {
		return err
	}

	now := s.clock()
	mortgage.Status = models.MortgageClosed
	mortgage.ClosureDate = &now
	mortgage.ClosureReason = closureReason
	mortgage.OutstandingAmount = 0
	mortgage.LastUpdatedBy = caller.Org
	mortgage.LastUpdatedAt = now

	before := *parcel
	parcel.RemoveMortgageID(mortgageID)
	if !parcel.HasOpenMortgages() && parcel.Status == regmodels.StatusMortgaged {
		parcel.Status = regmodels.StatusActive
	}
	parcel.Touch(caller.Org, now)

	txn := ledger.NewTxn()
	if err = ledger.StageJSON(txn, models.MortgageKey(mortgageID), mortgage, mortgageVersion); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage mortgage", err)
	}
	if err = ledger.StageJSON(txn, regmodels.ParcelKey(mortgage.LandID), parcel, parcelVersion); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage parcel", err)
	}
	if err = s.indexer.Stage(ctx, txn, &before, parcel); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage indexes", err)
	}
	if err = s.apply(ctx, txn); err != nil {
		return err
	}

	s.publish(ctx, events.MortgageClosed{MortgageID: mortgageID, LandID: mortgage.LandID})
	return nil
}

// GetDispute returns the dispute stored under disputeID.
func (s *Service) GetDispute(ctx context.Context, disputeID string) (*models.DisputeRecord, error) {
	dispute, _, err := s.loadDispute(ctx, disputeID)
	return dispute, err
}

// GetMortgage returns the mortgage stored under mortgageID.
func (s *Service) GetMortgage(ctx context.Context, mortgageID string) (*models.MortgageRecord, error) {
	mortgage, _, err := s.loadMortgage(ctx, mortgageID)
	return mortgage, err
}

func (s *Service) loadParcel(ctx context.Context, landID string) (*regmodels.LandParcel, uint64, error) {
	var parcel regmodels.LandParcel
	version, err := ledger.GetJSON(ctx, s.store, regmodels.ParcelKey(landID), &parcel)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, 0, domainerrors.Newf(domainerrors.CodeNotFound, "land parcel %s does not exist", landID)
	}
	if err != nil {
		return nil, 0, domainerrors.Wrap(domainerrors.CodeInternal, fmt.Sprintf("load parcel %s", landID), err)
	}
	return &parcel, version, nil
}

func (s *Service) loadDispute(ctx context.Context, disputeID string) (*models.DisputeRecord, uint64, error) {
	var dispute models.DisputeRecord
	version, err := ledger.GetJSON(ctx, s.store, models.DisputeKey(disputeID), &dispute)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, 0, domainerrors.Newf(domainerrors.CodeNotFound, "dispute %s does not exist", disputeID)
	}
	if err != nil {
		return nil, 0, domainerrors.Wrap(domainerrors.CodeInternal, fmt.Sprintf("load dispute %s", disputeID), err)
	}
	return &dispute, version, nil
}

func (s *Service) loadMortgage(ctx context.Context, mortgageID string) (*models.MortgageRecord, uint64, error) {
	var mortgage models.MortgageRecord
	version, err := ledger.GetJSON(ctx, s.store, models.MortgageKey(mortgageID), &mortgage)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, 0, domainerrors.Newf(domainerrors.CodeNotFound, "mortgage %s does not exist", mortgageID)
	}
	if err != nil {
		return nil, 0, domainerrors.Wrap(domainerrors.CodeInternal, fmt.Sprintf("load mortgage %s", mortgageID), err)
	}
	return &mortgage, version, nil
}

func (s *Service) apply(ctx context.Context, txn *ledger.Txn) error {
	if err := s.store.Apply(ctx, txn); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncConflict()
			return domainerrors.Wrap(domainerrors.CodeConflict,
				"concurrent update detected, re-read and retry", err)
		}
		return domainerrors.Wrap(domainerrors.CodeInternal, "ledger write failed", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "event", event.EventName(), "error", err)
	}
}
