// Package service implements the title registry: parcel genesis, reads, the
// sale-transfer protocol, and administrative freezing. Every mutation checks
// the caller's permission first, stages all affected entities into one ledger
// transaction, and emits its domain event only after the commit.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"landledger/internal/access"
	encmodels "landledger/internal/encumbrance/models"
	"landledger/internal/events"
	"landledger/internal/ledger"
	"landledger/internal/platform/metrics"
	"landledger/internal/query"
	"landledger/internal/registry/models"
	"landledger/pkg/domainerrors"
	"landledger/pkg/platform/sentinel"
)

// Service owns parcel entities.
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

// WithIDSource replaces the transaction-ID generator for tests.
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

// NewService constructs the title registry service.
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

// CreateParcelParams carries the genesis descriptors. The document hash/URI
// pair is optional; when both are present a ROR genesis document is embedded.
type CreateParcelParams struct {
	Parcel       models.NewParcelInput
	DocumentHash string
	DocumentURI  string
}

// CreateParcel onboards a parcel from legacy record-of-rights data.
func (s *Service) CreateParcel(ctx context.Context, caller access.Caller, p CreateParcelParams) (err error) {
	start := s.clock()
	defer func() { s.metrics.Observe(string(access.OpCreateParcel), start, err) }()

	if err = access.AssertPermission(caller, access.OpCreateParcel); err != nil {
		return err
	}

	key := models.ParcelKey(p.Parcel.LandID)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "check parcel existence", err)
	}
	if exists {
		return domainerrors.Newf(domainerrors.CodeAlreadyExists, "land parcel %s already exists", p.Parcel.LandID)
	}

	now := s.clock()
	genesis := models.NewGenesisEvent(p.Parcel.LandID, p.Parcel.OwnerID, p.Parcel.OwnerName, caller.Org, now)

	var genesisDoc *models.DocumentRef
	if p.DocumentHash != "" && p.DocumentURI != "" {
		doc := models.NewDocumentRef(
			models.GenesisDocumentID(p.Parcel.LandID),
			p.DocumentHash, models.DocROR, p.DocumentURI,
			caller.ID, caller.Org, now,
		)
		doc.Description = "Genesis Record of Rights"
		genesisDoc = &doc
	}

	parcel := models.NewLandParcel(p.Parcel, caller.Org, now, genesis, genesisDoc)

	txn := ledger.NewTxn()
	if err = ledger.StageJSON(txn, key, parcel, 0); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage parcel", err)
	}
	if err = s.indexer.Stage(ctx, txn, nil, &parcel); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage indexes", err)
	}
	if err = s.apply(ctx, txn); err != nil {
		return err
	}

	s.publish(ctx, events.ParcelCreated{LandID: parcel.LandID, SurveyNumber: parcel.SurveyNumber})
	return nil
}

// GetParcel returns the parcel stored under landID.
func (s *Service) GetParcel(ctx context.Context, landID string) (*models.LandParcel, error) {
	parcel, _, err := s.loadParcel(ctx, landID)
	return parcel, err
}

// GetOwnershipHistory returns the parcel's complete ownership chain.
func (s *Service) GetOwnershipHistory(ctx context.Context, landID string) ([]models.OwnershipEvent, error) {
	parcel, _, err := s.loadParcel(ctx, landID)
	if err != nil {
		return nil, err
	}
	return parcel.OwnershipHistory, nil
}

// ParcelExists reports whether landID is registered.
func (s *Service) ParcelExists(ctx context.Context, landID string) (bool, error) {
	exists, err := s.store.Exists(ctx, models.ParcelKey(landID))
	if err != nil {
		return false, domainerrors.Wrap(domainerrors.CodeInternal, "check parcel existence", err)
	}
	return exists, nil
}

// TransferParams carries a sale-transfer proposal.
type TransferParams struct {
	LandID             string
	NewOwner           string
	NewOwnerName       string
	RegistrationNumber string
	Consideration      float64
	StampDuty          float64
	DocumentHash       string
	DocumentURI        string
	BiometricVerified  bool
}

// ProposeSaleTransfer validates transferability, records the sale deed and
// ownership event, and swaps the owner. The returned transaction ID is the
// handle FinalizeSaleTransfer is later invoked under; the mutation is already
// durable when this returns.
func (s *Service) ProposeSaleTransfer(ctx context.Context, caller access.Caller, p TransferParams) (txnID string, err error) {
	start := s.clock()
	defer func() { s.metrics.Observe(string(access.OpProposeTransfer), start, err) }()

	if err = access.AssertPermission(caller, access.OpProposeTransfer); err != nil {
		return "", err
	}

	parcel, version, err := s.loadParcel(ctx, p.LandID)
	if err != nil {
		return "", err
	}
	if parcel.Status == models.StatusFrozen || parcel.Status == models.StatusUnderDispute {
		return "", domainerrors.Newf(domainerrors.CodeInvalidState,
			"cannot transfer parcel %s: status is %s", p.LandID, parcel.Status)
	}
	if parcel.HasOpenMortgages() {
		return "", domainerrors.Newf(domainerrors.CodeInvalidState,
			"cannot transfer parcel %s: parcel has active mortgages", p.LandID)
	}

	before := *parcel
	now := s.clock()
	txnID = s.newID()

	saleDoc := models.NewDocumentRef(
		models.TransferDocumentID(p.LandID, txnID),
		p.DocumentHash, models.DocSaleDeed, p.DocumentURI,
		caller.ID, caller.Org, now,
	)
	saleDoc.RegistrationNumber = p.RegistrationNumber
	saleDoc.Consideration = p.Consideration
	saleDoc.StampDuty = p.StampDuty

	event := models.OwnershipEvent{
		EventID:            models.SaleEventID(p.LandID, txnID),
		EventType:          models.EventSale,
		FromOwner:          parcel.CurrentOwner,
		FromOwnerName:      parcel.CurrentOwnerName,
		ToOwner:            p.NewOwner,
		ToOwnerName:        p.NewOwnerName,
		TransactionDate:    now,
		RegistrationNumber: p.RegistrationNumber,
		DocumentRef:        saleDoc.DocumentID,
		Consideration:      p.Consideration,
		StampDuty:          p.StampDuty,
		RecordedBy:         caller.Org,
		BiometricVerified:  p.BiometricVerified,
	}

	parcel.CurrentOwner = p.NewOwner
	parcel.CurrentOwnerName = p.NewOwnerName
	parcel.OwnershipHistory = append(parcel.OwnershipHistory, event)
	parcel.Documents = append(parcel.Documents, saleDoc)
	parcel.Touch(caller.Org, now)

	txn := ledger.NewTxn()
	if err = ledger.StageJSON(txn, models.ParcelKey(p.LandID), parcel, version); err != nil {
		return "", domainerrors.Wrap(domainerrors.CodeInternal, "stage parcel", err)
	}
	if err = s.indexer.Stage(ctx, txn, &before, parcel); err != nil {
		return "", domainerrors.Wrap(domainerrors.CodeInternal, "stage indexes", err)
	}
	if err = s.apply(ctx, txn); err != nil {
		return "", err
	}

	s.publish(ctx, events.OwnershipTransferred{
		LandID:        p.LandID,
		FromOwner:     event.FromOwner,
		ToOwner:       p.NewOwner,
		TransactionID: txnID,
	})
	return txnID, nil
}

// FinalizeSaleTransfer confirms a proposed transfer. The proposal already
// mutated the ledger, so this is a workflow checkpoint: it verifies the
// transaction is recorded in the parcel's history and writes nothing.
func (s *Service) FinalizeSaleTransfer(ctx context.Context, caller access.Caller, landID, transactionID string) (err error) {
	start := s.clock()
	defer func() { s.metrics.Observe(string(access.OpFinalizeTransfer), start, err) }()

	if err = access.AssertPermission(caller, access.OpFinalizeTransfer); err != nil {
		return err
	}

	parcel, _, err := s.loadParcel(ctx, landID)
	if err != nil {
		return err
	}

	eventID := models.SaleEventID(landID, transactionID)
	for _, event := range parcel.OwnershipHistory {
		if event.EventID == eventID {
			s.logger.Info("transfer finalized", "landId", landID, "transactionId", transactionID)
			return nil
		}
	}
	return domainerrors.Newf(domainerrors.CodeNotFound,
		"transfer %s is not recorded for parcel %s", transactionID, landID)
}

// FreezeParcel puts a parcel into the administrative FROZEN state. Frozen
// parcels reject transfers and new mortgages until unfrozen.
func (s *Service) FreezeParcel(ctx context.Context, caller access.Caller, landID, remarks string) (err error) {
	start := s.clock()
	defer func() { s.metrics.Observe(string(access.OpFreezeParcel), start, err) }()

	if err = access.AssertPermission(caller, access.OpFreezeParcel); err != nil {
		return err
	}

	parcel, version, err := s.loadParcel(ctx, landID)
	if err != nil {
		return err
	}
	if parcel.Status == models.StatusFrozen {
		return domainerrors.Newf(domainerrors.CodeInvalidState, "parcel %s is already frozen", landID)
	}

	before := *parcel
	parcel.Status = models.StatusFrozen
	if remarks != "" {
		parcel.Remarks = remarks
	}
	parcel.Touch(caller.Org, s.clock())

	if err = s.stageAndApply(ctx, parcel, &before, version); err != nil {
		return err
	}
	s.publish(ctx, events.ParcelFrozen{LandID: landID})
	return nil
}

// UnfreezeParcel lifts an administrative freeze, restoring the status the
// parcel's encumbrances dictate.
func (s *Service) UnfreezeParcel(ctx context.Context, caller access.Caller, landID string) (err error) {
	start := s.clock()
	defer func() { s.metrics.Observe(string(access.OpUnfreezeParcel), start, err) }()

	if err = access.AssertPermission(caller, access.OpUnfreezeParcel); err != nil {
		return err
	}

	parcel, version, err := s.loadParcel(ctx, landID)
	if err != nil {
		return err
	}
	if parcel.Status != models.StatusFrozen {
		return domainerrors.Newf(domainerrors.CodeInvalidState, "parcel %s is not frozen", landID)
	}

	status, err := s.encumbranceStatus(ctx, parcel)
	if err != nil {
		return err
	}

	before := *parcel
	parcel.Status = status
	parcel.Touch(caller.Org, s.clock())

	if err = s.stageAndApply(ctx, parcel, &before, version); err != nil {
		return err
	}
	s.publish(ctx, events.ParcelUnfrozen{LandID: landID})
	return nil
}

// encumbranceStatus derives the non-frozen status: any unresolved dispute
// wins, then open mortgages, then ACTIVE.
func (s *Service) encumbranceStatus(ctx context.Context, parcel *models.LandParcel) (models.ParcelStatus, error) {
	for _, disputeID := range parcel.DisputeIDs {
		var dispute encmodels.DisputeRecord
		_, err := ledger.GetJSON(ctx, s.store, encmodels.DisputeKey(disputeID), &dispute)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", domainerrors.Wrap(domainerrors.CodeInternal, "load dispute", err)
		}
		if !dispute.IsClosed() {
			return models.StatusUnderDispute, nil
		}
	}
	if parcel.HasOpenMortgages() {
		return models.StatusMortgaged, nil
	}
	return models.StatusActive, nil
}

func (s *Service) loadParcel(ctx context.Context, landID string) (*models.LandParcel, uint64, error) {
	var parcel models.LandParcel
	version, err := ledger.GetJSON(ctx, s.store, models.ParcelKey(landID), &parcel)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, 0, domainerrors.Newf(domainerrors.CodeNotFound, "land parcel %s does not exist", landID)
	}
	if err != nil {
		return nil, 0, domainerrors.Wrap(domainerrors.CodeInternal, fmt.Sprintf("load parcel %s", landID), err)
	}
	return &parcel, version, nil
}

func (s *Service) stageAndApply(ctx context.Context, parcel *models.LandParcel, before *models.LandParcel, version uint64) error {
	txn := ledger.NewTxn()
	if err := ledger.StageJSON(txn, models.ParcelKey(parcel.LandID), parcel, version); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage parcel", err)
	}
	if err := s.indexer.Stage(ctx, txn, before, parcel); err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "stage indexes", err)
	}
	return s.apply(ctx, txn)
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
