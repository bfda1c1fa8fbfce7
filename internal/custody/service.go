package custody

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"custodia/internal/audit"
	"custodia/internal/identity"
	"custodia/internal/notify"
	"custodia/internal/platform/metrics"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// CatalogItem is the slice of an evidence record the transfer protocol
// needs: which case the item belongs to and its human-facing code.
type CatalogItem struct {
	ID          id.EvidenceID
	CaseID      id.CaseID
	Code        string
	Description string
}

// Catalog resolves evidence items for transfers without coupling this
// package to the evidence store.
type Catalog interface {
	Resolve(ctx context.Context, evidenceID id.EvidenceID) (CatalogItem, error)
}

// TransferResult is what a committed transfer hands back: the ledger entry
// and whether the destination holder's notification was delivered. Delivery
// failure does not undo the transfer.
type TransferResult struct {
	Entry     *TransferLedgerEntry
	Delivered bool
}

// HistoryEntry is a ledger entry hydrated with display names for reads.
type HistoryEntry struct {
	*TransferLedgerEntry
	FromHolderName  string `json:"from_holder_name"`
	ToHolderName    string `json:"to_holder_name"`
	InitiatedByName string `json:"initiated_by_name"`
}

// Service implements the transfer protocol on top of the custody store's
// locked execute primitive.
type Service struct {
	store         Store
	catalog       Catalog
	identities    *identity.Service
	cache         *StateCache
	auditor       *audit.Recorder
	notifier      *notify.Recorder
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer
	notifyTimeout time.Duration
}

func NewService(
	store Store,
	catalog Catalog,
	identities *identity.Service,
	cache *StateCache,
	auditor *audit.Recorder,
	notifier *notify.Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
	notifyTimeout time.Duration,
) *Service {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &Service{
		store:         store,
		catalog:       catalog,
		identities:    identities,
		cache:         cache,
		auditor:       auditor,
		notifier:      notifier,
		metrics:       m,
		logger:        logger,
		tracer:        otel.Tracer("custodia/custody"),
		notifyTimeout: notifyTimeout,
	}
}

// TransferCustody moves an item to a new holder and location.
//
// The decision happens under the item's exclusive lock: the current state
// is read, the destination is compared against it, and only a real change
// commits. A request naming the current holder at the current location is
// rejected as a no-op so the ledger never records an entry that changes
// nothing. Either the ledger entry and the state update both commit, or
// neither does.
func (s *Service) TransferCustody(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	ctx, span := s.tracer.Start(ctx, "custody.transfer",
		trace.WithAttributes(attribute.String("evidence_id", req.EvidenceID.String())))
	defer span.End()

	if err := req.Validate(); err != nil {
		s.metrics.RecordTransfer("rejected")
		return nil, err
	}

	initiator := requestcontext.UserID(ctx)
	if initiator.IsNil() {
		s.metrics.RecordTransfer("rejected")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "transfer requires an authenticated initiator")
	}

	item, err := s.catalog.Resolve(ctx, req.EvidenceID)
	if err != nil {
		s.metrics.RecordTransfer("rejected")
		return nil, err
	}

	dest, err := s.identities.ResolveHolder(ctx, req.ToHolderID, req.ToHolderEmail)
	if err != nil {
		s.metrics.RecordTransfer("rejected")
		return nil, err
	}

	now := requestcontext.Now(ctx)
	transferredAt := req.TransferDate
	if transferredAt.IsZero() {
		transferredAt = now
	}
	toLocation := strings.TrimSpace(req.ToLocation)

	started := time.Now()
	entry, err := s.store.ExecuteTransfer(ctx, req.EvidenceID, func(current State) (*TransferLedgerEntry, error) {
		if current.HolderID == dest.ID && strings.EqualFold(current.Location, toLocation) {
			return nil, dErrors.New(dErrors.CodeNoOpTransfer,
				"item is already held by this holder at this location")
		}
		return NewTransferLedgerEntry(
			id.NewTransferID(), req.EvidenceID, item.CaseID, initiator,
			current, dest.ID, toLocation, req.Reason, transferredAt, now,
		)
	})
	s.metrics.ObserveTransferDuration(time.Since(started))
	if err != nil {
		return nil, s.transferError(err)
	}
	s.metrics.RecordTransfer("committed")
	s.cache.Invalidate(ctx, req.EvidenceID)

	s.logger.InfoContext(ctx, "custody transferred",
		slog.String("evidence_code", item.Code),
		slog.String("transfer_id", entry.ID.String()),
		slog.String("from_holder", entry.FromHolder.String()),
		slog.String("to_holder", entry.ToHolder.String()))

	s.auditor.Record(ctx, audit.ActionCustodyTransferred, audit.TargetTransfer, entry.ID.String(), map[string]any{
		"evidence_id":   entry.EvidenceID.String(),
		"evidence_code": item.Code,
		"from_holder":   entry.FromHolder.String(),
		"to_holder":     entry.ToHolder.String(),
		"to_location":   entry.ToLocation,
		"reason":        entry.Reason,
	})

	// The destination holder is told synchronously so the response can
	// carry the delivery outcome. The attempt is bounded: a slow relay
	// delays this request, never blocks it indefinitely.
	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	delivered := s.notifier.Record(notifyCtx, notify.Notification{
		EventType:   notify.EventCustodyTransferred,
		Recipient:   dest.Email,
		Subject:     fmt.Sprintf("Custody transferred: %s", item.Code),
		Body: fmt.Sprintf(
			"Evidence item %s (%s) has been transferred to your custody at %s.\nReason: %s",
			item.Code, item.Description, entry.ToLocation, entry.Reason),
		ReferenceID: entry.ID.UUID(),
	})

	return &TransferResult{Entry: entry, Delivered: delivered}, nil
}

// transferError classifies a failed transfer for metrics and maps store
// sentinels onto the caller-facing taxonomy. Decision errors produced
// inside the lock already carry their codes and pass through.
func (s *Service) transferError(err error) error {
	switch {
	case dErrors.HasCode(err, dErrors.CodeNoOpTransfer):
		s.metrics.RecordTransfer("no_op")
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		s.metrics.RecordTransfer("rejected")
		return dErrors.New(dErrors.CodeNotFound, "no custody record for this evidence item")
	case errors.Is(err, sentinel.ErrConflict):
		s.metrics.RecordTransfer("failed")
		return dErrors.New(dErrors.CodeConflict, "transfer collided with a concurrent write")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		s.metrics.RecordTransfer("rejected")
		return err
	default:
		s.metrics.RecordTransfer("failed")
		return dErrors.Wrap(err, dErrors.CodeStorage, "transfer could not be committed")
	}
}

// Current returns the item's custody state, serving reads from the cache
// when one is configured.
func (s *Service) Current(ctx context.Context, evidenceID id.EvidenceID) (State, error) {
	if evidenceID.IsNil() {
		return State{}, dErrors.New(dErrors.CodeValidation, "evidence id is required")
	}
	if state, ok := s.cache.Get(ctx, evidenceID); ok {
		return state, nil
	}
	state, err := s.store.Current(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return State{}, dErrors.New(dErrors.CodeNotFound, "no custody record for this evidence item")
		}
		return State{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load custody state")
	}
	s.cache.Set(ctx, state)
	return state, nil
}

// History returns the item's full transfer ledger, newest first, with
// holder display names resolved for presentation.
func (s *Service) History(ctx context.Context, evidenceID id.EvidenceID) ([]HistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "custody.history",
		trace.WithAttributes(attribute.String("evidence_id", evidenceID.String())))
	defer span.End()

	if _, err := s.catalog.Resolve(ctx, evidenceID); err != nil {
		return nil, err
	}
	entries, err := s.store.History(ctx, evidenceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load transfer history")
	}
	return s.hydrate(ctx, entries), nil
}

// SearchTransfers serves the admin projection over the whole ledger.
func (s *Service) SearchTransfers(ctx context.Context, q SearchQuery) ([]HistoryEntry, int, error) {
	entries, total, err := s.store.SearchTransfers(ctx, q)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeStorage, "failed to search transfers")
	}
	return s.hydrate(ctx, entries), total, nil
}

func (s *Service) hydrate(ctx context.Context, entries []*TransferLedgerEntry) []HistoryEntry {
	ids := make([]id.UserID, 0, len(entries)*3)
	for _, entry := range entries {
		ids = append(ids, entry.FromHolder, entry.ToHolder, entry.InitiatedBy)
	}
	names := s.identities.DisplayNames(ctx, ids)

	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryEntry{
			TransferLedgerEntry: entry,
			FromHolderName:      names[entry.FromHolder],
			ToHolderName:        names[entry.ToHolder],
			InitiatedByName:     names[entry.InitiatedBy],
		})
	}
	return out
}
