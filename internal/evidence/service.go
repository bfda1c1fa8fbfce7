package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"custodia/internal/attachment"
	"custodia/internal/audit"
	"custodia/internal/cases"
	"custodia/internal/custody"
	"custodia/internal/identity"
	"custodia/internal/notify"
	"custodia/internal/platform/metrics"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// Service implements evidence logging and catalog reads. It also acts as
// the custody package's Catalog.
type Service struct {
	store         Store
	attachments   attachment.Store
	cases         *cases.Registry
	identities    *identity.Service
	auditor       *audit.Recorder
	notifier      *notify.Recorder
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer
	notifyTimeout time.Duration
}

func NewService(
	store Store,
	attachments attachment.Store,
	caseRegistry *cases.Registry,
	identities *identity.Service,
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
		attachments:   attachments,
		cases:         caseRegistry,
		identities:    identities,
		auditor:       auditor,
		notifier:      notifier,
		metrics:       m,
		logger:        logger,
		tracer:        otel.Tracer("custodia/evidence"),
		notifyTimeout: notifyTimeout,
	}
}

// LogEvidence catalogs a seized item. The attachment is stored first; only
// a successful upload produces a reference worth cataloging. The catalog
// row, the assigned code, and the initial custody state (the logging
// officer holding the item at the stated location) then commit together.
func (s *Service) LogEvidence(ctx context.Context, req LogRequest, file io.Reader) (*Item, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.log",
		trace.WithAttributes(attribute.String("case_id", req.CaseID.String())))
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	officerID := requestcontext.UserID(ctx)
	if officerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "logging requires an authenticated officer")
	}
	officer, err := s.identities.Get(ctx, officerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.cases.Get(ctx, req.CaseID); err != nil {
		return nil, err
	}

	ref, err := s.attachments.Save(ctx, req.AttachmentName, req.ContentType, file)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to store attachment")
	}

	now := requestcontext.Now(ctx)
	item, err := NewItem(id.NewEvidenceID(), req.CaseID,
		req.Description, req.Category, req.Location, officerID, ref, now)
	if err != nil {
		return nil, err
	}
	state := custody.State{
		EvidenceID: item.ID,
		HolderID:   officerID,
		Location:   item.Station,
		UpdatedAt:  now,
	}
	if err := s.store.CreateWithCustody(ctx, item, state); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "evidence item collided with a concurrent write")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to log evidence item")
	}
	s.metrics.IncrementEvidenceLogged()

	s.logger.InfoContext(ctx, "evidence logged",
		slog.String("evidence_code", item.Code),
		slog.String("evidence_id", item.ID.String()),
		slog.String("case_id", item.CaseID.String()))

	s.auditor.Record(ctx, audit.ActionEvidenceLogged, audit.TargetEvidence, item.ID.String(), map[string]any{
		"evidence_code": item.Code,
		"case_id":       item.CaseID.String(),
		"category":      item.Category,
		"station":       item.Station,
	})

	// Confirmation mail to the logging officer runs off the request path;
	// the recorder ledgers the outcome either way.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	go func() {
		defer cancel()
		s.notifier.Record(notifyCtx, notify.Notification{
			EventType:   notify.EventEvidenceLogged,
			Recipient:   officer.Email,
			Subject:     fmt.Sprintf("Evidence logged: %s", item.Code),
			Body: fmt.Sprintf(
				"Evidence item %s (%s) was logged under your custody at %s.",
				item.Code, item.Description, item.Station),
			ReferenceID: item.ID.UUID(),
		})
	}()

	return item, nil
}

// Get returns one catalog record.
func (s *Service) Get(ctx context.Context, evidenceID id.EvidenceID) (*Item, error) {
	if evidenceID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "evidence id is required")
	}
	item, err := s.store.FindByID(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "evidence item not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load evidence item")
	}
	return item, nil
}

// ListByCase returns a case's items, newest first.
func (s *Service) ListByCase(ctx context.Context, caseID id.CaseID) ([]*Item, error) {
	if _, err := s.cases.Get(ctx, caseID); err != nil {
		return nil, err
	}
	items, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list evidence")
	}
	return items, nil
}

// Search serves the admin projection over the catalog.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]*Item, int, error) {
	items, total, err := s.store.Search(ctx, q)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeStorage, "failed to search evidence")
	}
	return items, total, nil
}

// OpenAttachment streams the item's proof-of-seizure attachment.
func (s *Service) OpenAttachment(ctx context.Context, evidenceID id.EvidenceID) (io.ReadCloser, *Item, error) {
	item, err := s.Get(ctx, evidenceID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.attachments.Open(ctx, item.AttachmentRef)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to open attachment")
	}
	return rc, item, nil
}

// Resolve implements custody.Catalog.
func (s *Service) Resolve(ctx context.Context, evidenceID id.EvidenceID) (custody.CatalogItem, error) {
	item, err := s.Get(ctx, evidenceID)
	if err != nil {
		return custody.CatalogItem{}, err
	}
	return custody.CatalogItem{
		ID:          item.ID,
		CaseID:      item.CaseID,
		Code:        item.Code,
		Description: item.Description,
	}, nil
}
