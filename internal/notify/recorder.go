package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"custodia/internal/platform/metrics"
	"custodia/pkg/requestcontext"
)

// Recorder attempts delivery and writes the outcome to the ledger. The two
// are deliberately decoupled: a failed delivery still produces a FAILED
// ledger entry, and the ledger write runs on a cancellation-free context so
// a caller timing out cannot leave an attempt unrecorded.
type Recorder struct {
	transport Transport
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewRecorder(transport Transport, store Store, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{transport: transport, store: store, logger: logger, metrics: m}
}

// Record sends the notification and appends the attempt to the ledger.
// It returns whether delivery succeeded. Delivery failure is not an error
// to the caller; it is an outcome.
func (r *Recorder) Record(ctx context.Context, n Notification) bool {
	sendErr := r.transport.Send(ctx, n.Recipient, n.Subject, n.Body)

	entry := &Entry{
		ID:          uuid.New(),
		EventType:   n.EventType,
		Recipient:   n.Recipient,
		Subject:     n.Subject,
		ReferenceID: n.ReferenceID,
		Status:      StatusSent,
		AttemptedAt: requestcontext.Now(ctx),
	}
	if sendErr != nil {
		entry.Status = StatusFailed
		entry.ErrorDetail = sendErr.Error()
		r.logger.WarnContext(ctx, "notification delivery failed",
			slog.String("event_type", string(n.EventType)),
			slog.String("recipient", n.Recipient),
			slog.String("reference_id", n.ReferenceID.String()),
			slog.String("error", sendErr.Error()))
	}
	r.metrics.RecordNotification(string(entry.Status))

	// The ledger write must survive the request being cancelled mid-flight.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.store.Create(writeCtx, entry); err != nil {
		// The attempt happened but the ledger missed it. There is no retry
		// path that preserves ordering, so this is surfaced as loudly as a
		// log line can.
		r.logger.ErrorContext(ctx, "notification ledger write failed",
			slog.String("event_type", string(n.EventType)),
			slog.String("recipient", n.Recipient),
			slog.String("reference_id", n.ReferenceID.String()),
			slog.String("status", string(entry.Status)),
			slog.String("error", err.Error()))
	}

	return sendErr == nil
}

// History returns the ledger entries for one reference, newest first.
func (r *Recorder) History(ctx context.Context, referenceID uuid.UUID) ([]*Entry, error) {
	return r.store.ListByReference(ctx, referenceID)
}
