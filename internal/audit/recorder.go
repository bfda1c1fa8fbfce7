package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"custodia/internal/platform/metrics"
	"custodia/pkg/requestcontext"
)

// Recorder builds audit entries from request context and writes them.
// All failure modes are absorbed here: the trail is forensic support, not
// a gate on the operation it describes.
type Recorder struct {
	store   Store
	worker  *Worker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRecorder wires the recorder. worker may be nil when no audit stream is
// configured.
func NewRecorder(store Store, worker *Worker, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, worker: worker, logger: logger, metrics: m}
}

// Record writes one audit entry. Actor, source address and device come from
// the request context; detail is marshalled as the entry payload.
func (r *Recorder) Record(ctx context.Context, action, targetType, targetID string, detail any) {
	raw, err := json.Marshal(detail)
	if err != nil {
		r.logger.WarnContext(ctx, "audit detail not serializable, recording without it",
			slog.String("action", action),
			slog.String("error", err.Error()))
		raw = []byte("{}")
	}

	entry := &Entry{
		ID:         uuid.New(),
		ActorID:    requestcontext.UserID(ctx),
		ActorName:  requestcontext.DisplayName(ctx),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     raw,
		SourceIP:   requestcontext.ClientIP(ctx),
		Device:     requestcontext.Device(ctx),
		CreatedAt:  requestcontext.Now(ctx),
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.store.Create(writeCtx, entry); err != nil {
		r.metrics.IncrementAuditWriteFailure()
		r.logger.ErrorContext(ctx, "audit write failed",
			slog.String("action", action),
			slog.String("target_type", targetType),
			slog.String("target_id", targetID),
			slog.String("error", err.Error()))
	}

	if r.worker != nil {
		r.worker.Enqueue(entry)
	}
}

// List exposes the trail for the admin surface.
func (r *Recorder) List(ctx context.Context, limit int) ([]*Entry, error) {
	return r.store.List(ctx, limit)
}
