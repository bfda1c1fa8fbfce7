package audit

import (
	"context"
	"log/slog"
	"time"
)

const streamBufferSize = 256

// Worker drains audit entries onto the stream publisher off the request
// path. Enqueue never blocks: when the buffer is full the entry is dropped
// from the stream (the database copy is unaffected) and the drop is logged.
type Worker struct {
	publisher *StreamPublisher
	logger    *slog.Logger
	ch        chan *Entry
}

func NewWorker(publisher *StreamPublisher, logger *slog.Logger) *Worker {
	return &Worker{
		publisher: publisher,
		logger:    logger,
		ch:        make(chan *Entry, streamBufferSize),
	}
}

func (w *Worker) Enqueue(entry *Entry) {
	select {
	case w.ch <- entry:
	default:
		w.logger.Warn("audit stream buffer full, dropping entry",
			slog.String("action", entry.Action),
			slog.String("target_id", entry.TargetID))
	}
}

// Run publishes until ctx is cancelled, then drains what is already
// buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case entry := <-w.ch:
			w.publish(ctx, entry)
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		}
	}
}

func (w *Worker) publish(ctx context.Context, entry *Entry) {
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := w.publisher.Publish(publishCtx, entry); err != nil {
		w.logger.Warn("audit stream publish failed",
			slog.String("action", entry.Action),
			slog.String("target_id", entry.TargetID),
			slog.String("error", err.Error()))
	}
}

func (w *Worker) drain() {
	for {
		select {
		case entry := <-w.ch:
			w.publish(context.Background(), entry)
		default:
			return
		}
	}
}
