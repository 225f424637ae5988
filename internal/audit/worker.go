package audit

import (
	"context"
	"log/slog"
)

// Worker drains queued audit events into a store. A failed append is logged
// and skipped; audit side channels must never wedge on one bad event.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit append failed",
					"swap_id", event.SwapID,
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
