package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit entries from a channel and persists them. It keeps
// background processing testable without wiring queue implementations in.
type Worker struct {
	store  Store
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled. A failed append is logged and
// dropped rather than crashing the worker; the synchronous trail written by
// the orchestrator remains the source of record.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.store.Append(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"session_id", entry.SessionID.String(),
					"path", entry.Path,
					"error", err,
				)
			}
		}
	}
}
