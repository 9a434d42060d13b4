package audit

import (
	"context"

	"github.com/google/uuid"

	id "canon/pkg/domain"
	"canon/pkg/requestcontext"
)

// Publisher captures audit entries. It is append-only and uses the store
// layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit persists one entry, filling in identity and timestamp when the caller
// left them zero. The timestamp comes from the request-scoped clock so every
// entry of one batch carries the same instant.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx).UTC()
	}
	return p.store.Append(ctx, entry)
}

// EmitAll persists a batch in order. The first failure aborts; earlier
// entries stay written, so callers treat a partial trail as better than none.
func (p *Publisher) EmitAll(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := p.Emit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, sessionID id.SessionID) ([]Entry, error) {
	return p.store.ListBySession(ctx, sessionID)
}
