package audit

import (
	"context"

	id "canon/pkg/domain"
)

// Store persists audit entries. Append-only; nothing ever updates or deletes
// an entry.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListBySession(ctx context.Context, sessionID id.SessionID) ([]Entry, error)
}
