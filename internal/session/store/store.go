// Package store defines session persistence. Implementations return
// sentinel errors for infrastructure facts; the service layer translates
// them into domain errors.
package store

import (
	"context"

	"canon/internal/document"
	"canon/internal/session"
	id "canon/pkg/domain"
)

// Store persists sessions.
//
// SaveDocument is a compare-and-swap: it persists doc only if the stored
// version still equals doc.Version, then bumps the version. A lost race
// returns sentinel.ErrConflict and the caller re-reads and retries. This
// keeps batch application atomic even when two processes share a store.
type Store interface {
	Create(ctx context.Context, sess *session.Session) error
	Get(ctx context.Context, sessionID id.SessionID) (*session.Session, error)
	SaveDocument(ctx context.Context, sessionID id.SessionID, doc *document.Document) error
	SetStatus(ctx context.Context, sessionID id.SessionID, status session.Status) error
}
