package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"canon/internal/document"
	"canon/internal/session"
	id "canon/pkg/domain"
	"canon/pkg/platform/sentinel"
)

// Store persists sessions in Postgres. The document travels as JSONB with an
// explicit version column for compare-and-swap saves.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema is the DDL this store expects. Integration tests apply it to a
// fresh container; deployments own their migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         UUID PRIMARY KEY,
	workflow   TEXT        NOT NULL,
	status     TEXT        NOT NULL,
	document   JSONB       NOT NULL,
	version    BIGINT      NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	doc, err := json.Marshal(sess.Document.Root)
	if err != nil {
		return fmt.Errorf("marshal session document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, workflow, status, document, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.UUID(sess.ID),
		sess.Workflow,
		string(sess.Status),
		doc,
		sess.Document.Version,
		sess.CreatedAt,
		sess.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sessionID id.SessionID) (*session.Session, error) {
	var (
		sess    session.Session
		sid     uuid.UUID
		status  string
		raw     []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workflow, status, document, version, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`, uuid.UUID(sessionID)).Scan(
		&sid, &sess.Workflow, &status, &raw, &version, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	root := make(map[string]any)
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("decode session document: %w", err)
	}

	sess.ID = id.SessionID(sid)
	sess.Status = session.Status(status)
	sess.Document = &document.Document{Root: root, Version: version}
	return &sess, nil
}

func (s *Store) SaveDocument(ctx context.Context, sessionID id.SessionID, doc *document.Document) error {
	raw, err := json.Marshal(doc.Root)
	if err != nil {
		return fmt.Errorf("marshal session document: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET document = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`, raw, time.Now().UTC(), uuid.UUID(sessionID), doc.Version)
	if err != nil {
		return fmt.Errorf("update session document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session document: %w", err)
	}
	if affected == 0 {
		return s.missOrConflict(ctx, sessionID)
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, sessionID id.SessionID, status session.Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3
	`, string(status), time.Now().UTC(), uuid.UUID(sessionID))
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// missOrConflict disambiguates a zero-row CAS update: the session is either
// gone or the version moved underneath us.
func (s *Store) missOrConflict(ctx context.Context, sessionID id.SessionID) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE id = $1`, uuid.UUID(sessionID),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check session existence: %w", err)
	}
	return sentinel.ErrConflict
}

func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	return errors.As(err, &c) && c.SQLState() == "23505"
}
