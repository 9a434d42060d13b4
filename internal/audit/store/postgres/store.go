package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"canon/internal/audit"
	id "canon/pkg/domain"
)

// Store implements audit.Store using the transactional outbox pattern.
// Entries are written to the outbox table and relayed to Kafka by the outbox
// relay; the audit_entries table is the queryable materialization.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema is the DDL this store expects. Integration tests apply it to a
// fresh container; deployments own their migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_outbox (
	id           UUID PRIMARY KEY,
	session_id   UUID        NOT NULL,
	payload      JSONB       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS audit_outbox_unpublished
	ON audit_outbox (created_at) WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_entries (
	id            UUID PRIMARY KEY,
	session_id    UUID        NOT NULL,
	ts            TIMESTAMPTZ NOT NULL,
	operation     TEXT        NOT NULL,
	path          TEXT        NOT NULL,
	value         JSONB,
	justification TEXT        NOT NULL DEFAULT '',
	source_agent  TEXT        NOT NULL DEFAULT '',
	outcome       TEXT        NOT NULL,
	reason        TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_entries_session
	ON audit_entries (session_id, ts);
`

// Append writes the entry to both the queryable table and the outbox in one
// transaction, so the trail and the Kafka feed cannot diverge.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	var value []byte
	if entry.Value != nil {
		if value, err = json.Marshal(entry.Value); err != nil {
			return fmt.Errorf("marshal audit value: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, session_id, ts, operation, path, value,
			justification, source_agent, outcome, reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`,
		entry.ID,
		uuid.UUID(entry.SessionID),
		entry.Timestamp,
		entry.Operation,
		entry.Path,
		value,
		entry.Justification,
		entry.SourceAgent,
		entry.Outcome,
		entry.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, session_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		uuid.New(),
		uuid.UUID(entry.SessionID),
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit outbox entry: %w", err)
	}

	return tx.Commit()
}

// ListBySession returns the session's trail in timestamp order.
func (s *Store) ListBySession(ctx context.Context, sessionID id.SessionID) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, ts, operation, path, value,
		       justification, source_agent, outcome, reason
		FROM audit_entries
		WHERE session_id = $1
		ORDER BY ts, id
	`, uuid.UUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			e     audit.Entry
			sid   uuid.UUID
			value []byte
		)
		if err := rows.Scan(
			&e.ID, &sid, &e.Timestamp, &e.Operation, &e.Path, &value,
			&e.Justification, &e.SourceAgent, &e.Outcome, &e.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.SessionID = id.SessionID(sid)
		if len(value) > 0 {
			if err := json.Unmarshal(value, &e.Value); err != nil {
				return nil, fmt.Errorf("decode audit value: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UnpublishedBatch returns up to limit outbox rows awaiting relay, oldest
// first.
func (s *Store) UnpublishedBatch(ctx context.Context, limit int) ([]audit.OutboxRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit outbox: %w", err)
	}
	defer rows.Close()

	var batch []audit.OutboxRow
	for rows.Next() {
		var row audit.OutboxRow
		if err := rows.Scan(&row.ID, &row.SessionID, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, row)
	}
	return batch, rows.Err()
}

// MarkPublished timestamps relayed rows so they are never re-sent.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = $1 WHERE id = ANY($2)
	`, time.Now().UTC(), ids)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
