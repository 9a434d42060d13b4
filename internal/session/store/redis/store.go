package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"canon/internal/document"
	"canon/internal/session"
	id "canon/pkg/domain"
	"canon/pkg/platform/sentinel"
)

// Store persists sessions in Redis. Optimistic concurrency uses WATCH on the
// session key: a concurrent write aborts the transaction and surfaces as
// sentinel.ErrConflict, same as the Postgres CAS.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis session store. ttl of zero keeps sessions forever;
// production deployments set a horizon so abandoned interviews age out.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

type record struct {
	Workflow  string         `json:"workflow"`
	Status    session.Status `json:"status"`
	Document  map[string]any `json:"document"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func key(sessionID id.SessionID) string {
	return "intake:session:" + sessionID.String()
}

func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	raw, err := json.Marshal(record{
		Workflow:  sess.Workflow,
		Status:    sess.Status,
		Document:  sess.Document.Root,
		Version:   sess.Document.Version,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, key(sess.ID), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sessionID id.SessionID) (*session.Session, error) {
	raw, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &session.Session{
		ID:        sessionID,
		Workflow:  rec.Workflow,
		Status:    rec.Status,
		Document:  &document.Document{Root: rec.Document, Version: rec.Version},
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *Store) SaveDocument(ctx context.Context, sessionID id.SessionID, doc *document.Document) error {
	return s.update(ctx, sessionID, func(rec *record) error {
		if rec.Version != doc.Version {
			return sentinel.ErrConflict
		}
		rec.Document = doc.Root
		rec.Version = doc.Version + 1
		return nil
	})
}

func (s *Store) SetStatus(ctx context.Context, sessionID id.SessionID, status session.Status) error {
	return s.update(ctx, sessionID, func(rec *record) error {
		rec.Status = status
		return nil
	})
}

// update runs a WATCH-guarded read-modify-write on the session key.
func (s *Store) update(ctx context.Context, sessionID id.SessionID, mutate func(*record) error) error {
	k := key(sessionID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if err := mutate(&rec); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now().UTC()

		updated, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, updated, s.ttl)
			return nil
		})
		return err
	}, k)

	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrConflict
	}
	return err
}
