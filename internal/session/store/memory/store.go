package memory

import (
	"context"
	"sync"
	"time"

	"canon/internal/document"
	"canon/internal/session"
	id "canon/pkg/domain"
	"canon/pkg/platform/sentinel"
)

// InMemoryStore favors clarity over performance. Sessions are deep-copied on
// the way in and out so callers never alias stored state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*session.Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[id.SessionID]*session.Session)}
}

func (s *InMemoryStore) Create(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.ID]; exists {
		return sentinel.ErrConflict
	}
	s.sessions[sess.ID] = copySession(sess)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sessionID id.SessionID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copySession(sess), nil
}

func (s *InMemoryStore) SaveDocument(_ context.Context, sessionID id.SessionID, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if sess.Document.Version != doc.Version {
		return sentinel.ErrConflict
	}
	saved := doc.Clone()
	saved.Version = doc.Version + 1
	sess.Document = saved
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, sessionID id.SessionID, status session.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	sess.Status = status
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

func copySession(sess *session.Session) *session.Session {
	cp := *sess
	cp.Document = sess.Document.Clone()
	return &cp
}
