package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"canon/internal/document"
	"canon/internal/session"
	"canon/internal/session/store/memory"
	id "canon/pkg/domain"
	"canon/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *memory.InMemoryStore
	sess  *session.Session
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	now := time.Now().UTC()
	s.sess = &session.Session{
		ID:        id.NewSessionID(),
		Workflow:  "buyer_intake",
		Status:    session.StatusActive,
		Document:  document.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.store.Create(context.Background(), s.sess))
}

func (s *MemoryStoreSuite) TestCreateRejectsDuplicateID() {
	err := s.store.Create(context.Background(), s.sess)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestGetUnknownSession() {
	_, err := s.store.Get(context.Background(), id.NewSessionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestGetReturnsIsolatedCopy() {
	got, err := s.store.Get(context.Background(), s.sess.ID)
	s.Require().NoError(err)

	got.Document.Root["applicant"] = map[string]any{"full_name": "intruder"}

	again, err := s.store.Get(context.Background(), s.sess.ID)
	s.Require().NoError(err)
	s.Empty(again.Document.Root)
}

func (s *MemoryStoreSuite) TestSaveDocumentBumpsVersion() {
	got, err := s.store.Get(context.Background(), s.sess.ID)
	s.Require().NoError(err)

	doc := got.Document.Clone()
	doc.Root["applicant"] = map[string]any{"full_name": "Ada Lovelace"}
	s.Require().NoError(s.store.SaveDocument(context.Background(), s.sess.ID, doc))

	reloaded, err := s.store.Get(context.Background(), s.sess.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), reloaded.Document.Version)
	s.NotEmpty(reloaded.Document.Root)
}

func (s *MemoryStoreSuite) TestSaveDocumentDetectsLostRace() {
	got, err := s.store.Get(context.Background(), s.sess.ID)
	s.Require().NoError(err)

	first := got.Document.Clone()
	s.Require().NoError(s.store.SaveDocument(context.Background(), s.sess.ID, first))

	// A second writer still holding the old version loses.
	stale := got.Document.Clone()
	err = s.store.SaveDocument(context.Background(), s.sess.ID, stale)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestSetStatus() {
	s.Require().NoError(s.store.SetStatus(context.Background(), s.sess.ID, session.StatusAbandoned))

	got, err := s.store.Get(context.Background(), s.sess.ID)
	s.Require().NoError(err)
	s.Equal(session.StatusAbandoned, got.Status)
	s.True(got.Status.Terminal())
}
