//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"canon/internal/document"
	"canon/internal/session"
	"canon/internal/session/store/postgres"
	id "canon/pkg/domain"
	"canon/pkg/platform/sentinel"
	"canon/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T(), postgres.Schema)
	s.store = postgres.New(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), `TRUNCATE sessions`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) makeSession() *session.Session {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &session.Session{
		ID:        id.NewSessionID(),
		Workflow:  "buyer_intake",
		Status:    session.StatusActive,
		Document:  document.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	sess := s.makeSession()
	sess.Document.Root["applicant"] = map[string]any{"full_name": "Ada Lovelace", "dependants": float64(2)}

	s.Require().NoError(s.store.Create(ctx, sess))

	got, err := s.store.Get(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.Workflow, got.Workflow)
	s.Equal(session.StatusActive, got.Status)
	s.Equal(sess.Document.Root, got.Document.Root)
	s.Equal(int64(0), got.Document.Version)
}

func (s *PostgresStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	sess := s.makeSession()
	s.Require().NoError(s.store.Create(ctx, sess))
	s.ErrorIs(s.store.Create(ctx, sess), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestGetUnknownSession() {
	_, err := s.store.Get(context.Background(), id.NewSessionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSaveDocumentCAS() {
	ctx := context.Background()
	sess := s.makeSession()
	s.Require().NoError(s.store.Create(ctx, sess))

	doc := sess.Document.Clone()
	doc.Root["loan"] = map[string]any{"amount": float64(500000)}
	s.Require().NoError(s.store.SaveDocument(ctx, sess.ID, doc))

	got, err := s.store.Get(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), got.Document.Version)

	// A writer still holding version 0 loses the race.
	stale := sess.Document.Clone()
	s.ErrorIs(s.store.SaveDocument(ctx, sess.ID, stale), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestSaveDocumentUnknownSession() {
	err := s.store.SaveDocument(context.Background(), id.NewSessionID(), document.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSetStatus() {
	ctx := context.Background()
	sess := s.makeSession()
	s.Require().NoError(s.store.Create(ctx, sess))

	s.Require().NoError(s.store.SetStatus(ctx, sess.ID, session.StatusCompleted))

	got, err := s.store.Get(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(session.StatusCompleted, got.Status)
}
