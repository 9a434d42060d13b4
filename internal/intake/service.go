package intake

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"canon/internal/audit"
	"canon/internal/document"
	"canon/internal/extractor"
	"canon/internal/intake/metrics"
	"canon/internal/patch"
	"canon/internal/schema"
	"canon/internal/session"
	"canon/internal/session/store"
	"canon/internal/workflow"
	id "canon/pkg/domain"
	dErrors "canon/pkg/domain-errors"
	"canon/pkg/platform/sentinel"
)

// saveRetries bounds CAS retries against writers in another process. The
// in-process lock already serializes local batches, so retries only fire in
// multi-instance deployments.
const saveRetries = 3

// Service is the orchestrator. All session mutation goes through here.
type Service struct {
	registry  *schema.Registry
	sessions  store.Store
	audit     *audit.Publisher
	extractor extractor.Extractor
	logger    *slog.Logger
	metrics   *metrics.Metrics
	locks     *sessionLocks
}

// New constructs the orchestrator service. extractor may be nil when the
// deployment only accepts pre-extracted patch batches.
func New(
	registry *schema.Registry,
	sessions store.Store,
	auditPublisher *audit.Publisher,
	ext extractor.Extractor,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		registry:  registry,
		sessions:  sessions,
		audit:     auditPublisher,
		extractor: ext,
		logger:    logger,
		metrics:   m,
		locks:     newSessionLocks(),
	}
}

// StartSession creates a fresh session with an empty document.
func (s *Service) StartSession(ctx context.Context) (*session.Session, NextPrompt, error) {
	now := time.Now().UTC()
	sess := &session.Session{
		ID:        id.NewSessionID(),
		Workflow:  s.registry.Workflow(),
		Status:    session.StatusActive,
		Document:  document.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, NextPrompt{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "create session")
	}

	s.metrics.IncrementSessionsStarted()
	s.logger.InfoContext(ctx, "session started",
		"session_id", sess.ID.String(),
		"workflow", sess.Workflow,
	)

	return sess, s.prompt(sess.Document), nil
}

// Get returns the session aggregate.
func (s *Service) Get(ctx context.Context, sessionID id.SessionID) (*session.Session, error) {
	return s.load(ctx, sessionID)
}

// NextField resolves what to ask next without mutating anything.
func (s *Service) NextField(ctx context.Context, sessionID id.SessionID) (NextPrompt, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return NextPrompt{}, err
	}
	return s.prompt(sess.Document), nil
}

// SubmitPatches validates and applies one batch atomically.
//
// Validation runs before the session lock is taken; only load, apply, and
// save sit inside the critical section. A rejected record never aborts the
// batch: every record gets an audit entry either way.
func (s *Service) SubmitPatches(ctx context.Context, sessionID id.SessionID, batch []patch.Record) (*SubmitResult, error) {
	start := time.Now()
	prepared := patch.Prepare(batch, s.registry)

	release := s.locks.acquire(sessionID)
	defer release()

	var (
		sess   *session.Session
		doc    *document.Document
		report patch.Report
	)

	for attempt := 0; ; attempt++ {
		var err error
		sess, err = s.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if sess.Status.Terminal() {
			return nil, dErrors.Newf(dErrors.CodeConflict, "session is %s", sess.Status)
		}

		doc = sess.Document.Clone()
		report = patch.Apply(doc, prepared)

		if !writes(report) {
			break
		}

		err = s.sessions.SaveDocument(ctx, sessionID, doc)
		if err == nil {
			doc.Version++
			break
		}
		if errors.Is(err, sentinel.ErrConflict) && attempt < saveRetries {
			s.metrics.IncrementSaveConflicts()
			continue
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "save session document")
	}

	s.recordOutcomes(ctx, sessionID, report)

	next := s.prompt(doc)
	if next.Complete && sess.Status == session.StatusActive {
		if err := s.sessions.SetStatus(ctx, sessionID, session.StatusCompleted); err != nil {
			s.logger.WarnContext(ctx, "complete transition failed",
				"session_id", sessionID.String(), "error", err)
		} else {
			sess.Status = session.StatusCompleted
			s.metrics.IncrementSessionsCompleted()
		}
	}

	s.metrics.ObserveBatchLatency(time.Since(start))
	s.logger.InfoContext(ctx, "patch batch processed",
		"session_id", sessionID.String(),
		"batch_size", len(batch),
		"applied", report.Applied,
		"rejected", report.Rejected,
		"complete", next.Complete,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	sess.Document = doc
	return &SubmitResult{Report: report, Next: next, Session: sess}, nil
}

// SubmitMessage runs a raw user utterance through the extractor chain aimed
// at the current required field, then applies whatever the extractors
// proposed. A message no extractor could read yields an empty report and the
// unchanged next prompt, so the caller simply re-asks.
func (s *Service) SubmitMessage(ctx context.Context, sessionID id.SessionID, message string) (*SubmitResult, error) {
	if s.extractor == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "message extraction is not enabled")
	}

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, dErrors.Newf(dErrors.CodeConflict, "session is %s", sess.Status)
	}

	res := workflow.NextField(sess.Document, s.registry)
	if res.Complete {
		return nil, dErrors.New(dErrors.CodeConflict, "interview is already complete")
	}

	batch, err := s.extractor.Extract(ctx, res.Next, sess.Document, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "extraction failed",
			"session_id", sessionID.String(),
			"target", string(res.Next.Path),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "extraction failed")
	}
	if len(batch) > 0 {
		s.metrics.IncrementExtractions(batch[0].SourceAgent)
	}

	if len(batch) == 0 {
		return &SubmitResult{Next: s.prompt(sess.Document), Session: sess}, nil
	}
	return s.SubmitPatches(ctx, sessionID, batch)
}

// Abandon is a terminal caller-initiated stop. Abandoning a completed or
// already abandoned session conflicts.
func (s *Service) Abandon(ctx context.Context, sessionID id.SessionID) error {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Status.Terminal() {
		return dErrors.Newf(dErrors.CodeConflict, "session is %s", sess.Status)
	}

	if err := s.sessions.SetStatus(ctx, sessionID, session.StatusAbandoned); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "abandon session")
	}
	s.metrics.IncrementSessionsAbandoned()
	s.logger.InfoContext(ctx, "session abandoned", "session_id", sessionID.String())
	return nil
}

// AuditTrail lists the session's audit entries in order.
func (s *Service) AuditTrail(ctx context.Context, sessionID id.SessionID) ([]audit.Entry, error) {
	if _, err := s.load(ctx, sessionID); err != nil {
		return nil, err
	}
	entries, err := s.audit.List(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list audit trail")
	}
	return entries, nil
}

func (s *Service) load(ctx context.Context, sessionID id.SessionID) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load session")
	}
	return sess, nil
}

func (s *Service) prompt(doc *document.Document) NextPrompt {
	res := workflow.NextField(doc, s.registry)
	prompt := NextPrompt{
		Complete: res.Complete,
		Progress: workflow.Summarize(doc, s.registry),
	}
	if res.Next != nil {
		prompt.Path = string(res.Next.Path)
		prompt.Question = res.Next.Question
	}
	return prompt
}

// recordOutcomes writes one audit entry per batch record. Audit append
// failures are logged, not surfaced: the applied document is already saved
// and re-running the batch would double-apply appends.
func (s *Service) recordOutcomes(ctx context.Context, sessionID id.SessionID, report patch.Report) {
	entries := make([]audit.Entry, 0, len(report.Results))
	for _, res := range report.Results {
		s.metrics.IncrementPatchOutcome(string(res.Outcome), res.Record.Operation)
		entries = append(entries, audit.Entry{
			SessionID:     sessionID,
			Operation:     res.Record.Operation,
			Path:          patch.NormalizePath(res.Record.Path),
			Value:         res.Record.Value,
			Justification: res.Record.Justification,
			SourceAgent:   res.Record.SourceAgent,
			Outcome:       string(res.Outcome),
			Reason:        res.Reason,
		})
	}
	if err := s.audit.EmitAll(ctx, entries); err != nil {
		s.logger.ErrorContext(ctx, "audit trail write failed",
			"session_id", sessionID.String(), "error", err)
	}
}

// writes reports whether any applied record mutated the document.
func writes(report patch.Report) bool {
	for _, res := range report.Results {
		if res.Outcome != patch.OutcomeApplied {
			continue
		}
		op, err := id.ParseOperation(res.Record.Operation)
		if err == nil && op.Writes() {
			return true
		}
	}
	return false
}
