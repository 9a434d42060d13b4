package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"canon/internal/audit"
	"canon/internal/intake"
	"canon/internal/patch"
	"canon/internal/session"
	id "canon/pkg/domain"
	"canon/pkg/platform/httputil"
	"canon/pkg/requestcontext"
)

// Service defines the orchestrator operations the HTTP layer needs.
type Service interface {
	StartSession(ctx context.Context) (*session.Session, intake.NextPrompt, error)
	Get(ctx context.Context, sessionID id.SessionID) (*session.Session, error)
	NextField(ctx context.Context, sessionID id.SessionID) (intake.NextPrompt, error)
	SubmitPatches(ctx context.Context, sessionID id.SessionID, batch []patch.Record) (*intake.SubmitResult, error)
	SubmitMessage(ctx context.Context, sessionID id.SessionID, message string) (*intake.SubmitResult, error)
	Abandon(ctx context.Context, sessionID id.SessionID) error
	AuditTrail(ctx context.Context, sessionID id.SessionID) ([]audit.Entry, error)
}

// Handler wires intake endpoints to the orchestrator service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an intake handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts intake endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.HandleStartSession)
	r.Get("/sessions/{sessionID}", h.HandleGetSession)
	r.Get("/sessions/{sessionID}/next", h.HandleNextField)
	r.Post("/sessions/{sessionID}/patches", h.HandleSubmitPatches)
	r.Post("/sessions/{sessionID}/messages", h.HandleSubmitMessage)
	r.Get("/sessions/{sessionID}/audit", h.HandleAuditTrail)
	r.Delete("/sessions/{sessionID}", h.HandleAbandon)
}

// HandleStartSession handles POST /sessions.
func (h *Handler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, next, err := h.service.StartSession(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "start session failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, StartSessionResponse{
		Session: FromSession(sess),
		Next:    FromPrompt(next),
	})
}

// HandleGetSession handles GET /sessions/{sessionID}.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.service.Get(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}

// HandleNextField handles GET /sessions/{sessionID}/next.
func (h *Handler) HandleNextField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	next, err := h.service.NextField(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPrompt(next))
}

// HandleSubmitPatches handles POST /sessions/{sessionID}/patches.
func (h *Handler) HandleSubmitPatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitPatchesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	// Records that do not name their emitter inherit the caller's declared
	// agent from the X-Source-Agent header.
	if agent := requestcontext.SourceAgent(ctx); agent != "" {
		for i := range req.Patches {
			if req.Patches[i].SourceAgent == "" {
				req.Patches[i].SourceAgent = agent
			}
		}
	}

	result, err := h.service.SubmitPatches(ctx, sessionID, req.Patches)
	if err != nil {
		h.logger.ErrorContext(ctx, "patch batch failed",
			"request_id", requestID,
			"session_id", sessionID.String(),
			"batch_size", len(req.Patches),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromSubmitResult(result))
}

// HandleSubmitMessage handles POST /sessions/{sessionID}/messages.
func (h *Handler) HandleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitMessageRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.SubmitMessage(ctx, sessionID, req.Message)
	if err != nil {
		h.logger.ErrorContext(ctx, "message submission failed",
			"request_id", requestID,
			"session_id", sessionID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromSubmitResult(result))
}

// HandleAuditTrail handles GET /sessions/{sessionID}/audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.AuditTrail(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, AuditTrailResponse{Entries: entries})
}

// HandleAbandon handles DELETE /sessions/{sessionID}.
func (h *Handler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.Abandon(ctx, sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (id.SessionID, bool) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.SessionID{}, false
	}
	return sessionID, true
}
