package handler

import (
	"time"

	"canon/internal/audit"
	"canon/internal/intake"
	"canon/internal/patch"
	"canon/internal/session"
)

// SessionResponse is the HTTP shape of a session aggregate.
type SessionResponse struct {
	ID        string         `json:"id"`
	Workflow  string         `json:"workflow"`
	Status    string         `json:"status"`
	Document  map[string]any `json:"document"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func FromSession(sess *session.Session) *SessionResponse {
	return &SessionResponse{
		ID:        sess.ID.String(),
		Workflow:  sess.Workflow,
		Status:    string(sess.Status),
		Document:  sess.Document.Root,
		Version:   sess.Document.Version,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
}

// NextFieldResponse is the HTTP shape of a next-field resolution.
type NextFieldResponse struct {
	Complete bool             `json:"complete"`
	Path     string           `json:"path,omitempty"`
	Question string           `json:"question,omitempty"`
	Progress ProgressResponse `json:"progress"`
}

// ProgressResponse summarizes field states.
type ProgressResponse struct {
	Satisfied int `json:"satisfied"`
	Pending   int `json:"pending"`
	Blocked   int `json:"blocked"`
}

func FromPrompt(next intake.NextPrompt) NextFieldResponse {
	return NextFieldResponse{
		Complete: next.Complete,
		Path:     next.Path,
		Question: next.Question,
		Progress: ProgressResponse{
			Satisfied: next.Progress.Satisfied,
			Pending:   next.Progress.Pending,
			Blocked:   next.Progress.Blocked,
		},
	}
}

// StartSessionResponse is the HTTP response for POST /sessions.
type StartSessionResponse struct {
	Session *SessionResponse  `json:"session"`
	Next    NextFieldResponse `json:"next"`
}

// PatchResultResponse is the per-record outcome in a submit response.
type PatchResultResponse struct {
	Operation string `json:"operation"`
	Path      string `json:"path"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
}

// SubmitResponse is the HTTP response for patch and message submissions.
type SubmitResponse struct {
	Applied  int                   `json:"applied"`
	Rejected int                   `json:"rejected"`
	Results  []PatchResultResponse `json:"results"`
	Next     NextFieldResponse     `json:"next"`
	Status   string                `json:"status"`
}

func FromSubmitResult(result *intake.SubmitResult) *SubmitResponse {
	resp := &SubmitResponse{
		Applied:  result.Report.Applied,
		Rejected: result.Report.Rejected,
		Results:  make([]PatchResultResponse, 0, len(result.Report.Results)),
		Next:     FromPrompt(result.Next),
		Status:   string(result.Session.Status),
	}
	for _, res := range result.Report.Results {
		resp.Results = append(resp.Results, PatchResultResponse{
			Operation: res.Record.Operation,
			Path:      patch.NormalizePath(res.Record.Path),
			Outcome:   string(res.Outcome),
			Reason:    res.Reason,
		})
	}
	return resp
}

// AuditTrailResponse is the HTTP response for GET /sessions/{id}/audit.
type AuditTrailResponse struct {
	Entries []audit.Entry `json:"entries"`
}
