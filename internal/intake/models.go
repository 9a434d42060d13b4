// Package intake orchestrates interview sessions: it validates and applies
// patch batches, keeps the audit trail, and resolves the next required
// field after every change.
package intake

import (
	"canon/internal/patch"
	"canon/internal/session"
	"canon/internal/workflow"
)

// NextPrompt describes what the interview should ask next.
type NextPrompt struct {
	// Path is empty when the workflow is complete.
	Path     string
	Question string
	Complete bool
	Progress workflow.Progress
}

// SubmitResult is the outcome of one patch batch or user message.
type SubmitResult struct {
	Report  patch.Report
	Next    NextPrompt
	Session *session.Session
}
