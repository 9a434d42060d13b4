// Package audit records every patch decision for a session, applied or
// rejected, as an append-only trail. The trail is the compliance answer to
// "who wrote this value and why", so entries carry the agent's justification
// verbatim. Justification text is data, never interpreted.
package audit

import (
	"time"

	"github.com/google/uuid"

	id "canon/pkg/domain"
)

// Entry is one audited patch decision. Keep it transport-agnostic so stores
// and sinks can fan out.
type Entry struct {
	ID            uuid.UUID    `json:"id"`
	SessionID     id.SessionID `json:"session_id"`
	Timestamp     time.Time    `json:"timestamp"`
	Operation     string       `json:"operation"`
	Path          string       `json:"path"`
	Value         any          `json:"value,omitempty"`
	Justification string       `json:"justification,omitempty"`
	SourceAgent   string       `json:"source_agent,omitempty"`
	Outcome       string       `json:"outcome"`
	Reason        string       `json:"reason,omitempty"`
}
