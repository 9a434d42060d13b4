// Package session holds the interview session aggregate: one canonical
// document plus lifecycle status, keyed by session ID.
package session

import (
	"time"

	"canon/internal/document"
	id "canon/pkg/domain"
)

// Status is the session lifecycle state.
type Status string

const (
	// StatusActive accepts patches and serves next-field resolution.
	StatusActive Status = "active"
	// StatusCompleted is reached when the workflow reports no remaining
	// required fields. Completed sessions still serve reads.
	StatusCompleted Status = "completed"
	// StatusAbandoned is a terminal caller-initiated stop.
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether the status accepts no further writes.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Session is the aggregate persisted per interview.
type Session struct {
	ID        id.SessionID
	Workflow  string
	Status    Status
	Document  *document.Document
	CreatedAt time.Time
	UpdatedAt time.Time
}
