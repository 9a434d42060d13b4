// Package domain holds shared value types used across intake modules.
// Import it aliased as id.
//
// Types here are constructed through Parse functions at trust boundaries so
// invalid external input never circulates as a typed value.
package domain

import (
	"github.com/google/uuid"

	dErrors "canon/pkg/domain-errors"
)

// SessionID identifies one interview session. Each session owns exactly one
// canonical document and one audit trail.
type SessionID uuid.UUID

// NewSessionID returns a fresh random session ID.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID constructs a SessionID from external input.
//
// Errors: returns CodeBadRequest when the value is not a valid UUID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, dErrors.New(dErrors.CodeBadRequest, "invalid session id")
	}
	return SessionID(u), nil
}

// IsNil reports whether the ID is the zero value.
func (s SessionID) IsNil() bool {
	return uuid.UUID(s) == uuid.Nil
}

// String returns the canonical UUID string form.
func (s SessionID) String() string {
	return uuid.UUID(s).String()
}

// MarshalText renders the canonical string form for JSON and text encoders.
func (s SessionID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses external input through the same validation as
// ParseSessionID.
func (s *SessionID) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionID(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
