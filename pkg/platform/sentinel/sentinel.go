package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: session or document does not exist in the store
// - ErrConflict: optimistic write lost (document version moved underneath us)
// - ErrInvalidState: entity in wrong state for the requested operation
// - ErrUnavailable: store temporarily unavailable, caller may retry the batch
//
// For validation errors (bad patches, malformed input), use
// pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
