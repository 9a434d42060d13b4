package domain

import (
	"strings"

	dErrors "canon/pkg/domain-errors"
)

// Operation is the mutation kind carried by a patch.
// Invariant: the value must be one of the supported operations.
//
// Usage: construct via ParseOperation at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Operation string

// Supported patch operations. OpAdd on an already populated scalar behaves
// exactly like OpReplace (last value wins). OpNone carries no value and never
// changes the document; it exists so an agent can explicitly report
// "no fact found" and keep the per-turn audit trail complete.
const (
	OpAdd     Operation = "add"
	OpReplace Operation = "replace"
	OpAppend  Operation = "append"
	OpNone    Operation = "none"
)

// validOperations is the single source of truth for supported operations.
var validOperations = map[Operation]bool{
	OpAdd:     true,
	OpReplace: true,
	OpAppend:  true,
	OpNone:    true,
}

// ParseOperation constructs an Operation from external input.
//
// Errors: returns CodeBadRequest when the value is empty or unsupported.
func ParseOperation(s string) (Operation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "operation cannot be empty")
	}
	op := Operation(s)
	if !op.IsValid() {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unsupported operation %q", s)
	}
	return op, nil
}

// IsValid checks if the operation is one of the supported enum values.
func (o Operation) IsValid() bool {
	return validOperations[o]
}

// Writes reports whether the operation carries a value that mutates the
// document.
func (o Operation) Writes() bool {
	return o == OpAdd || o == OpReplace || o == OpAppend
}

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}
