// Package patch implements the patch contract between extraction agents and
// the orchestrator: the wire record, structural validation against the
// schema, and ordered batch application onto a canonical document.
//
// Agents are semantically untrusted collaborators. Nothing in a record is
// executed or interpolated; justification text is only ever logged.
package patch

import (
	"strings"

	"canon/internal/schema"
	id "canon/pkg/domain"
)

// Record is the wire form of one proposed mutation, exactly as emitted by an
// extraction agent.
type Record struct {
	Operation     string `json:"operation"`
	Path          string `json:"path"`
	Value         any    `json:"value,omitempty"`
	Justification string `json:"justification"`
	SourceAgent   string `json:"source_agent"`
}

// Validated is a record that passed structural validation: parsed operation,
// parsed path, resolved field spec, and the value coerced to the field's
// declared type. Consumed exactly once by the applier.
type Validated struct {
	Op            id.Operation
	Path          id.FieldPath
	Spec          *schema.FieldSpec
	Value         any
	Justification string
	SourceAgent   string
}

// Outcome is the per-patch decision recorded in the audit trail.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
)

// Result pairs a record with its decision and reason.
type Result struct {
	Record  Record
	Outcome Outcome
	Reason  string
}

// Report is the cumulative result of applying one ordered batch.
type Report struct {
	Results  []Result
	Applied  int
	Rejected int
}

// NormalizePath maps tolerated path spellings onto the canonical
// dot-addressed form. Some agents emit JSON-pointer style paths
// ("/parties/buyer/name"); accept them rather than rejecting the fact.
func NormalizePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "/") {
		raw = strings.ReplaceAll(strings.TrimPrefix(raw, "/"), "/", ".")
	}
	return raw
}
