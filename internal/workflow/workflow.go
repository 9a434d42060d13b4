// Package workflow resolves the next required field for an interview
// session. Resolution is a pure function of the canonical document and the
// schema registry; it holds no state of its own, so two calls over the same
// document always yield the same answer.
package workflow

import (
	"canon/internal/document"
	"canon/internal/schema"
)

// Result is the outcome of one resolution pass.
type Result struct {
	// Next is the field to ask for, nil when the workflow is complete.
	Next *schema.FieldSpec

	// Complete means every required field is either populated or irrelevant
	// under the current document.
	Complete bool
}

// Progress summarizes how far a session has advanced.
type Progress struct {
	Satisfied int `json:"satisfied"`
	Pending   int `json:"pending"`
	Blocked   int `json:"blocked"`
}

// NextField picks the highest-priority eligible unpopulated field, breaking
// priority ties by declaration order. A field whose relevance condition does
// not hold counts as satisfied outright; a field with unpopulated
// prerequisites is skipped this pass but keeps the workflow incomplete.
func NextField(doc *document.Document, reg *schema.Registry) Result {
	var best *schema.FieldSpec
	complete := true

	for _, f := range reg.Fields() {
		if Satisfied(doc, f) {
			continue
		}
		complete = false
		if !eligible(doc, f) {
			continue
		}
		if best == nil || f.Priority > best.Priority {
			best = f
		}
	}

	return Result{Next: best, Complete: complete}
}

// Satisfied reports whether a field no longer needs asking: populated
// (including an explicit zero from an absence token), or irrelevant under
// its condition.
func Satisfied(doc *document.Document, f *schema.FieldSpec) bool {
	if f.RelevantWhen != nil && !conditionHolds(doc, f.RelevantWhen) {
		return true
	}
	return doc.IsPopulated(f.Path)
}

// Summarize counts fields by state for progress reporting.
func Summarize(doc *document.Document, reg *schema.Registry) Progress {
	var p Progress
	for _, f := range reg.Fields() {
		switch {
		case Satisfied(doc, f):
			p.Satisfied++
		case eligible(doc, f):
			p.Pending++
		default:
			p.Blocked++
		}
	}
	return p
}

func eligible(doc *document.Document, f *schema.FieldSpec) bool {
	for _, req := range f.Requires {
		if !doc.IsPopulated(req) {
			return false
		}
	}
	return true
}

func conditionHolds(doc *document.Document, c *schema.Condition) bool {
	v, ok := doc.Get(c.Path)
	if !ok {
		return false
	}
	return looselyEqual(v, c.Equals)
}

// looselyEqual compares a document value against a schema-declared one.
// Schema files decode numbers as int and documents hold float64, so numeric
// comparison goes through float64; everything else compares directly.
func looselyEqual(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
