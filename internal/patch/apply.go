package patch

import (
	"canon/internal/document"
	id "canon/pkg/domain"
	dErrors "canon/pkg/domain-errors"
)

// Reasons recorded for outcomes that carry no validation error.
const (
	reasonNoneReported  = "no value reported"
	reasonApplied       = "applied"
	reasonDuplicateSkip = "set semantics: structurally equal value already present"
)

// Apply mutates doc with the prepared batch, strictly in batch order: the
// agent-emitted array order is the declared tie-break for intra-batch
// conflicts, so a later replace on the same path wins.
//
// Every record yields exactly one Result regardless of outcome. Rejected
// records leave the document untouched; the workflow will simply re-ask for
// the field, so rejection is self-healing and never fatal to the batch.
//
// Apply is pure with respect to everything but doc; callers own doc's
// lifecycle (typically a clone that is persisted only if the store write
// succeeds, keeping the batch atomic).
func Apply(doc *document.Document, prepared []Prepared) Report {
	report := Report{Results: make([]Result, 0, len(prepared))}

	for _, p := range prepared {
		res := Result{Record: p.Record}

		switch {
		case p.Err != nil:
			res.Outcome = OutcomeRejected
			res.Reason = rejectionReason(p.Err)

		case p.Validated.Op == id.OpNone:
			// No document change, but absence-of-signal must stay
			// distinguishable from never-asked in the audit trail.
			res.Outcome = OutcomeApplied
			res.Reason = reasonNoneReported

		case p.Validated.Op == id.OpAppend:
			added, err := doc.Append(p.Validated.Path, p.Validated.Value, p.Validated.Spec.SetSemantics)
			if err != nil {
				res.Outcome = OutcomeRejected
				res.Reason = rejectionReason(err)
				break
			}
			res.Outcome = OutcomeApplied
			if added {
				res.Reason = reasonApplied
			} else {
				res.Reason = reasonDuplicateSkip
			}

		default: // add, replace: last write in the batch wins
			if err := doc.Set(p.Validated.Path, p.Validated.Value); err != nil {
				res.Outcome = OutcomeRejected
				res.Reason = rejectionReason(err)
				break
			}
			res.Outcome = OutcomeApplied
			res.Reason = reasonApplied
		}

		if res.Outcome == OutcomeApplied {
			report.Applied++
		} else {
			report.Rejected++
		}
		report.Results = append(report.Results, res)
	}

	return report
}

func rejectionReason(err error) string {
	if msg := dErrors.MessageOf(err); msg != "" {
		return string(dErrors.CodeOf(err)) + ": " + msg
	}
	return err.Error()
}
