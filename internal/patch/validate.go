package patch

import (
	"canon/internal/schema"
	id "canon/pkg/domain"
	dErrors "canon/pkg/domain-errors"
)

// Validate checks one raw record against the schema registry.
// This is a pure function with no side effects; all outcomes are reported in
// the return value, so it may run concurrently across sessions or
// speculatively before the session lock is held.
//
// Rules:
//   - the operation must parse (add|replace|append|none)
//   - none always validates, even on unknown paths, so an agent can report
//     "no fact found" for a question the schema later dropped
//   - the path must resolve to a declared field (CodeUnknownField)
//   - append is only legal on list fields; add/replace only on scalars
//     (CodeOperationMismatch)
//   - the value must coerce to the field's declared type, with absence
//     tokens on numeric fields coercing to zero (CodeTypeMismatch)
func Validate(rec Record, reg *schema.Registry) (Validated, error) {
	op, err := id.ParseOperation(rec.Operation)
	if err != nil {
		return Validated{}, err
	}

	v := Validated{
		Op:            op,
		Justification: rec.Justification,
		SourceAgent:   rec.SourceAgent,
	}

	if op == id.OpNone {
		// Carry the path through unparsed-but-normalized for the audit trail.
		v.Path = id.FieldPath(NormalizePath(rec.Path))
		return v, nil
	}

	path, err := id.ParseFieldPath(NormalizePath(rec.Path))
	if err != nil {
		return Validated{}, err
	}
	v.Path = path

	spec, ok := reg.Lookup(path)
	if !ok {
		return Validated{}, dErrors.Newf(dErrors.CodeUnknownField, "path %q is not declared in the schema", path)
	}
	v.Spec = spec

	switch op {
	case id.OpAppend:
		if spec.Type.Scalar() {
			return Validated{}, dErrors.Newf(dErrors.CodeOperationMismatch, "append is not legal on scalar field %q", path)
		}
	case id.OpAdd, id.OpReplace:
		// add on a populated scalar behaves as replace, so both are rejected
		// only when the field is list-typed. Writing one element of a list
		// through an indexed path is still a scalar write.
		if !spec.Type.Scalar() && !indexed(path) {
			return Validated{}, dErrors.Newf(dErrors.CodeOperationMismatch, "%s is not legal on list field %q", op, path)
		}
	}

	coerced, err := spec.Coerce(rec.Value)
	if err != nil {
		return Validated{}, err
	}
	v.Value = coerced

	return v, nil
}

// Prepared carries the validation outcome for one record of a batch, in
// batch order. Rejections keep their error so the applier can audit them
// without re-validating inside the critical section.
type Prepared struct {
	Record    Record
	Validated Validated
	Err       error
}

// Prepare validates a whole batch in order. Pure; safe to run before the
// session lock is acquired.
func Prepare(batch []Record, reg *schema.Registry) []Prepared {
	out := make([]Prepared, 0, len(batch))
	for _, rec := range batch {
		v, err := Validate(rec, reg)
		out = append(out, Prepared{Record: rec, Validated: v, Err: err})
	}
	return out
}

func indexed(path id.FieldPath) bool {
	return path != path.Root()
}
