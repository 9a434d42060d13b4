package domain

import (
	"strconv"
	"strings"

	dErrors "canon/pkg/domain-errors"
)

// FieldPath addresses one field of the canonical document, e.g.
// "parties.buyer.name" or "compliance.financial_inquiry.income_sources[0]".
// Paths are immutable once declared in the schema.
//
// Grammar: dot-separated segments; a segment is an identifier optionally
// followed by a bracketed non-negative index.
type FieldPath string

// Segment is one step of a parsed field path. Index is -1 for object keys.
type Segment struct {
	Key   string
	Index int
}

// IsIndexed reports whether the segment addresses a list element.
func (s Segment) IsIndexed() bool { return s.Index >= 0 }

// ParseFieldPath constructs a FieldPath from external input.
//
// Errors: returns CodeBadRequest for empty paths or paths that do not match
// the grammar. Whether the path exists in the schema is the validator's
// concern, not this function's.
func ParseFieldPath(s string) (FieldPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "field path cannot be empty")
	}
	p := FieldPath(s)
	if _, err := p.Segments(); err != nil {
		return "", err
	}
	return p, nil
}

// Segments parses the path into its steps.
func (p FieldPath) Segments() ([]Segment, error) {
	raw := string(p)
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "field path cannot be empty")
	}
	parts := strings.Split(raw, ".")
	segs := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "field path %q has an empty segment", raw)
		}
		key, index := part, -1
		if open := strings.IndexByte(part, '['); open >= 0 {
			if !strings.HasSuffix(part, "]") || open == 0 {
				return nil, dErrors.Newf(dErrors.CodeBadRequest, "field path %q has a malformed index", raw)
			}
			idx, err := strconv.Atoi(part[open+1 : len(part)-1])
			if err != nil || idx < 0 {
				return nil, dErrors.Newf(dErrors.CodeBadRequest, "field path %q has a malformed index", raw)
			}
			key, index = part[:open], idx
		}
		if strings.ContainsAny(key, "[]") {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "field path %q has a malformed segment", raw)
		}
		segs = append(segs, Segment{Key: key, Index: index})
	}
	return segs, nil
}

// Root returns the path with all bracketed indexes stripped, which is the
// form field specs are declared under in the schema.
func (p FieldPath) Root() FieldPath {
	raw := string(p)
	if !strings.ContainsRune(raw, '[') {
		return p
	}
	var b strings.Builder
	b.Grow(len(raw))
	skip := false
	for _, r := range raw {
		switch r {
		case '[':
			skip = true
		case ']':
			skip = false
		default:
			if !skip {
				b.WriteRune(r)
			}
		}
	}
	return FieldPath(b.String())
}

// String returns the raw dot-addressed form.
func (p FieldPath) String() string { return string(p) }
