package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	dErrors "canon/pkg/domain-errors"
)

// builtinAbsenceTokens is the fixed, case-insensitive set of phrases that
// coerce to numeric zero instead of failing type coercion. Schemas extend it
// per field via FieldSpec.AbsenceTokens.
var builtinAbsenceTokens = []string{
	"no",
	"none",
	"nil",
	"zero",
	"no dependents",
}

// dateLayout is the accepted wire format for date fields (DD/MM/YYYY).
const dateLayout = "02/01/2006"

var datePattern = regexp.MustCompile(`^(0?[1-9]|[12][0-9]|3[01])/(0?[1-9]|1[0-2])/\d{4}$`)

// IsAbsenceToken reports whether raw matches the absence token set for this
// field (built-in plus per-field synonyms).
func (f *FieldSpec) IsAbsenceToken(raw string) bool {
	norm := strings.ToLower(strings.TrimSpace(raw))
	if norm == "" {
		return false
	}
	for _, tok := range builtinAbsenceTokens {
		if norm == tok {
			return true
		}
	}
	for _, tok := range f.AbsenceTokens {
		if norm == strings.ToLower(strings.TrimSpace(tok)) {
			return true
		}
	}
	return false
}

// Coerce converts a raw patch value into the field's canonical
// representation. For list fields it coerces a single element.
//
// Errors: returns CodeTypeMismatch when the value cannot be represented as
// the declared type or falls outside declared bounds.
func (f *FieldSpec) Coerce(value any) (any, error) {
	switch f.ValueType() {
	case TypeString:
		return f.coerceString(value)
	case TypeNumber:
		return f.coerceNumber(value)
	case TypeDate:
		return f.coerceDate(value)
	case TypeEnum:
		return f.coerceEnum(value)
	default:
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q has no coercible type", f.Path)
	}
}

func (f *FieldSpec) coerceString(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q expects a string, got %T", f.Path, value)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q rejects blank strings", f.Path)
	}
	return s, nil
}

func (f *FieldSpec) coerceNumber(value any) (any, error) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		// Absence tokens on numeric fields coerce to an explicit zero so
		// "no dependents" is distinguishable from never-asked.
		if f.IsAbsenceToken(v) {
			return float64(0), nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q expects a number, got %q", f.Path, v)
		}
		n = parsed
	default:
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q expects a number, got %T", f.Path, value)
	}

	if f.Min != nil && n < *f.Min {
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q value %v is below the minimum %v", f.Path, n, *f.Min)
	}
	if f.Max != nil && n > *f.Max {
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q value %v is above the maximum %v", f.Path, n, *f.Max)
	}
	return n, nil
}

func (f *FieldSpec) coerceDate(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q expects a DD/MM/YYYY date, got %T", f.Path, value)
	}
	s = strings.TrimSpace(s)
	if !datePattern.MatchString(s) {
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q expects a DD/MM/YYYY date, got %q", f.Path, s)
	}
	if _, err := time.Parse(dateLayout, padDate(s)); err != nil {
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q rejects impossible date %q", f.Path, s)
	}
	return s, nil
}

func (f *FieldSpec) coerceEnum(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q expects one of %v, got %T", f.Path, f.Values, value)
	}
	if normalized, ok := NormalizeEnum(s, f.Values); ok {
		return normalized, nil
	}
	return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "field %q expects one of %v, got %q", f.Path, f.Values, s)
}

// NormalizeEnum maps free-text input onto a declared enum value. Comparison
// lowercases, strips punctuation, and treats underscores as spaces, so
// "Self Employed!" matches "self_employed".
func NormalizeEnum(raw string, allowed []string) (string, bool) {
	norm := normalizeEnumText(raw)
	if norm == "" {
		return "", false
	}
	for _, v := range allowed {
		if norm == normalizeEnumText(v) {
			return v, true
		}
	}
	return "", false
}

var enumStrip = regexp.MustCompile(`[^a-z0-9 ]`)

func normalizeEnumText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	s = enumStrip.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// padDate turns single-digit day/month components into the two-digit form
// time.Parse expects for the fixed layout.
func padDate(s string) string {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	for i := 0; i < 2; i++ {
		if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	return fmt.Sprintf("%s/%s/%s", parts[0], parts[1], parts[2])
}
