package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"canon/internal/document"
	"canon/internal/patch"
	"canon/internal/schema"
)

// DeterministicAgent is the name recorded on patches this extractor emits.
const DeterministicAgent = "deterministic"

var (
	// rangePattern catches "70-80", "2 to 3", "5/6". A range is never a
	// single capturable value.
	rangePattern = regexp.MustCompile(`\d+\s*(?:-|/|to)+\s*\d+`)

	// vagueQualifiers make a numeric answer ambiguous; the model extractor
	// is better placed to probe those.
	vagueQualifiers = []string{"about", "around", "rough", "approx", "maybe", "depends"}

	amountPattern = regexp.MustCompile(`^\$?\s*(\d+(?:\.\d+)?)\s*k?$`)
	datePattern   = regexp.MustCompile(`^(0?[1-9]|[12][0-9]|3[01])/(0?[1-9]|1[0-2])/\d{4}$`)
)

// Deterministic captures unambiguous single-value answers without a model
// call: plain numbers and currency shorthand, enum values, dates, and bare
// strings. Anything it cannot read with certainty it declines, returning an
// empty batch.
type Deterministic struct{}

func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

func (d *Deterministic) Extract(_ context.Context, target *schema.FieldSpec, _ *document.Document, userText string) ([]patch.Record, error) {
	raw := strings.TrimSpace(userText)
	if raw == "" || target == nil {
		return nil, nil
	}

	op := "replace"
	if target.Type == schema.TypeList {
		op = "append"
	}

	var value any
	switch target.ValueType() {
	case schema.TypeNumber:
		v, ok := d.captureNumber(target, raw)
		if !ok {
			return nil, nil
		}
		value = v
	case schema.TypeEnum:
		normalized, ok := schema.NormalizeEnum(raw, target.Values)
		if !ok {
			return nil, nil
		}
		value = normalized
	case schema.TypeDate:
		cleaned := strings.ToLower(raw)
		if !datePattern.MatchString(cleaned) {
			return nil, nil
		}
		value = cleaned
	case schema.TypeString:
		value = raw
	default:
		return nil, nil
	}

	return []patch.Record{{
		Operation:     op,
		Path:          string(target.Path),
		Value:         value,
		Justification: "verbatim single-value answer",
		SourceAgent:   DeterministicAgent,
	}}, nil
}

// captureNumber accepts "2000", "$2,000", "2k", "2.5k" and absence tokens.
// Ranges and hedged amounts are declined, never guessed at.
func (d *Deterministic) captureNumber(target *schema.FieldSpec, raw string) (any, bool) {
	if target.IsAbsenceToken(raw) {
		// Pass the token through; coercion turns it into an explicit zero.
		return raw, true
	}

	text := strings.ToLower(raw)
	text = strings.ReplaceAll(text, ",", "")

	if rangePattern.MatchString(text) {
		return nil, false
	}
	for _, q := range vagueQualifiers {
		if strings.Contains(text, q) {
			return nil, false
		}
	}

	m := amountPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, false
	}
	if strings.Contains(text, "k") {
		value *= 1000
	}
	return value, true
}
