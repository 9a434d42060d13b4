// Package schema defines the canonical document's field registry: which
// paths exist, what type each holds, and the dependency rules that drive the
// interview workflow.
package schema

import (
	id "canon/pkg/domain"
)

// FieldType is the declared type of a field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeDate   FieldType = "date"
	TypeEnum   FieldType = "enum"
	TypeList   FieldType = "list"
)

// validFieldTypes is the single source of truth for declared types.
var validFieldTypes = map[FieldType]bool{
	TypeString: true,
	TypeNumber: true,
	TypeDate:   true,
	TypeEnum:   true,
	TypeList:   true,
}

// IsValid checks if the field type is supported.
func (t FieldType) IsValid() bool {
	return validFieldTypes[t]
}

// Scalar reports whether the type holds a single value. add/replace are only
// legal on scalar fields; append only on lists.
func (t FieldType) Scalar() bool {
	return t != TypeList
}

// Condition makes a field relevant only when another field holds a specific
// value. An unsatisfied condition short-circuits the field as satisfied for
// workflow purposes, not merely deprioritized.
type Condition struct {
	Path   id.FieldPath
	Equals any
}

// FieldSpec is the registry entry for one field path.
type FieldSpec struct {
	Path     id.FieldPath
	Type     FieldType
	Question string

	// Priority orders eligible unpopulated fields; higher asks first.
	// Ties break by declaration order.
	Priority int

	// Requires lists prerequisite paths that must be populated before this
	// field becomes eligible. A value coerced to zero via an absence token
	// counts as populated.
	Requires []id.FieldPath

	// RelevantWhen, when set, gates the field on a parent value.
	RelevantWhen *Condition

	// Element is the element type for list fields.
	Element FieldType

	// SetSemantics makes append skip structurally equal existing elements
	// instead of duplicating them.
	SetSemantics bool

	// AbsenceTokens extends the built-in absence token set for this field.
	AbsenceTokens []string

	// Values is the allowlist for enum fields.
	Values []string

	// Min and Max bound numeric values after coercion.
	Min *float64
	Max *float64

	// order is the zero-based declaration position, set by the registry.
	order int
}

// DeclaredOrder returns the zero-based declaration position.
func (f *FieldSpec) DeclaredOrder() int { return f.order }

// ValueType returns the type a written value must coerce to: the element
// type for lists, the declared type otherwise.
func (f *FieldSpec) ValueType() FieldType {
	if f.Type == TypeList {
		if f.Element == "" {
			return TypeString
		}
		return f.Element
	}
	return f.Type
}
