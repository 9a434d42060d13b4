// Package document implements the canonical document: the single
// source-of-truth record of facts collected in one interview session.
//
// The document is an owned, versioned value. The patch applier mutates a
// clone and the session store advances the version on save, so concurrent
// sessions never alias each other's state and every batch is replayable.
package document

import (
	"reflect"
	"strings"

	id "canon/pkg/domain"
	dErrors "canon/pkg/domain-errors"
)

// Document maps field paths to collected values through a nested structure
// of maps and lists.
type Document struct {
	Root    map[string]any
	Version int64
}

// New returns an empty document at version zero.
func New() *Document {
	return &Document{Root: map[string]any{}}
}

// Clone deep-copies the document so a batch can be applied tentatively and
// discarded on store failure.
func (d *Document) Clone() *Document {
	return &Document{
		Root:    cloneMap(d.Root),
		Version: d.Version,
	}
}

// Get resolves a path to its current value.
func (d *Document) Get(path id.FieldPath) (any, bool) {
	segs, err := path.Segments()
	if err != nil {
		return nil, false
	}
	var cur any = d.Root
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg.Key]
		if !ok {
			return nil, false
		}
		if seg.IsIndexed() {
			list, ok := cur.([]any)
			if !ok || seg.Index >= len(list) {
				return nil, false
			}
			cur = list[seg.Index]
		}
	}
	return cur, true
}

// IsPopulated reports whether the path holds a usable value: present,
// non-nil, not a blank string, and for lists at least one element. A zero
// written via an absence token counts as populated.
func (d *Document) IsPopulated(path id.FieldPath) bool {
	v, ok := d.Get(path)
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val) != ""
	case []any:
		return len(val) > 0
	default:
		return true
	}
}

// Set writes a value at the path, creating intermediate maps (and extending
// lists for indexed segments) as needed.
//
// Errors: returns CodeTypeMismatch when the path traverses an existing
// non-container value.
func (d *Document) Set(path id.FieldPath, value any) error {
	segs, err := path.Segments()
	if err != nil {
		return err
	}

	parent := d.Root
	for i, seg := range segs {
		last := i == len(segs)-1

		if !seg.IsIndexed() {
			if last {
				parent[seg.Key] = value
				return nil
			}
			next, ok := parent[seg.Key]
			if !ok || next == nil {
				child := map[string]any{}
				parent[seg.Key] = child
				parent = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				return dErrors.Newf(dErrors.CodeTypeMismatch, "path %q traverses a non-object at %q", path, seg.Key)
			}
			parent = child
			continue
		}

		list, err := toList(parent[seg.Key], path, seg.Key)
		if err != nil {
			return err
		}
		for len(list) <= seg.Index {
			if last {
				list = append(list, nil)
			} else {
				list = append(list, map[string]any{})
			}
		}
		parent[seg.Key] = list

		if last {
			list[seg.Index] = value
			return nil
		}
		child, ok := list[seg.Index].(map[string]any)
		if !ok {
			return dErrors.Newf(dErrors.CodeTypeMismatch, "path %q traverses a non-object at %q[%d]", path, seg.Key, seg.Index)
		}
		parent = child
	}
	return nil
}

// Append inserts value at the end of the list at path, creating the list on
// first use. With set semantics, a structurally equal existing element is
// skipped rather than duplicated; added reports whether the list grew.
func (d *Document) Append(path id.FieldPath, value any, setSemantics bool) (added bool, err error) {
	segs, err := path.Segments()
	if err != nil {
		return false, err
	}
	lastSeg := segs[len(segs)-1]
	if lastSeg.IsIndexed() {
		return false, dErrors.Newf(dErrors.CodeTypeMismatch, "cannot append to indexed path %q", path)
	}

	parent := d.Root
	for _, seg := range segs[:len(segs)-1] {
		var cur any
		if seg.IsIndexed() {
			list, lerr := toList(parent[seg.Key], path, seg.Key)
			if lerr != nil {
				return false, lerr
			}
			for len(list) <= seg.Index {
				list = append(list, map[string]any{})
			}
			parent[seg.Key] = list
			cur = list[seg.Index]
		} else {
			next, ok := parent[seg.Key]
			if !ok || next == nil {
				child := map[string]any{}
				parent[seg.Key] = child
				next = child
			}
			cur = next
		}
		child, ok := cur.(map[string]any)
		if !ok {
			return false, dErrors.Newf(dErrors.CodeTypeMismatch, "path %q traverses a non-object at %q", path, seg.Key)
		}
		parent = child
	}

	list, err := toList(parent[lastSeg.Key], path, lastSeg.Key)
	if err != nil {
		return false, err
	}
	if setSemantics {
		for _, existing := range list {
			if reflect.DeepEqual(existing, value) {
				parent[lastSeg.Key] = list
				return false, nil
			}
		}
	}
	parent[lastSeg.Key] = append(list, value)
	return true, nil
}

func toList(cur any, path id.FieldPath, key string) ([]any, error) {
	if cur == nil {
		return []any{}, nil
	}
	list, ok := cur.([]any)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeTypeMismatch, "path %q expects a list at %q", path, key)
	}
	return list, nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return val
	}
}
