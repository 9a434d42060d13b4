package schema

import (
	id "canon/pkg/domain"
	dErrors "canon/pkg/domain-errors"
)

// Registry holds the full field schema for one interview workflow. It is
// immutable after construction; a broken schema never reaches runtime.
type Registry struct {
	workflow string
	fields   []*FieldSpec
	byPath   map[id.FieldPath]*FieldSpec
}

// NewRegistry validates the field specs and builds the registry.
//
// Errors: returns CodeSchemaConfig for duplicate paths, unknown types,
// dangling dependency references, or cycles in the dependency graph. These
// are configuration errors and must abort startup.
func NewRegistry(workflow string, specs []FieldSpec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, dErrors.New(dErrors.CodeSchemaConfig, "schema declares no fields")
	}

	r := &Registry{
		workflow: workflow,
		fields:   make([]*FieldSpec, 0, len(specs)),
		byPath:   make(map[id.FieldPath]*FieldSpec, len(specs)),
	}

	for i := range specs {
		spec := specs[i]
		if _, err := id.ParseFieldPath(spec.Path.String()); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeSchemaConfig, "invalid field path")
		}
		if _, dup := r.byPath[spec.Path]; dup {
			return nil, dErrors.Newf(dErrors.CodeSchemaConfig, "duplicate field path %q", spec.Path)
		}
		if !spec.Type.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeSchemaConfig, "field %q has unknown type %q", spec.Path, spec.Type)
		}
		if spec.Type == TypeList && spec.Element != "" && (!spec.Element.IsValid() || spec.Element == TypeList) {
			return nil, dErrors.Newf(dErrors.CodeSchemaConfig, "field %q has unsupported element type %q", spec.Path, spec.Element)
		}
		if spec.Type == TypeEnum && len(spec.Values) == 0 {
			return nil, dErrors.Newf(dErrors.CodeSchemaConfig, "enum field %q declares no values", spec.Path)
		}
		spec.order = i
		r.fields = append(r.fields, &spec)
		r.byPath[spec.Path] = &spec
	}

	// Dependency references must resolve to declared fields.
	for _, f := range r.fields {
		for _, req := range f.Requires {
			if _, ok := r.byPath[req]; !ok {
				return nil, dErrors.Newf(dErrors.CodeSchemaConfig, "field %q requires undeclared field %q", f.Path, req)
			}
		}
		if f.RelevantWhen != nil {
			if _, ok := r.byPath[f.RelevantWhen.Path]; !ok {
				return nil, dErrors.Newf(dErrors.CodeSchemaConfig, "field %q conditioned on undeclared field %q", f.Path, f.RelevantWhen.Path)
			}
		}
	}

	if err := r.detectCycles(); err != nil {
		return nil, err
	}

	return r, nil
}

// Workflow returns the workflow name the schema was declared for.
func (r *Registry) Workflow() string { return r.workflow }

// Fields returns all field specs in declaration order.
func (r *Registry) Fields() []*FieldSpec { return r.fields }

// Lookup resolves a field path to its spec. Indexed paths resolve to the
// spec of their index-free root, so "income_sources[2]" matches the
// "income_sources" declaration.
func (r *Registry) Lookup(path id.FieldPath) (*FieldSpec, bool) {
	spec, ok := r.byPath[path.Root()]
	return spec, ok
}

// detectCycles walks the dependency graph (requires edges plus relevance
// conditions) and rejects any cycle. The workflow state machine assumes an
// acyclic graph and never re-checks at runtime.
func (r *Registry) detectCycles() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[id.FieldPath]int, len(r.fields))

	var visit func(f *FieldSpec) error
	visit = func(f *FieldSpec) error {
		switch state[f.Path] {
		case visiting:
			return dErrors.Newf(dErrors.CodeSchemaConfig, "dependency cycle through field %q", f.Path)
		case done:
			return nil
		}
		state[f.Path] = visiting

		edges := make([]id.FieldPath, 0, len(f.Requires)+1)
		edges = append(edges, f.Requires...)
		if f.RelevantWhen != nil {
			edges = append(edges, f.RelevantWhen.Path)
		}
		for _, dep := range edges {
			if err := visit(r.byPath[dep]); err != nil {
				return err
			}
		}

		state[f.Path] = done
		return nil
	}

	for _, f := range r.fields {
		if err := visit(f); err != nil {
			return err
		}
	}
	return nil
}
