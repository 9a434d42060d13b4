package schema

import (
	"os"

	"gopkg.in/yaml.v3"

	id "canon/pkg/domain"
	dErrors "canon/pkg/domain-errors"
)

// fileSchema is the YAML shape of a schema file. Kept separate from FieldSpec
// so the wire format can evolve without touching domain types.
type fileSchema struct {
	Workflow string      `yaml:"workflow"`
	Fields   []fileField `yaml:"fields"`
}

type fileField struct {
	Path          string         `yaml:"path"`
	Type          string         `yaml:"type"`
	Question      string         `yaml:"question"`
	Priority      int            `yaml:"priority"`
	Requires      []string       `yaml:"requires"`
	RelevantWhen  *fileCondition `yaml:"relevant_when"`
	Element       string         `yaml:"element"`
	SetSemantics  bool           `yaml:"set_semantics"`
	AbsenceTokens []string       `yaml:"absence_tokens"`
	Values        []string       `yaml:"values"`
	Min           *float64       `yaml:"min"`
	Max           *float64       `yaml:"max"`
}

type fileCondition struct {
	Path   string `yaml:"path"`
	Equals any    `yaml:"equals"`
}

// Load reads a schema file and builds the validated registry.
//
// Errors: any read, parse, or consistency failure is CodeSchemaConfig; the
// caller must treat it as fatal at startup.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSchemaConfig, "read schema file")
	}
	return Parse(raw)
}

// Parse builds the validated registry from raw YAML.
func Parse(raw []byte) (*Registry, error) {
	var file fileSchema
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSchemaConfig, "parse schema file")
	}
	if file.Workflow == "" {
		return nil, dErrors.New(dErrors.CodeSchemaConfig, "schema file declares no workflow name")
	}

	specs := make([]FieldSpec, 0, len(file.Fields))
	for _, f := range file.Fields {
		spec := FieldSpec{
			Path:          id.FieldPath(f.Path),
			Type:          FieldType(f.Type),
			Question:      f.Question,
			Priority:      f.Priority,
			Element:       FieldType(f.Element),
			SetSemantics:  f.SetSemantics,
			AbsenceTokens: f.AbsenceTokens,
			Values:        f.Values,
			Min:           f.Min,
			Max:           f.Max,
		}
		for _, req := range f.Requires {
			spec.Requires = append(spec.Requires, id.FieldPath(req))
		}
		if f.RelevantWhen != nil {
			spec.RelevantWhen = &Condition{
				Path:   id.FieldPath(f.RelevantWhen.Path),
				Equals: f.RelevantWhen.Equals,
			}
		}
		specs = append(specs, spec)
	}

	return NewRegistry(file.Workflow, specs)
}
