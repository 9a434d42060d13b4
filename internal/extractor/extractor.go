// Package extractor turns free-form user messages into patch batches. A
// cheap deterministic pass runs first; only messages it cannot read go to
// the model-backed extractor. Extractors propose, the patch validator
// disposes: nothing here writes to a document.
package extractor

import (
	"context"

	"canon/internal/document"
	"canon/internal/patch"
	"canon/internal/schema"
)

// Extractor proposes patches for a user message aimed at the target field.
// An empty batch with a nil error means "I could not read this"; the next
// extractor in the chain gets a turn.
type Extractor interface {
	Extract(ctx context.Context, target *schema.FieldSpec, doc *document.Document, userText string) ([]patch.Record, error)
}

// Chain runs extractors in order and returns the first non-empty batch.
type Chain []Extractor

func (c Chain) Extract(ctx context.Context, target *schema.FieldSpec, doc *document.Document, userText string) ([]patch.Record, error) {
	for _, e := range c {
		batch, err := e.Extract(ctx, target, doc, userText)
		if err != nil {
			return nil, err
		}
		if len(batch) > 0 {
			return batch, nil
		}
	}
	return nil, nil
}
