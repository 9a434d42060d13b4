package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"canon/internal/document"
	"canon/internal/patch"
	"canon/internal/schema"
	id "canon/pkg/domain"
)

// DefaultGeminiModel is the extraction model used unless overridden.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini extracts patches through a Gemini model. The model output is
// treated as untrusted agent input: it is parsed, filtered to the target
// field, and still goes through full patch validation downstream.
type Gemini struct {
	client *genai.Client
	model  string
	agent  string
}

// NewGemini wraps an initialized genai client. agent names this extractor in
// patch provenance.
func NewGemini(client *genai.Client, model, agent string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	if agent == "" {
		agent = "gemini"
	}
	return &Gemini{client: client, model: model, agent: agent}
}

func (g *Gemini) Extract(ctx context.Context, target *schema.FieldSpec, doc *document.Document, userText string) ([]patch.Record, error) {
	prompt, err := g.buildPrompt(target, doc, userText)
	if err != nil {
		return nil, err
	}

	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		return nil, nil
	}

	records, err := parseRecords(text)
	if err != nil {
		// A malformed model reply is a decline, not a failure: the chain
		// falls through and the orchestrator re-asks.
		return nil, nil
	}

	return g.filter(records, target), nil
}

func (g *Gemini) buildPrompt(target *schema.FieldSpec, doc *document.Document, userText string) (string, error) {
	state, err := json.MarshalIndent(doc.Root, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal document state: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a regulated banking data extraction engine.\n\n")
	fmt.Fprintf(&b, "Target field: %s (type %s)\n", target.Path, target.Type)
	if len(target.Values) > 0 {
		fmt.Fprintf(&b, "Allowed values: %s\n", strings.Join(target.Values, ", "))
	}
	b.WriteString(`
Return a JSON array of patch objects, each:
  {"operation": "...", "path": "...", "value": ..., "justification": "..."}

Operations:
  replace -> the user gave one clear value for the target field
  append  -> the target is a list and the user gave one element
  none    -> the user gave no usable value for the target field

Rules:
  - Only patch the target field. Never invent other paths.
  - If the message contains a numeric amount that is not a single exact
    value (a range, "about 5k", "2 or 3 thousand", "depends"), return none
    with a justification describing the ambiguity.
  - Dates are DD/MM/YYYY.
  - justification quotes the user's words that support the value.

Return JSON only.
`)
	fmt.Fprintf(&b, "\nCURRENT STATE:\n%s\n\nUSER MESSAGE:\n%s\n", state, userText)
	return b.String(), nil
}

// filter drops anything aimed away from the target field. A model that
// hallucinates paths gets silently clipped here and audited as rejected
// later only if it insists through the target path.
func (g *Gemini) filter(records []patch.Record, target *schema.FieldSpec) []patch.Record {
	targetRoot := target.Path.Root()

	var safe []patch.Record
	for _, rec := range records {
		rec.SourceAgent = g.agent
		if strings.EqualFold(rec.Operation, "none") {
			rec.Path = string(target.Path)
			safe = append(safe, rec)
			continue
		}
		path, err := id.ParseFieldPath(patch.NormalizePath(rec.Path))
		if err != nil {
			continue
		}
		if path.Root() == targetRoot {
			safe = append(safe, rec)
		}
	}
	return safe
}

// parseRecords pulls the first JSON array out of the reply. Models sometimes
// wrap JSON in prose or fences despite the MIME type hint.
func parseRecords(text string) ([]patch.Record, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in model reply")
	}

	var records []patch.Record
	if err := json.Unmarshal([]byte(text[start:end+1]), &records); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	return records, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				return string(text)
			}
		}
	}
	return ""
}
