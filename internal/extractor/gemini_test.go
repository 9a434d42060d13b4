package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canon/internal/patch"
	"canon/internal/schema"
)

func TestParseRecordsToleratesFencedJSON(t *testing.T) {
	text := "```json\n[{\"operation\":\"replace\",\"path\":\"loan.amount\",\"value\":75000}]\n```"

	records, err := parseRecords(text)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "replace", records[0].Operation)
	assert.Equal(t, 75000.0, records[0].Value)
}

func TestParseRecordsRejectsNonArrayReplies(t *testing.T) {
	_, err := parseRecords("I could not find a value in that message.")
	require.Error(t, err)

	_, err = parseRecords(`{"operation":"replace"}`)
	require.Error(t, err)
}

func TestFilterClipsForeignPaths(t *testing.T) {
	g := NewGemini(nil, "", "gemini")
	target := &schema.FieldSpec{Path: "loan.amount", Type: schema.TypeNumber}

	records := []patch.Record{
		{Operation: "replace", Path: "loan.amount", Value: 75000.0},
		{Operation: "replace", Path: "applicant.full_name", Value: "invented"},
		{Operation: "none"},
	}

	safe := g.filter(records, target)

	require.Len(t, safe, 2)
	assert.Equal(t, "loan.amount", safe[0].Path)
	assert.Equal(t, "gemini", safe[0].SourceAgent)
	// none gets anchored onto the target path for the audit trail.
	assert.Equal(t, "loan.amount", safe[1].Path)
}

func TestFilterAcceptsIndexedPathsUnderTarget(t *testing.T) {
	g := NewGemini(nil, "", "gemini")
	target := &schema.FieldSpec{Path: "income.sources", Type: schema.TypeList, Element: schema.TypeNumber}

	records := []patch.Record{
		{Operation: "replace", Path: "income.sources[1]", Value: 2000.0},
	}

	safe := g.filter(records, target)
	require.Len(t, safe, 1)
}
