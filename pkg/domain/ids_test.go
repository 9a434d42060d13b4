package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "canon/pkg/domain-errors"
)

func TestParseSessionID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSessionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSessionID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		sid, err := ParseSessionID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, valid.String(), sid.String())
		assert.False(t, sid.IsNil())
	})

	t.Run("nil UUID parses but reports IsNil", func(t *testing.T) {
		sid, err := ParseSessionID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, sid.IsNil())
	})
}

func TestSessionIDJSONRoundTrip(t *testing.T) {
	sid := NewSessionID()

	raw, err := json.Marshal(sid)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+sid.String()+`"`, string(raw))

	var back SessionID
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, sid, back)
}
