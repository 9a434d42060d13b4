package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "canon/pkg/domain-errors"
)

func TestCoerceNumber(t *testing.T) {
	spec := &FieldSpec{Path: "compliance.financial_inquiry.dependents_count", Type: TypeNumber}

	t.Run("accepts JSON numbers", func(t *testing.T) {
		v, err := spec.Coerce(float64(3))
		require.NoError(t, err)
		assert.Equal(t, float64(3), v)
	})

	t.Run("parses numeric strings", func(t *testing.T) {
		v, err := spec.Coerce("95000")
		require.NoError(t, err)
		assert.Equal(t, float64(95000), v)
	})

	t.Run("every built-in absence token coerces to zero", func(t *testing.T) {
		for _, tok := range []string{"no", "none", "nil", "zero", "no dependents", "NO", " None "} {
			v, err := spec.Coerce(tok)
			require.NoError(t, err, "token %q", tok)
			assert.Equal(t, float64(0), v, "token %q", tok)
		}
	})

	t.Run("schema-declared synonyms coerce to zero", func(t *testing.T) {
		withSynonym := &FieldSpec{Path: spec.Path, Type: TypeNumber, AbsenceTokens: []string{"no kids"}}
		v, err := withSynonym.Coerce("No Kids")
		require.NoError(t, err)
		assert.Equal(t, float64(0), v)
	})

	t.Run("rejects non-numeric strings", func(t *testing.T) {
		_, err := spec.Coerce("a few")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTypeMismatch))
	})

	t.Run("enforces declared bounds", func(t *testing.T) {
		min, max := float64(0), float64(20)
		bounded := &FieldSpec{Path: spec.Path, Type: TypeNumber, Min: &min, Max: &max}

		_, err := bounded.Coerce(float64(-1))
		require.Error(t, err)

		_, err = bounded.Coerce(float64(21))
		require.Error(t, err)

		v, err := bounded.Coerce(float64(20))
		require.NoError(t, err)
		assert.Equal(t, float64(20), v)
	})
}

func TestCoerceString(t *testing.T) {
	spec := &FieldSpec{Path: "parties.buyer.name", Type: TypeString}

	t.Run("trims and accepts", func(t *testing.T) {
		v, err := spec.Coerce("  John Smith ")
		require.NoError(t, err)
		assert.Equal(t, "John Smith", v)
	})

	t.Run("rejects blanks", func(t *testing.T) {
		_, err := spec.Coerce("   ")
		require.Error(t, err)
	})

	t.Run("rejects non-strings", func(t *testing.T) {
		_, err := spec.Coerce(float64(12))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTypeMismatch))
	})
}

func TestCoerceDate(t *testing.T) {
	spec := &FieldSpec{Path: "parties.buyer.date_of_birth", Type: TypeDate}

	t.Run("accepts DD/MM/YYYY", func(t *testing.T) {
		v, err := spec.Coerce("07/03/1990")
		require.NoError(t, err)
		assert.Equal(t, "07/03/1990", v)
	})

	t.Run("accepts single-digit day and month", func(t *testing.T) {
		_, err := spec.Coerce("7/3/1990")
		require.NoError(t, err)
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		for _, raw := range []string{"1990-03-07", "03/07/1990/x", "tomorrow"} {
			_, err := spec.Coerce(raw)
			require.Error(t, err, "input %q", raw)
		}
	})

	t.Run("rejects impossible calendar dates", func(t *testing.T) {
		_, err := spec.Coerce("31/02/1990")
		require.Error(t, err)
	})
}

func TestCoerceEnum(t *testing.T) {
	spec := &FieldSpec{
		Path:   "employment.status",
		Type:   TypeEnum,
		Values: []string{"full_time", "part_time", "self_employed"},
	}

	t.Run("matches after normalization", func(t *testing.T) {
		v, err := spec.Coerce("Self Employed!")
		require.NoError(t, err)
		assert.Equal(t, "self_employed", v)
	})

	t.Run("rejects values outside the allowlist", func(t *testing.T) {
		_, err := spec.Coerce("retired")
		require.Error(t, err)
	})
}

func TestCoerceListElement(t *testing.T) {
	spec := &FieldSpec{
		Path:    "compliance.financial_inquiry.income_sources",
		Type:    TypeList,
		Element: TypeNumber,
	}

	t.Run("coerces elements by element type", func(t *testing.T) {
		v, err := spec.Coerce("95000")
		require.NoError(t, err)
		assert.Equal(t, float64(95000), v)
	})

	t.Run("defaults element type to string", func(t *testing.T) {
		untyped := &FieldSpec{Path: "notes", Type: TypeList}
		v, err := untyped.Coerce("freelance design work")
		require.NoError(t, err)
		assert.Equal(t, "freelance design work", v)
	})
}
