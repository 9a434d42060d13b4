package schema

import (
	"testing"

	"github.com/stretchr/testify/suite"

	id "canon/pkg/domain"
	dErrors "canon/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) TestNewRegistry() {
	s.Run("rejects empty schema", func() {
		_, err := NewRegistry("intake", nil)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSchemaConfig))
	})

	s.Run("rejects duplicate paths", func() {
		_, err := NewRegistry("intake", []FieldSpec{
			{Path: "a.b", Type: TypeString},
			{Path: "a.b", Type: TypeNumber},
		})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSchemaConfig))
	})

	s.Run("rejects unknown type", func() {
		_, err := NewRegistry("intake", []FieldSpec{
			{Path: "a.b", Type: FieldType("currency")},
		})
		s.Error(err)
	})

	s.Run("rejects enum without values", func() {
		_, err := NewRegistry("intake", []FieldSpec{
			{Path: "a.b", Type: TypeEnum},
		})
		s.Error(err)
	})

	s.Run("rejects dangling requires", func() {
		_, err := NewRegistry("intake", []FieldSpec{
			{Path: "a.b", Type: TypeString, Requires: []id.FieldPath{"missing.path"}},
		})
		s.Error(err)
	})

	s.Run("rejects nested list elements", func() {
		_, err := NewRegistry("intake", []FieldSpec{
			{Path: "a.b", Type: TypeList, Element: TypeList},
		})
		s.Error(err)
	})

	s.Run("accepts a consistent schema and preserves order", func() {
		reg, err := NewRegistry("intake", []FieldSpec{
			{Path: "parties.buyer.name", Type: TypeString},
			{Path: "loan.amount", Type: TypeNumber, Requires: []id.FieldPath{"parties.buyer.name"}},
		})
		s.Require().NoError(err)
		s.Equal("intake", reg.Workflow())

		fields := reg.Fields()
		s.Require().Len(fields, 2)
		s.Equal(0, fields[0].DeclaredOrder())
		s.Equal(1, fields[1].DeclaredOrder())
	})
}

func (s *RegistrySuite) TestCycleDetection() {
	s.Run("detects a direct cycle", func() {
		_, err := NewRegistry("intake", []FieldSpec{
			{Path: "a", Type: TypeString, Requires: []id.FieldPath{"b"}},
			{Path: "b", Type: TypeString, Requires: []id.FieldPath{"a"}},
		})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSchemaConfig))
	})

	s.Run("detects a cycle through a relevance condition", func() {
		_, err := NewRegistry("intake", []FieldSpec{
			{Path: "a", Type: TypeString, RelevantWhen: &Condition{Path: "b", Equals: "yes"}},
			{Path: "b", Type: TypeString, Requires: []id.FieldPath{"a"}},
		})
		s.Error(err)
	})

	s.Run("accepts a diamond dependency", func() {
		_, err := NewRegistry("intake", []FieldSpec{
			{Path: "root", Type: TypeString},
			{Path: "left", Type: TypeString, Requires: []id.FieldPath{"root"}},
			{Path: "right", Type: TypeString, Requires: []id.FieldPath{"root"}},
			{Path: "sink", Type: TypeString, Requires: []id.FieldPath{"left", "right"}},
		})
		s.NoError(err)
	})
}

func (s *RegistrySuite) TestLookup() {
	reg, err := NewRegistry("intake", []FieldSpec{
		{Path: "compliance.financial_inquiry.income_sources", Type: TypeList, Element: TypeNumber},
	})
	s.Require().NoError(err)

	s.Run("resolves indexed paths to their root declaration", func() {
		spec, ok := reg.Lookup("compliance.financial_inquiry.income_sources[3]")
		s.Require().True(ok)
		s.Equal(id.FieldPath("compliance.financial_inquiry.income_sources"), spec.Path)
	})

	s.Run("misses undeclared paths", func() {
		_, ok := reg.Lookup("parties.seller.ssn")
		s.False(ok)
	})
}
