package document

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DocumentSuite struct {
	suite.Suite
	doc *Document
}

func TestDocumentSuite(t *testing.T) {
	suite.Run(t, new(DocumentSuite))
}

func (s *DocumentSuite) SetupTest() {
	s.doc = New()
}

func (s *DocumentSuite) TestSetAndGet() {
	s.Run("creates intermediate objects", func() {
		s.Require().NoError(s.doc.Set("parties.buyer.name", "John Smith"))

		v, ok := s.doc.Get("parties.buyer.name")
		s.Require().True(ok)
		s.Equal("John Smith", v)
	})

	s.Run("overwrites in place", func() {
		s.Require().NoError(s.doc.Set("parties.buyer.name", "Jane Smith"))

		v, _ := s.doc.Get("parties.buyer.name")
		s.Equal("Jane Smith", v)
	})

	s.Run("misses unset paths", func() {
		_, ok := s.doc.Get("parties.seller.name")
		s.False(ok)
	})

	s.Run("rejects traversal through scalars", func() {
		s.Require().NoError(s.doc.Set("loan.amount", float64(250000)))
		s.Error(s.doc.Set("loan.amount.currency", "USD"))
	})

	s.Run("writes through indexed segments", func() {
		s.Require().NoError(s.doc.Set("income_sources[1].annual_income", float64(95000)))

		v, ok := s.doc.Get("income_sources[1].annual_income")
		s.Require().True(ok)
		s.Equal(float64(95000), v)

		// The gap element materializes as an empty object.
		first, ok := s.doc.Get("income_sources[0]")
		s.Require().True(ok)
		s.Equal(map[string]any{}, first)
	})
}

func (s *DocumentSuite) TestAppend() {
	s.Run("creates the list on first use", func() {
		added, err := s.doc.Append("income_sources", float64(95000), false)
		s.Require().NoError(err)
		s.True(added)

		v, _ := s.doc.Get("income_sources")
		s.Equal([]any{float64(95000)}, v)
	})

	s.Run("keeps duplicates without set semantics", func() {
		added, err := s.doc.Append("income_sources", float64(95000), false)
		s.Require().NoError(err)
		s.True(added)

		v, _ := s.doc.Get("income_sources")
		s.Len(v, 2)
	})

	s.Run("skips structural duplicates with set semantics", func() {
		added, err := s.doc.Append("income_sources", float64(95000), true)
		s.Require().NoError(err)
		s.False(added)

		v, _ := s.doc.Get("income_sources")
		s.Len(v, 2)
	})

	s.Run("rejects appending to a scalar", func() {
		s.Require().NoError(s.doc.Set("name", "x"))
		_, err := s.doc.Append("name", "y", false)
		s.Error(err)
	})
}

func (s *DocumentSuite) TestIsPopulated() {
	s.Run("zero counts as populated", func() {
		s.Require().NoError(s.doc.Set("dependents_count", float64(0)))
		s.True(s.doc.IsPopulated("dependents_count"))
	})

	s.Run("blank strings do not count", func() {
		s.Require().NoError(s.doc.Set("name", "   "))
		s.False(s.doc.IsPopulated("name"))
	})

	s.Run("empty lists do not count", func() {
		s.Require().NoError(s.doc.Set("income_sources", []any{}))
		s.False(s.doc.IsPopulated("income_sources"))
	})

	s.Run("unset paths do not count", func() {
		s.False(s.doc.IsPopulated("never.asked"))
	})
}

func (s *DocumentSuite) TestClone() {
	s.Require().NoError(s.doc.Set("parties.buyer.name", "John Smith"))
	_, err := s.doc.Append("income_sources", float64(95000), false)
	s.Require().NoError(err)
	s.doc.Version = 4

	clone := s.doc.Clone()
	s.Equal(int64(4), clone.Version)

	// Mutating the clone must not leak into the original.
	s.Require().NoError(clone.Set("parties.buyer.name", "Jane Smith"))
	_, err = clone.Append("income_sources", float64(1), false)
	s.Require().NoError(err)

	v, _ := s.doc.Get("parties.buyer.name")
	s.Equal("John Smith", v)
	list, _ := s.doc.Get("income_sources")
	s.Len(list, 1)
}
