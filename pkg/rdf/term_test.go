package rdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== NamedNode Tests =====

func TestNamedNode_String(t *testing.T) {
	node := NewNamedNode("http://example.org/resource")
	assert.Equal(t, TermTypeNamedNode, node.Type())
	assert.Equal(t, "<http://example.org/resource>", node.String())
}

func TestNamedNode_Equals(t *testing.T) {
	node1 := NewNamedNode("http://example.org/resource")
	node2 := NewNamedNode("http://example.org/resource")
	node3 := NewNamedNode("http://example.org/different")

	assert.True(t, node1.Equals(node2))
	assert.False(t, node1.Equals(node3))
	assert.False(t, node1.Equals(NewLiteral("http://example.org/resource")))
}

// ===== Literal Tests =====

func TestLiteral_String(t *testing.T) {
	assert.Equal(t, `"Wilting"`, NewLiteral("Wilting").String())
	assert.Equal(t, `"Mildiou"@fr`, NewLiteralWithLanguage("Mildiou", "FR").String())
	assert.Equal(t, `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`, NewIntegerLiteral(42).String())
	assert.Equal(t, `"say \"hi\""`, NewLiteral(`say "hi"`).String())
}

func TestLiteral_Equals(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Term
		equal bool
	}{
		{"same plain", NewLiteral("a"), NewLiteral("a"), true},
		{"different value", NewLiteral("a"), NewLiteral("b"), false},
		{"same language", NewLiteralWithLanguage("a", "en"), NewLiteralWithLanguage("a", "EN"), true},
		{"language vs plain", NewLiteralWithLanguage("a", "en"), NewLiteral("a"), false},
		{"different language", NewLiteralWithLanguage("a", "en"), NewLiteralWithLanguage("a", "de"), false},
		{"same datatype", NewIntegerLiteral(1), NewLiteralWithDatatype("1", XSDInteger), true},
		{"datatype vs plain", NewIntegerLiteral(1), NewLiteral("1"), false},
		{"xsd:string is plain", NewLiteralWithDatatype("a", XSDString), NewLiteral("a"), true},
		{"literal vs iri", NewLiteral("a"), NewNamedNode("a"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.equal, tc.a.Equals(tc.b))
			assert.Equal(t, tc.equal, tc.b.Equals(tc.a))
		})
	}
}

// ===== Variable Tests =====

func TestVariable_NeverEqualsStoredTerms(t *testing.T) {
	v := NewVariable("x")
	assert.Equal(t, "?x", v.String())
	assert.True(t, v.Equals(NewVariable("x")))
	assert.False(t, v.Equals(NewVariable("y")))
	assert.False(t, v.Equals(NewNamedNode("x")))
	assert.False(t, v.Equals(NewLiteral("x")))
	assert.False(t, NewNamedNode("?x").Equals(v))
}

func TestIsVariable(t *testing.T) {
	assert.True(t, IsVariable(nil))
	assert.True(t, IsVariable(NewVariable("s")))
	assert.False(t, IsVariable(NewNamedNode("http://example.org/s")))
	assert.False(t, IsVariable(NewLiteral("s")))
	assert.True(t, IsVariable((*NamedNode)(nil)))
}

// ===== Triple Tests =====

func TestTriple_Validate(t *testing.T) {
	s := NewNamedNode("http://example.org/LateBlight")
	p := NewNamedNode("http://example.org/hasSymptom")

	require.NoError(t, NewTriple(s, p, NewNamedNode("http://example.org/S1")).Validate())
	require.NoError(t, NewTriple(s, RDFSLabel, NewLiteral("Late Blight")).Validate())

	err := NewTriple(s, p, NewVariable("o")).Validate()
	assert.True(t, errors.Is(err, ErrInvalidTriple))

	err = NewTriple(nil, p, NewLiteral("x")).Validate()
	assert.True(t, errors.Is(err, ErrInvalidTriple))

	err = NewTriple(s, p, (*Literal)(nil)).Validate()
	assert.True(t, errors.Is(err, ErrInvalidTriple))

	err = NewTriple(s, p, (*NamedNode)(nil)).Validate()
	assert.True(t, errors.Is(err, ErrInvalidTriple))
}

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil((*NamedNode)(nil)))
	assert.True(t, IsNil((*Literal)(nil)))
	assert.True(t, IsNil((*Variable)(nil)))
	assert.False(t, IsNil(NewNamedNode("http://example.org/s")))
	assert.False(t, IsNil(NewVariable("s")))
}

func TestTriple_String(t *testing.T) {
	tr := NewTriple(NewNamedNode("http://example.org/S1"), RDFSLabel, NewLiteral("Wilting"))
	assert.Equal(t, `<http://example.org/S1> <http://www.w3.org/2000/01/rdf-schema#label> "Wilting" .`, tr.String())
}
