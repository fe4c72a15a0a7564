package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermSealed(t *testing.T) {
	// Compile-time check that every kind implements Term
	var _ Term = IRI{}
	var _ Term = Literal{}
	var _ Term = Blank{}
	var _ Term = Variable{}
	var _ Term = DefaultGraph{}
	var _ Term = Quad{}
}

func TestNewVariableStripsMarker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x", "x"},
		{"?x", "x"},
		{"$x", "x"},
		{"??x", "?x"}, // only one marker is surface syntax
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NewVariable(tc.in).Value)
		})
	}
}

func TestLiteralConstructors(t *testing.T) {
	plain := NewLiteral("hello")
	assert.Equal(t, XSDString, plain.Datatype.Value)
	assert.Empty(t, plain.Language)

	tagged := NewLangLiteral("hello", "en")
	assert.Equal(t, RDFLangString, tagged.Datatype.Value)
	assert.Equal(t, "en", tagged.Language)

	untagged := NewLangLiteral("hello", "")
	assert.Equal(t, plain, untagged)

	typed := NewTypedLiteral("42", NewIRI(XSDInteger))
	assert.Equal(t, XSDInteger, typed.Datatype.Value)

	defaulted := NewTypedLiteral("x", IRI{})
	assert.Equal(t, XSDString, defaulted.Datatype.Value)
}

func TestEquals(t *testing.T) {
	s := NewIRI("http://example.org/s")
	p := NewIRI("http://example.org/p")
	o := NewLiteral("o")

	tests := []struct {
		name  string
		a, b  Term
		equal bool
	}{
		{"same iri", NewIRI("http://a"), NewIRI("http://a"), true},
		{"different iri", NewIRI("http://a"), NewIRI("http://b"), false},
		{"iri vs blank with same label", NewIRI("a"), NewBlank("a"), false},
		{"blank strips prefix", NewBlank("_:b0"), NewBlank("b0"), true},
		{"variable", NewVariable("?x"), NewVariable("x"), true},
		{"literal same", NewLiteral("a"), NewLiteral("a"), true},
		{"literal language differs", NewLangLiteral("a", "en"), NewLangLiteral("a", "de"), false},
		{"literal datatype differs", NewLiteral("1"), NewTypedLiteral("1", NewIRI(XSDInteger)), false},
		{"default graph", DefaultGraph{}, DefaultGraph{}, true},
		{"default graph vs iri", DefaultGraph{}, NewIRI(""), false},
		{"quad pointwise", MustQuad(s, p, o, nil), MustQuad(s, p, o, DefaultGraph{}), true},
		{"quad object differs", MustQuad(s, p, o, nil), MustQuad(s, p, NewLiteral("x"), nil), false},
		{"nested quad", MustQuad(MustQuad(s, p, o, nil), p, o, nil), MustQuad(MustQuad(s, p, o, nil), p, o, nil), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.equal, tc.a.Equals(tc.b))
			assert.Equal(t, tc.equal, tc.b.Equals(tc.a), "equality must be symmetric")
		})
	}
}

func TestNewQuadSlotRestrictions(t *testing.T) {
	iri := NewIRI("http://example.org/x")
	lit := NewLiteral("x")

	_, err := NewQuad(lit, iri, iri, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject")

	_, err = NewQuad(iri, NewBlank("b"), iri, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "predicate")

	_, err = NewQuad(iri, iri, nil, nil)
	require.Error(t, err)

	_, err = NewQuad(iri, iri, lit, lit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph")

	q, err := NewQuad(iri, iri, lit, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultGraph{}, q.Graph)
}

func TestSlotPredicates(t *testing.T) {
	quad := MustQuad(NewIRI("s"), NewIRI("p"), NewIRI("o"), nil)

	assert.True(t, IsSubjectTerm(quad))
	assert.False(t, IsSubjectTerm(NewLiteral("x")))
	assert.True(t, IsPredicateTerm(NewVariable("p")))
	assert.False(t, IsPredicateTerm(NewBlank("b")))
	assert.True(t, IsValuesCell(NewLiteral("x")))
	assert.False(t, IsValuesCell(NewVariable("x")))
	assert.False(t, IsValuesCell(quad))
	assert.False(t, IsSubjectTerm(nil))
}

func TestString(t *testing.T) {
	assert.Equal(t, "<http://a>", NewIRI("http://a").String())
	assert.Equal(t, `"hi"@en`, NewLangLiteral("hi", "en").String())
	assert.Equal(t, `"hi"`, NewLiteral("hi").String())
	assert.Equal(t, `"1"^^<`+XSDInteger+`>`, NewTypedLiteral("1", NewIRI(XSDInteger)).String())
	assert.Equal(t, "?x", NewVariable("x").String())
	assert.Equal(t, "_:b", NewBlank("b").String())
	assert.Equal(t, "<< <s> <p> <o> >>", MustQuad(NewIRI("s"), NewIRI("p"), NewIRI("o"), nil).String())
}
