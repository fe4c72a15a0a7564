package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashStringKnownValues(t *testing.T) {
	// Same values as the classic 31-multiplier string hash
	assert.Equal(t, int32(0), hashString(""))
	assert.Equal(t, int32(97), hashString("a"))
	assert.Equal(t, int32(96354), hashString("abc"))
	assert.Equal(t, int32(99162322), hashString("hello"))
}

func TestHashStringWrapsAround(t *testing.T) {
	// Long input must overflow int32 deterministically rather than panic
	long := "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
	assert.Equal(t, hashString(long), hashString(long))
}

func TestHashStringUsesUTF16CodeUnits(t *testing.T) {
	// U+1F600 is a surrogate pair in UTF-16: 0xD83D 0xDE00
	want := 31*int32(0xD83D) + int32(0xDE00)
	assert.Equal(t, want, hashString("\U0001F600"))
}

func TestEqualTermsHashEqual(t *testing.T) {
	s := NewIRI("http://example.org/s")
	p := NewIRI("http://example.org/p")

	pairs := [][2]Term{
		{NewIRI("http://a"), NewIRI("http://a")},
		{NewVariable("?x"), NewVariable("$x")},
		{NewLangLiteral("hi", "en"), Literal{Value: "hi", Datatype: NewIRI(RDFLangString), Language: "en"}},
		{DefaultGraph{}, DefaultGraph{}},
		{MustQuad(s, p, NewLiteral("o"), nil), MustQuad(s, p, NewLiteral("o"), DefaultGraph{})},
	}

	for _, pair := range pairs {
		assert.True(t, pair[0].Equals(pair[1]))
		assert.Equal(t, pair[0].Hash(), pair[1].Hash(), "%s vs %s", pair[0], pair[1])
	}
}

func TestHashDistinguishesKinds(t *testing.T) {
	assert.NotEqual(t, NewIRI("x").Hash(), NewBlank("x").Hash())
	assert.NotEqual(t, NewIRI("x").Hash(), NewVariable("x").Hash())
	assert.NotEqual(t, NewLangLiteral("x", "en").Hash(), NewLangLiteral("x", "de").Hash())
}

func TestQuadHashIsRecursive(t *testing.T) {
	s := NewIRI("s")
	p := NewIRI("p")
	inner1 := MustQuad(s, p, NewLiteral("a"), nil)
	inner2 := MustQuad(s, p, NewLiteral("b"), nil)

	outer1 := MustQuad(inner1, p, s, nil)
	outer2 := MustQuad(inner2, p, s, nil)

	assert.NotEqual(t, outer1.Hash(), outer2.Hash())
}
