package rdf

import "unicode/utf16"

// hashString is the 31-multiplier rolling hash over UTF-16 code units.
// int32 arithmetic wraps, so the value is the same on every platform.
func hashString(s string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(unit)
	}
	return h
}

// combineHash folds x into h.
func combineHash(h, x int32) int32 {
	return 31*h + x
}

func termHash(t Term) int32 {
	if t == nil {
		return 0
	}
	return t.Hash()
}

// Every hash is seeded with the term type so that an IRI and a blank node
// with the same label hash differently.
var (
	seedIRI          = hashString(string(TypeIRI))
	seedLiteral      = hashString(string(TypeLiteral))
	seedBlank        = hashString(string(TypeBlank))
	seedVariable     = hashString(string(TypeVariable))
	seedDefaultGraph = hashString(string(TypeDefaultGraph))
	seedQuad         = hashString(string(TypeQuad))
)

// Hash returns the structural hash of the IRI.
func (i IRI) Hash() int32 {
	return combineHash(seedIRI, hashString(i.Value))
}

// Hash returns the structural hash of the literal over value, datatype and language.
func (l Literal) Hash() int32 {
	h := combineHash(seedLiteral, hashString(l.Value))
	h = combineHash(h, hashString(l.Datatype.Value))
	return combineHash(h, hashString(l.Language))
}

// Hash returns the structural hash of the blank node.
func (b Blank) Hash() int32 {
	return combineHash(seedBlank, hashString(b.Value))
}

// Hash returns the structural hash of the variable.
func (v Variable) Hash() int32 {
	return combineHash(seedVariable, hashString(v.Value))
}

// Hash returns the same value for every DefaultGraph.
func (DefaultGraph) Hash() int32 {
	return seedDefaultGraph
}

// Hash combines the hashes of all four slots.
func (q Quad) Hash() int32 {
	h := combineHash(seedQuad, termHash(q.Subject))
	h = combineHash(h, termHash(q.Predicate))
	h = combineHash(h, termHash(q.Object))
	return combineHash(h, termHash(q.Graph))
}

// HashString exposes the rolling string hash so that composite structures
// (VALUES rows, for instance) can fold keys the same way terms do.
func HashString(s string) int32 {
	return hashString(s)
}

// CombineHash exposes combineHash for composite structures.
func CombineHash(h, x int32) int32 {
	return combineHash(h, x)
}
