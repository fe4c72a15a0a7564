package binder

import (
	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// PatternBinder expands placeholder filters into pattern lists.
//
// A placeholder is a FILTER whose whole expression is one variable, e.g.
// FILTER(?extraPatterns). It is spliced out of its pattern list and a
// fresh clone of the expansion goes in its place. A placeholder variable
// used inside a larger expression is not expanded.
//
// The spliced patterns are walked before they are installed, so other
// placeholders of the same binder inside them are expanded too. A
// placeholder is never expanded inside its own expansion. The binder holds
// no per-walk state and may be shared once built.
type PatternBinder struct {
	Base
	expansions map[string][]sparql.Pattern
}

// NewPatternBinder creates a PatternBinder for one placeholder.
func NewPatternBinder(placeholder string, patterns []sparql.Pattern) *PatternBinder {
	b := &PatternBinder{expansions: make(map[string][]sparql.Pattern)}
	return b.With(placeholder, patterns)
}

// With adds another placeholder and returns b.
func (b *PatternBinder) With(placeholder string, patterns []sparql.Pattern) *PatternBinder {
	b.expansions[rdf.NewVariable(placeholder).Value] = patterns
	return b
}

// VisitFilter splices the expansion in place of a placeholder filter.
func (b *PatternBinder) VisitFilter(w *Walker, f *sparql.FilterPattern) (Replacement, error) {
	v, ok := f.Expression.(rdf.Variable)
	if !ok {
		return NoChange, nil
	}
	patterns, ok := b.expansions[v.Value]
	if !ok || w.Expanding(v.Value) {
		return NoChange, nil
	}

	fresh := make([]sparql.Pattern, len(patterns))
	for i, p := range patterns {
		fresh[i] = sparql.Clone(p)
	}

	fresh, err := w.WalkExpansion(v.Value, fresh)
	if err != nil {
		return NoChange, err
	}

	nodes := make([]sparql.Node, len(fresh))
	for i, p := range fresh {
		nodes[i] = p
	}
	return SpliceWith(nodes...), nil
}

// Bind implements Binder.
func (b *PatternBinder) Bind(node sparql.Node, opts ...Option) (sparql.Node, error) {
	return Walk(b, node, opts...)
}
