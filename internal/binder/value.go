package binder

import (
	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// ValueBinder replaces variables with bound terms.
//
// Declaration slots (projection, BIND target, GROUP BY and SELECT aliases)
// are left alone so the query stays well formed. Unmapped variables stay
// unbound. A value bound into a slot it cannot occupy, such as a literal in
// subject position, fails the walk.
type ValueBinder struct {
	Base
	bindings map[string]rdf.Term
}

// NewValueBinder creates a ValueBinder. Keys may carry a leading ? or $.
func NewValueBinder(bindings map[string]rdf.Term) *ValueBinder {
	b := &ValueBinder{bindings: make(map[string]rdf.Term, len(bindings))}
	for name, term := range bindings {
		if term != nil {
			b.bindings[rdf.NewVariable(name).Value] = term
		}
	}
	return b
}

// VisitVariable replaces a mapped variable in a use position.
func (b *ValueBinder) VisitVariable(w *Walker, v rdf.Variable) (Replacement, error) {
	if w.Member().IsDeclaration() {
		return NoChange, nil
	}
	if t, ok := b.bindings[v.Value]; ok {
		return ReplaceWith(t), nil
	}
	return NoChange, nil
}

// Bind implements Binder.
func (b *ValueBinder) Bind(node sparql.Node, opts ...Option) (sparql.Node, error) {
	return Walk(b, node, opts...)
}
