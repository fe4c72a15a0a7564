package binder

import (
	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// PathBinder replaces predicate variables with property paths.
// Variables anywhere else are left alone.
type PathBinder struct {
	Base
	paths map[string]*sparql.PropertyPath
}

// NewPathBinder creates a PathBinder. Every path is checked up front;
// a malformed one is a MALFORMED_PATH error.
func NewPathBinder(paths map[string]*sparql.PropertyPath) (*PathBinder, error) {
	b := &PathBinder{paths: make(map[string]*sparql.PropertyPath, len(paths))}
	for name, p := range paths {
		name = rdf.NewVariable(name).Value
		if err := sparql.CheckPath(p); err != nil {
			return nil, fromValidation(err, "paths."+name, MemberPredicate)
		}
		b.paths[name] = p
	}
	return b, nil
}

// VisitVariable installs a normalized copy of the mapped path. A path of
// one item collapses to that item.
func (b *PathBinder) VisitVariable(w *Walker, v rdf.Variable) (Replacement, error) {
	if w.Member() != MemberPredicate {
		return NoChange, nil
	}
	p, ok := b.paths[v.Value]
	if !ok {
		return NoChange, nil
	}
	return ReplaceWith(sparql.NormalizePath(sparql.Clone(p))), nil
}

// Bind implements Binder.
func (b *PathBinder) Bind(node sparql.Node, opts ...Option) (sparql.Node, error) {
	return Walk(b, node, opts...)
}
