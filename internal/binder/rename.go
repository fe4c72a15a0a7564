package binder

import (
	"fmt"

	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// RenameBinder renames a variable everywhere, declarations and VALUES keys
// included.
type RenameBinder struct {
	Base
	from, to string
}

// NewRenameBinder creates a RenameBinder. Names may carry a leading ? or $.
func NewRenameBinder(from, to string) *RenameBinder {
	return &RenameBinder{
		from: rdf.NewVariable(from).Value,
		to:   rdf.NewVariable(to).Value,
	}
}

// VisitVariable renames a matching variable.
func (b *RenameBinder) VisitVariable(w *Walker, v rdf.Variable) (Replacement, error) {
	if v.Value != b.from || b.from == b.to {
		return NoChange, nil
	}
	return ReplaceWith(rdf.Variable{Value: b.to}), nil
}

// VisitValues moves row entries to the new key, keeping bound and unbound
// cells as they are.
func (b *RenameBinder) VisitValues(w *Walker, rows []sparql.ValuesRow) (Replacement, error) {
	if b.from == b.to {
		return NoChange, nil
	}
	for i, row := range rows {
		if _, ok := row[b.from]; !ok {
			continue
		}
		if _, clash := row[b.to]; clash {
			return NoChange, &BindError{
				Code:    ErrCodeStructuralMismatch,
				Message: fmt.Sprintf("VALUES row already binds ?%s", b.to),
				Field:   fmt.Sprintf("%s[%d]", w.Field(), i),
				Member:  w.Member(),
			}
		}
	}
	for _, row := range rows {
		if cell, ok := row[b.from]; ok {
			delete(row, b.from)
			row[b.to] = cell
		}
	}
	return NoChange, nil
}

// Bind implements Binder.
func (b *RenameBinder) Bind(node sparql.Node, opts ...Option) (sparql.Node, error) {
	return Walk(b, node, opts...)
}
