package binder

import (
	"slices"

	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

type variableCollector struct {
	Base
	seen map[string]struct{}
}

func (c *variableCollector) VisitVariable(w *Walker, v rdf.Variable) (Replacement, error) {
	c.seen[v.Value] = struct{}{}
	return NoChange, nil
}

func (c *variableCollector) VisitValues(w *Walker, rows []sparql.ValuesRow) (Replacement, error) {
	for _, name := range sparql.ValuesVariables(rows) {
		c.seen[name] = struct{}{}
	}
	return NoChange, nil
}

// CollectVariables returns the sorted names of every variable in node,
// VALUES keys included. The tree is not modified.
func CollectVariables(node sparql.Node, opts ...Option) ([]string, error) {
	c := &variableCollector{seen: make(map[string]struct{})}
	if _, err := Walk(c, node, opts...); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(c.seen))
	for name := range c.seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
