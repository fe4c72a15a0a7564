package binder

import (
	"fmt"

	"github.com/roach88/querybinder/internal/sparql"
)

// Binder is a rewrite strategy. Bind rewrites node in place and returns
// the new root.
type Binder interface {
	Bind(node sparql.Node, opts ...Option) (sparql.Node, error)
}

// Apply runs b over a clone of node. The input is never modified, and on
// error no partial result is returned.
func Apply(b Binder, node sparql.Node, opts ...Option) (sparql.Node, error) {
	out, err := b.Bind(sparql.Clone(node), opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Chain runs binders as successive passes over the same tree, so a later
// binder sees what an earlier one spliced in.
type Chain []Binder

// NewChain creates a Chain. Nil binders are dropped.
func NewChain(binders ...Binder) Chain {
	c := make(Chain, 0, len(binders))
	for _, b := range binders {
		if b != nil {
			c = append(c, b)
		}
	}
	return c
}

// Bind runs every pass in order and stops at the first error.
func (c Chain) Bind(node sparql.Node, opts ...Option) (sparql.Node, error) {
	for i, b := range c {
		var err error
		node, err = b.Bind(node, opts...)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", i, err)
		}
	}
	return node, nil
}
