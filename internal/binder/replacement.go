package binder

import "github.com/roach88/querybinder/internal/sparql"

type replacementKind int

const (
	keep replacementKind = iota
	replace
	splice
)

// Replacement is what a hook asks the walker to do with the node it saw.
// The zero value is NoChange.
type Replacement struct {
	kind  replacementKind
	node  sparql.Node
	nodes []sparql.Node
}

// NoChange leaves the node in place and lets the walker descend into it.
var NoChange = Replacement{}

// ReplaceWith installs n in place of the visited node.
// The walker checks n against the slot kind and does not descend into it.
func ReplaceWith(n sparql.Node) Replacement {
	return Replacement{kind: replace, node: n}
}

// SpliceWith replaces the visited list element with nodes.
// An empty splice removes the element. Splicing outside a list slot is a
// structural mismatch.
func SpliceWith(nodes ...sparql.Node) Replacement {
	if nodes == nil {
		nodes = []sparql.Node{}
	}
	return Replacement{kind: splice, nodes: nodes}
}
