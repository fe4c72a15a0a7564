package binder

import (
	"slices"

	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// Member names the structural member the walker is currently inside.
// List elements share the member of their list (every triple of a BGP is
// in "triples").
type Member string

const (
	MemberRoot        Member = ""
	MemberSubject     Member = "subject"
	MemberPredicate   Member = "predicate"
	MemberObject      Member = "object"
	MemberGraph       Member = "graph"
	MemberFrom        Member = "from"
	MemberDefault     Member = "default"
	MemberNamed       Member = "named"
	MemberWhere       Member = "where"
	MemberValues      Member = "values"
	MemberGroup       Member = "group"
	MemberHaving      Member = "having"
	MemberOrder       Member = "order"
	MemberVariables   Member = "variables"
	MemberVariable    Member = "variable"
	MemberTemplate    Member = "template"
	MemberUpdates     Member = "updates"
	MemberUsing       Member = "using"
	MemberDelete      Member = "delete"
	MemberInsert      Member = "insert"
	MemberSource      Member = "source"
	MemberDestination Member = "destination"
	MemberName        Member = "name"
	MemberTriples     Member = "triples"
	MemberPatterns    Member = "patterns"
	MemberExpression  Member = "expression"
	MemberArgs        Member = "args"
	MemberFunction    Member = "function"
	MemberItems       Member = "items"
)

func (m Member) slotName() string {
	if m == MemberRoot {
		return "root"
	}
	return string(m)
}

// IsDeclaration reports whether a variable in member m declares a name
// (projection, BIND target, GROUP BY or SELECT alias) rather than uses it.
func (m Member) IsDeclaration() bool {
	return m == MemberVariables || m == MemberVariable
}

// slot is the positional kind constraint of one place in the tree.
type slot struct {
	expected string
	accepts  func(sparql.Node) bool
}

func termSlot(expected string, ok func(rdf.Term) bool) slot {
	return slot{expected: expected, accepts: func(n sparql.Node) bool {
		t, isTerm := n.(rdf.Term)
		return isTerm && ok(t)
	}}
}

var (
	anySlot = slot{expected: "node", accepts: present}

	subjectSlot = termSlot("IRI, blank node, variable or quad", rdf.IsSubjectTerm)

	predicateSlot = slot{expected: "IRI, variable, quad or property path", accepts: func(n sparql.Node) bool {
		if p, ok := n.(*sparql.PropertyPath); ok {
			return p != nil
		}
		t, ok := n.(rdf.Term)
		return ok && rdf.IsPredicateTerm(t)
	}}

	quadPredicateSlot = termSlot("IRI, variable or quad", rdf.IsPredicateTerm)

	// CONSTRUCT templates and INSERT/DELETE blocks take no property paths.
	templatePredicateSlot = termSlot("IRI, variable or quad", rdf.IsPredicateTerm)

	objectSlot = termSlot("term", func(rdf.Term) bool { return true })

	quadGraphSlot = termSlot("IRI, blank node, variable, quad or default graph", rdf.IsGraphTerm)

	graphNameSlot = termSlot("IRI or variable", func(t rdf.Term) bool {
		switch t.(type) {
		case rdf.IRI, rdf.Variable:
			return true
		}
		return false
	})

	iriSlot = termSlot("IRI", func(t rdf.Term) bool {
		_, ok := t.(rdf.IRI)
		return ok
	})

	variableSlot = termSlot("variable", func(t rdf.Term) bool {
		_, ok := t.(rdf.Variable)
		return ok
	})

	valuesCellSlot = termSlot("IRI, blank node or literal", rdf.IsValuesCell)

	pathItemSlot = slot{expected: "IRI or property path", accepts: func(n sparql.Node) bool {
		switch x := n.(type) {
		case rdf.IRI:
			return true
		case *sparql.PropertyPath:
			return x != nil
		}
		return false
	}}

	expressionSlot = slot{expected: "expression", accepts: func(n sparql.Node) bool {
		switch n.(type) {
		case rdf.Term, *sparql.Operation, *sparql.FunctionCall, *sparql.Aggregate,
			sparql.Tuple, sparql.Wildcard:
			return present(n)
		case sparql.Pattern:
			return present(n)
		}
		return false
	}}

	patternSlot = slot{expected: "pattern", accepts: func(n sparql.Node) bool {
		_, ok := n.(sparql.Pattern)
		return ok && present(n)
	}}

	quadsSlot = slot{expected: "quads", accepts: func(n sparql.Node) bool {
		_, ok := n.(sparql.Quads)
		return ok && present(n)
	}}

	updateSlot = slot{expected: "update operation", accepts: func(n sparql.Node) bool {
		_, ok := n.(sparql.UpdateOperation)
		return ok && present(n)
	}}

	tripleSlot = slot{expected: "triple", accepts: func(n sparql.Node) bool {
		t, ok := n.(*sparql.Triple)
		return ok && t != nil
	}}

	templateTripleSlot = slot{expected: "triple without property path", accepts: func(n sparql.Node) bool {
		t, ok := n.(*sparql.Triple)
		return ok && t != nil && !hasPath(t)
	}}

	templateQuadsSlot = slot{expected: "quads without property paths", accepts: func(n sparql.Node) bool {
		switch x := n.(type) {
		case *sparql.BGP:
			return x != nil && !slices.ContainsFunc(x.Triples, hasPath)
		case *sparql.GraphQuads:
			return x != nil && !slices.ContainsFunc(x.Triples, hasPath)
		}
		return quadsSlot.accepts(n)
	}}

	groupingSlot = slot{expected: "grouping", accepts: func(n sparql.Node) bool {
		g, ok := n.(*sparql.Grouping)
		return ok && g != nil
	}}

	orderingSlot = slot{expected: "ordering", accepts: func(n sparql.Node) bool {
		o, ok := n.(*sparql.Ordering)
		return ok && o != nil
	}}

	projectionSlot = slot{expected: "variable, variable expression, IRI or wildcard", accepts: func(n sparql.Node) bool {
		switch x := n.(type) {
		case rdf.Variable, rdf.IRI, sparql.Wildcard:
			return true
		case *sparql.VariableExpression:
			return x != nil
		}
		return false
	}}
)

func hasPath(t *sparql.Triple) bool {
	if t == nil {
		return false
	}
	_, ok := t.Predicate.(*sparql.PropertyPath)
	return ok
}

// present reports whether n is a usable node: not nil and not a typed nil
// pointer of a known node kind.
func present(n sparql.Node) bool {
	switch x := n.(type) {
	case nil:
		return false
	case *sparql.Query:
		return x != nil
	case *sparql.Update:
		return x != nil
	case *sparql.InsertDelete:
		return x != nil
	case *sparql.Management:
		return x != nil
	case *sparql.BGP:
		return x != nil
	case *sparql.GroupPattern:
		return x != nil
	case *sparql.GraphPattern:
		return x != nil
	case *sparql.ServicePattern:
		return x != nil
	case *sparql.FilterPattern:
		return x != nil
	case *sparql.BindPattern:
		return x != nil
	case *sparql.ValuesPattern:
		return x != nil
	case *sparql.GraphQuads:
		return x != nil
	case *sparql.Triple:
		return x != nil
	case *sparql.PropertyPath:
		return x != nil
	case *sparql.Operation:
		return x != nil
	case *sparql.FunctionCall:
		return x != nil
	case *sparql.Aggregate:
		return x != nil
	case *sparql.Grouping:
		return x != nil
	case *sparql.Ordering:
		return x != nil
	case *sparql.VariableExpression:
		return x != nil
	case *sparql.Extension:
		return x != nil
	}
	return true
}
