package rdf

import (
	"fmt"
	"strings"
)

// TermType is the discriminant of a Term.
// Values are the termType strings of the JSON AST shape.
type TermType string

const (
	TypeIRI          TermType = "NamedNode"
	TypeLiteral      TermType = "Literal"
	TypeBlank        TermType = "BlankNode"
	TypeVariable     TermType = "Variable"
	TypeDefaultGraph TermType = "DefaultGraph"
	TypeQuad         TermType = "Quad"
)

// Term is a sealed interface over the RDF term kinds.
// Only IRI, Literal, Blank, Variable, DefaultGraph and Quad implement it.
type Term interface {
	TermType() TermType
	Equals(other Term) bool
	Hash() int32
	String() string

	term() // Sealed - only this package implements Term
}

// IRI is a named node.
type IRI struct {
	Value string
}

func (IRI) term() {}

// TermType returns TypeIRI.
func (IRI) TermType() TermType { return TypeIRI }

// Equals reports whether other is an IRI with the same value.
func (i IRI) Equals(other Term) bool {
	o, ok := other.(IRI)
	return ok && o.Value == i.Value
}

// String renders the IRI in angle brackets.
func (i IRI) String() string { return "<" + i.Value + ">" }

// Literal is an RDF literal.
//
// A non-empty Language implies Datatype == rdf:langString. Otherwise the
// datatype defaults to xsd:string. Use the constructors to get this right.
type Literal struct {
	Value    string
	Datatype IRI
	Language string
}

func (Literal) term() {}

// TermType returns TypeLiteral.
func (Literal) TermType() TermType { return TypeLiteral }

// Equals requires the same value, datatype IRI and language.
func (l Literal) Equals(other Term) bool {
	o, ok := other.(Literal)
	return ok && o.Value == l.Value && o.Datatype.Value == l.Datatype.Value && o.Language == l.Language
}

func (l Literal) String() string {
	if l.Language != "" {
		return fmt.Sprintf("%q@%s", l.Value, l.Language)
	}
	if l.Datatype.Value == "" || l.Datatype.Value == XSDString {
		return fmt.Sprintf("%q", l.Value)
	}
	return fmt.Sprintf("%q^^<%s>", l.Value, l.Datatype.Value)
}

// Blank is a blank node.
type Blank struct {
	Value string
}

func (Blank) term() {}

// TermType returns TypeBlank.
func (Blank) TermType() TermType { return TypeBlank }

// Equals reports whether other is a blank node with the same label.
func (b Blank) Equals(other Term) bool {
	o, ok := other.(Blank)
	return ok && o.Value == b.Value
}

func (b Blank) String() string { return "_:" + b.Value }

// Variable is a query variable. Value is the bare name without ? or $.
type Variable struct {
	Value string
}

func (Variable) term() {}

// TermType returns TypeVariable.
func (Variable) TermType() TermType { return TypeVariable }

// Equals reports whether other is a variable with the same name.
func (v Variable) Equals(other Term) bool {
	o, ok := other.(Variable)
	return ok && o.Value == v.Value
}

func (v Variable) String() string { return "?" + v.Value }

// DefaultGraph marks the default graph. All values are equal.
type DefaultGraph struct{}

func (DefaultGraph) term() {}

// TermType returns TypeDefaultGraph.
func (DefaultGraph) TermType() TermType { return TypeDefaultGraph }

// Equals reports whether other is also the default graph.
func (DefaultGraph) Equals(other Term) bool {
	_, ok := other.(DefaultGraph)
	return ok
}

func (DefaultGraph) String() string { return "DEFAULT" }

// Quad is a nested triple term (RDF-star style embedded triple).
//
// Slot restrictions:
//   - Subject, Graph: IRI, Blank, Variable or Quad (Graph may also be DefaultGraph)
//   - Predicate: IRI, Variable or Quad
//   - Object: any term
//
// Construct with NewQuad to have them checked.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

func (Quad) term() {}

// TermType returns TypeQuad.
func (Quad) TermType() TermType { return TypeQuad }

// Equals compares all four slots pointwise.
func (q Quad) Equals(other Term) bool {
	o, ok := other.(Quad)
	if !ok {
		return false
	}
	return termEquals(q.Subject, o.Subject) &&
		termEquals(q.Predicate, o.Predicate) &&
		termEquals(q.Object, o.Object) &&
		termEquals(q.Graph, o.Graph)
}

func (q Quad) String() string {
	parts := []string{termString(q.Subject), termString(q.Predicate), termString(q.Object)}
	if q.Graph != nil && q.Graph.TermType() != TypeDefaultGraph {
		parts = append(parts, termString(q.Graph))
	}
	return "<< " + strings.Join(parts, " ") + " >>"
}

// NewIRI creates an IRI.
func NewIRI(value string) IRI {
	return IRI{Value: value}
}

// NewLiteral creates an xsd:string literal.
func NewLiteral(value string) Literal {
	return Literal{Value: value, Datatype: IRI{Value: XSDString}}
}

// NewLangLiteral creates a language-tagged literal (datatype rdf:langString).
// An empty language falls back to a plain xsd:string literal.
func NewLangLiteral(value, language string) Literal {
	if language == "" {
		return NewLiteral(value)
	}
	return Literal{Value: value, Datatype: IRI{Value: RDFLangString}, Language: language}
}

// NewTypedLiteral creates a literal with an explicit datatype.
// An empty datatype means xsd:string.
func NewTypedLiteral(value string, datatype IRI) Literal {
	if datatype.Value == "" {
		datatype = IRI{Value: XSDString}
	}
	return Literal{Value: value, Datatype: datatype}
}

// NewBlank creates a blank node. A leading "_:" is stripped.
func NewBlank(label string) Blank {
	return Blank{Value: strings.TrimPrefix(label, "_:")}
}

// NewVariable creates a variable, stripping one leading ? or $.
func NewVariable(name string) Variable {
	if strings.HasPrefix(name, "?") || strings.HasPrefix(name, "$") {
		name = name[1:]
	}
	return Variable{Value: name}
}

// NewQuad creates a quad term after checking slot restrictions.
// A nil graph means the default graph.
func NewQuad(subject, predicate, object, graph Term) (Quad, error) {
	if graph == nil {
		graph = DefaultGraph{}
	}
	if !IsSubjectTerm(subject) {
		return Quad{}, fmt.Errorf("quad subject must be IRI, blank node, variable or quad, got %s", describe(subject))
	}
	if !IsPredicateTerm(predicate) {
		return Quad{}, fmt.Errorf("quad predicate must be IRI, variable or quad, got %s", describe(predicate))
	}
	if object == nil {
		return Quad{}, fmt.Errorf("quad object is required")
	}
	if !IsGraphTerm(graph) {
		return Quad{}, fmt.Errorf("quad graph must be IRI, blank node, variable, quad or default graph, got %s", describe(graph))
	}
	return Quad{Subject: subject, Predicate: predicate, Object: object, Graph: graph}, nil
}

// MustQuad is like NewQuad but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQuad(subject, predicate, object, graph Term) Quad {
	q, err := NewQuad(subject, predicate, object, graph)
	if err != nil {
		panic(err)
	}
	return q
}

// IsSubjectTerm reports whether t may appear in a subject slot.
func IsSubjectTerm(t Term) bool {
	switch t.(type) {
	case IRI, Blank, Variable, Quad:
		return true
	default:
		return false
	}
}

// IsPredicateTerm reports whether t may appear in a predicate slot.
func IsPredicateTerm(t Term) bool {
	switch t.(type) {
	case IRI, Variable, Quad:
		return true
	default:
		return false
	}
}

// IsGraphTerm reports whether t may appear in the graph slot of a quad.
func IsGraphTerm(t Term) bool {
	switch t.(type) {
	case IRI, Blank, Variable, Quad, DefaultGraph:
		return true
	default:
		return false
	}
}

// IsValuesCell reports whether t may be bound in a VALUES row.
func IsValuesCell(t Term) bool {
	switch t.(type) {
	case IRI, Blank, Literal:
		return true
	default:
		return false
	}
}

func termEquals(a, b Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

func termString(t Term) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func describe(t Term) string {
	if t == nil {
		return "nil"
	}
	return string(t.TermType())
}
