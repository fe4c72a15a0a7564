package testutil

import (
	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// Short constructors for building syntax trees in tests.
//
//	q := Select([]string{"s"}, BGP(T(Var("s"), IRI("http://ex/p"), Lit("x"))))

// Var returns a variable term.
func Var(name string) rdf.Variable { return rdf.NewVariable(name) }

// IRI returns a named node.
func IRI(value string) rdf.IRI { return rdf.NewIRI(value) }

// Lit returns an xsd:string literal.
func Lit(value string) rdf.Literal { return rdf.NewLiteral(value) }

// LangLit returns a language-tagged literal.
func LangLit(value, lang string) rdf.Literal { return rdf.NewLangLiteral(value, lang) }

// Blank returns a blank node.
func Blank(label string) rdf.Blank { return rdf.NewBlank(label) }

// T returns a triple. p may be a term or a property path.
func T(s rdf.Term, p sparql.Node, o rdf.Term) *sparql.Triple {
	return &sparql.Triple{Subject: s, Predicate: p, Object: o}
}

// BGP returns a basic graph pattern.
func BGP(triples ...*sparql.Triple) *sparql.BGP {
	return &sparql.BGP{Triples: triples}
}

// Group returns a group pattern of the given type (group, optional, union, minus).
func Group(typ sparql.PatternType, patterns ...sparql.Pattern) *sparql.GroupPattern {
	return &sparql.GroupPattern{Type: typ, Patterns: patterns}
}

// Filter returns a FILTER pattern.
func Filter(expr sparql.Expression) *sparql.FilterPattern {
	return &sparql.FilterPattern{Expression: expr}
}

// Bind returns a BIND pattern.
func Bind(expr sparql.Expression, variable string) *sparql.BindPattern {
	return &sparql.BindPattern{Expression: expr, Variable: Var(variable)}
}

// Op returns an operation expression.
func Op(operator string, args ...sparql.Expression) *sparql.Operation {
	return &sparql.Operation{Operator: operator, Args: args}
}

// Path returns a property path.
func Path(typ sparql.PathType, items ...sparql.Node) *sparql.PropertyPath {
	return &sparql.PropertyPath{PathType: typ, Items: items}
}

// Row returns a VALUES row. Pairs alternate name and term; a nil term is
// an unbound cell.
func Row(pairs ...any) sparql.ValuesRow {
	row := make(sparql.ValuesRow, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		if pairs[i+1] == nil {
			row[name] = nil
			continue
		}
		row[name] = pairs[i+1].(rdf.Term)
	}
	return row
}

// Select returns a SELECT query projecting vars. An empty vars list is
// SELECT *.
func Select(vars []string, where ...sparql.Pattern) *sparql.Query {
	q := &sparql.Query{
		QueryType: sparql.QuerySelect,
		Prefixes:  sparql.NewPrefixes(sparql.DefaultPrefixSet()),
		Where:     where,
	}
	if len(vars) == 0 {
		q.Variables = []sparql.Node{sparql.Wildcard{}}
	}
	for _, v := range vars {
		q.Variables = append(q.Variables, Var(v))
	}
	return q
}
