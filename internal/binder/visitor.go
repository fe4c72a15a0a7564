package binder

import (
	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// Visitor has one hook per node kind the walker recognises.
//
// Embed Base to get NoChange defaults and override only the hooks a
// strategy needs. Hooks may read Walker.Member and Walker.Field to see
// where they are.
type Visitor interface {
	VisitQuery(w *Walker, q *sparql.Query) (Replacement, error)
	VisitUpdate(w *Walker, u *sparql.Update) (Replacement, error)
	VisitInsertDelete(w *Walker, op *sparql.InsertDelete) (Replacement, error)
	VisitManagement(w *Walker, op *sparql.Management) (Replacement, error)

	VisitBGP(w *Walker, bgp *sparql.BGP) (Replacement, error)
	VisitGroup(w *Walker, g *sparql.GroupPattern) (Replacement, error)
	VisitGraph(w *Walker, g *sparql.GraphPattern) (Replacement, error)
	VisitGraphQuads(w *Walker, g *sparql.GraphQuads) (Replacement, error)
	VisitService(w *Walker, s *sparql.ServicePattern) (Replacement, error)
	VisitFilter(w *Walker, f *sparql.FilterPattern) (Replacement, error)
	VisitBind(w *Walker, b *sparql.BindPattern) (Replacement, error)

	// VisitValues sees the rows of a query VALUES clause or a VALUES
	// pattern. A replacement must be a []sparql.ValuesRow.
	VisitValues(w *Walker, rows []sparql.ValuesRow) (Replacement, error)

	VisitTriple(w *Walker, t *sparql.Triple) (Replacement, error)
	VisitPath(w *Walker, p *sparql.PropertyPath) (Replacement, error)

	VisitOperation(w *Walker, op *sparql.Operation) (Replacement, error)
	VisitFunctionCall(w *Walker, fn *sparql.FunctionCall) (Replacement, error)
	VisitAggregate(w *Walker, agg *sparql.Aggregate) (Replacement, error)

	VisitIRI(w *Walker, iri rdf.IRI) (Replacement, error)
	VisitLiteral(w *Walker, lit rdf.Literal) (Replacement, error)
	VisitVariable(w *Walker, v rdf.Variable) (Replacement, error)
	VisitBlank(w *Walker, b rdf.Blank) (Replacement, error)
	VisitQuad(w *Walker, q rdf.Quad) (Replacement, error)
}

// Base implements every Visitor hook as NoChange.
type Base struct{}

var _ Visitor = Base{}

func (Base) VisitQuery(*Walker, *sparql.Query) (Replacement, error) { return NoChange, nil }

func (Base) VisitUpdate(*Walker, *sparql.Update) (Replacement, error) { return NoChange, nil }

func (Base) VisitInsertDelete(*Walker, *sparql.InsertDelete) (Replacement, error) {
	return NoChange, nil
}

func (Base) VisitManagement(*Walker, *sparql.Management) (Replacement, error) {
	return NoChange, nil
}

func (Base) VisitBGP(*Walker, *sparql.BGP) (Replacement, error) { return NoChange, nil }

func (Base) VisitGroup(*Walker, *sparql.GroupPattern) (Replacement, error) { return NoChange, nil }

func (Base) VisitGraph(*Walker, *sparql.GraphPattern) (Replacement, error) { return NoChange, nil }

func (Base) VisitGraphQuads(*Walker, *sparql.GraphQuads) (Replacement, error) {
	return NoChange, nil
}

func (Base) VisitService(*Walker, *sparql.ServicePattern) (Replacement, error) {
	return NoChange, nil
}

func (Base) VisitFilter(*Walker, *sparql.FilterPattern) (Replacement, error) { return NoChange, nil }

func (Base) VisitBind(*Walker, *sparql.BindPattern) (Replacement, error) { return NoChange, nil }

func (Base) VisitValues(*Walker, []sparql.ValuesRow) (Replacement, error) { return NoChange, nil }

func (Base) VisitTriple(*Walker, *sparql.Triple) (Replacement, error) { return NoChange, nil }

func (Base) VisitPath(*Walker, *sparql.PropertyPath) (Replacement, error) { return NoChange, nil }

func (Base) VisitOperation(*Walker, *sparql.Operation) (Replacement, error) { return NoChange, nil }

func (Base) VisitFunctionCall(*Walker, *sparql.FunctionCall) (Replacement, error) {
	return NoChange, nil
}

func (Base) VisitAggregate(*Walker, *sparql.Aggregate) (Replacement, error) { return NoChange, nil }

func (Base) VisitIRI(*Walker, rdf.IRI) (Replacement, error) { return NoChange, nil }

func (Base) VisitLiteral(*Walker, rdf.Literal) (Replacement, error) { return NoChange, nil }

func (Base) VisitVariable(*Walker, rdf.Variable) (Replacement, error) { return NoChange, nil }

func (Base) VisitBlank(*Walker, rdf.Blank) (Replacement, error) { return NoChange, nil }

func (Base) VisitQuad(*Walker, rdf.Quad) (Replacement, error) { return NoChange, nil }
