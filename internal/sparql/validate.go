package sparql

import (
	"fmt"

	"github.com/roach88/querybinder/internal/rdf"
)

// Error codes shared by Validate and the rewrite engine.
const (
	CodeStructuralMismatch = "STRUCTURAL_MISMATCH" // a node violates its slot's kind restriction
	CodeUnknownNodeKind    = "UNKNOWN_NODE_KIND"   // discriminant not recognized
	CodeMalformedValuesRow = "MALFORMED_VALUES_ROW"
	CodeMalformedPath      = "MALFORMED_PATH"
)

// ValidationError describes one invariant violation in an input tree.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a tree against the input invariants and returns every
// violation found (does not fail-fast). Unknown node kinds are reported
// with CodeUnknownNodeKind; callers that tolerate extensions filter them.
//
// Validate is a pure function with no side effects.
func Validate(node Node) []ValidationError {
	v := &validator{}
	v.node(node, "root")
	return v.errs
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) addErr(err error) {
	if verr, ok := err.(*ValidationError); ok {
		v.errs = append(v.errs, *verr)
	}
}

func (v *validator) node(n Node, field string) {
	switch node := n.(type) {
	case *Query:
		v.query(node, field)
	case *Update:
		for i, op := range node.Updates {
			v.updateOp(op, fmt.Sprintf("%s.updates[%d]", field, i))
		}
	default:
		v.pattern(n, field)
	}
}

func (v *validator) query(q *Query, field string) {
	if q == nil {
		v.add(field, CodeStructuralMismatch, "query is nil")
		return
	}
	v.dataset(q.From, field+".from")
	v.patterns(q.Where, field+".where")
	v.rows(q.Values, field+".values")
	for i, g := range q.Group {
		f := fmt.Sprintf("%s.group[%d]", field, i)
		if g == nil {
			v.add(f, CodeStructuralMismatch, "grouping is nil")
			continue
		}
		v.expression(g.Expression, f+".expression")
		if g.Variable != nil {
			v.variable(g.Variable, f+".variable")
		}
	}
	for i, e := range q.Having {
		v.expression(e, fmt.Sprintf("%s.having[%d]", field, i))
	}
	for i, o := range q.Order {
		f := fmt.Sprintf("%s.order[%d]", field, i)
		if o == nil {
			v.add(f, CodeStructuralMismatch, "ordering is nil")
			continue
		}
		v.expression(o.Expression, f+".expression")
	}
	for i, p := range q.Variables {
		f := fmt.Sprintf("%s.variables[%d]", field, i)
		switch proj := p.(type) {
		case rdf.Variable, Wildcard:
		case rdf.IRI:
			if q.QueryType != QueryDescribe {
				v.add(f, CodeStructuralMismatch, "only DESCRIBE may project an IRI")
			}
		case *VariableExpression:
			v.expression(proj.Expression, f+".expression")
			v.variable(proj.Variable, f+".variable")
		default:
			v.add(f, CodeStructuralMismatch, "projection must be a variable, expression or *, got %s", Describe(p))
		}
	}
	v.triples(q.Template, field+".template", true)
}

func (v *validator) updateOp(op UpdateOperation, field string) {
	switch u := op.(type) {
	case *InsertDelete:
		v.dataset(u.Using, field+".using")
		v.quads(u.Delete, field+".delete")
		v.quads(u.Insert, field+".insert")
		v.patterns(u.Where, field+".where")
	case *Management:
	case *Extension:
		v.add(field, CodeUnknownNodeKind, "unknown update type %q", u.Type)
	default:
		v.add(field, CodeUnknownNodeKind, "unknown update operation %s", Describe(op))
	}
}

func (v *validator) dataset(d *Dataset, field string) {
	if d == nil {
		return
	}
	for i, t := range d.Default {
		if _, ok := t.(rdf.IRI); !ok {
			v.add(fmt.Sprintf("%s.default[%d]", field, i), CodeStructuralMismatch, "dataset graph must be an IRI, got %s", Describe(t))
		}
	}
	for i, t := range d.Named {
		if _, ok := t.(rdf.IRI); !ok {
			v.add(fmt.Sprintf("%s.named[%d]", field, i), CodeStructuralMismatch, "dataset graph must be an IRI, got %s", Describe(t))
		}
	}
}

func (v *validator) quads(qs []Quads, field string) {
	for i, q := range qs {
		f := fmt.Sprintf("%s[%d]", field, i)
		switch block := q.(type) {
		case *BGP:
			v.triples(block.Triples, f+".triples", true)
		case *GraphQuads:
			v.triples(block.Triples, f+".triples", true)
		case *Extension:
			v.add(f, CodeUnknownNodeKind, "unknown quads type %q", block.Type)
		default:
			v.add(f, CodeUnknownNodeKind, "unknown quads block %s", Describe(q))
		}
	}
}

func (v *validator) patterns(ps []Pattern, field string) {
	for i, p := range ps {
		v.pattern(p, fmt.Sprintf("%s[%d]", field, i))
	}
}

func (v *validator) pattern(n Node, field string) {
	switch p := n.(type) {
	case *Query:
		v.query(p, field)
	case *BGP:
		v.triples(p.Triples, field+".triples", false)
	case *GroupPattern:
		v.patterns(p.Patterns, field+".patterns")
	case *GraphPattern:
		v.patterns(p.Patterns, field+".patterns")
	case *ServicePattern:
		v.patterns(p.Patterns, field+".patterns")
	case *FilterPattern:
		v.expression(p.Expression, field+".expression")
	case *BindPattern:
		v.expression(p.Expression, field+".expression")
		v.variable(p.Variable, field+".variable")
	case *ValuesPattern:
		v.rows(p.Values, field+".values")
	case *Extension:
		v.add(field, CodeUnknownNodeKind, "unknown pattern type %q", p.Type)
	case nil:
		v.add(field, CodeStructuralMismatch, "pattern is nil")
	default:
		v.add(field, CodeUnknownNodeKind, "unknown node %s", Describe(n))
	}
}

// triples checks a triple list. Template triples (CONSTRUCT templates,
// INSERT and DELETE blocks) take no property paths.
func (v *validator) triples(ts []*Triple, field string, template bool) {
	for i, t := range ts {
		v.triple(t, fmt.Sprintf("%s[%d]", field, i), template)
	}
}

func (v *validator) triple(t *Triple, field string, template bool) {
	if t == nil {
		v.add(field, CodeStructuralMismatch, "triple is nil")
		return
	}
	if !rdf.IsSubjectTerm(t.Subject) {
		v.add(field+".subject", CodeStructuralMismatch, "subject must be IRI, blank node, variable or quad, got %s", Describe(t.Subject))
	}
	switch p := t.Predicate.(type) {
	case *PropertyPath:
		if template {
			v.add(field+".predicate", CodeStructuralMismatch, "template predicate must be IRI, variable or quad, got %s", Describe(p))
			break
		}
		if err := checkPath(p, field+".predicate"); err != nil {
			v.addErr(err)
		}
	case rdf.Term:
		if !rdf.IsPredicateTerm(p) {
			v.add(field+".predicate", CodeStructuralMismatch, "predicate must be IRI, variable, quad or path, got %s", Describe(p))
		}
	default:
		v.add(field+".predicate", CodeStructuralMismatch, "predicate must be IRI, variable, quad or path, got %s", Describe(p))
	}
	if t.Object == nil {
		v.add(field+".object", CodeStructuralMismatch, "object is nil")
	}
}

func (v *validator) rows(rows []ValuesRow, field string) {
	for i, row := range rows {
		if err := checkValuesRow(row, fmt.Sprintf("%s[%d]", field, i)); err != nil {
			v.addErr(err)
		}
	}
}

func (v *validator) variable(t rdf.Term, field string) {
	if _, ok := t.(rdf.Variable); !ok {
		v.add(field, CodeStructuralMismatch, "expected a variable, got %s", Describe(t))
	}
}

func (v *validator) expression(e Expression, field string) {
	switch ex := e.(type) {
	case rdf.Term:
	case *Operation:
		for i, arg := range ex.Args {
			v.expression(arg, fmt.Sprintf("%s.args[%d]", field, i))
		}
	case *FunctionCall:
		for i, arg := range ex.Args {
			v.expression(arg, fmt.Sprintf("%s.args[%d]", field, i))
		}
	case *Aggregate:
		v.expression(ex.Expression, field+".expression")
	case Tuple:
		for i, arg := range ex {
			v.expression(arg, fmt.Sprintf("%s[%d]", field, i))
		}
	case Wildcard:
		// COUNT(*)
	case Pattern:
		v.pattern(ex, field)
	case nil:
		v.add(field, CodeStructuralMismatch, "expression is nil")
	default:
		v.add(field, CodeUnknownNodeKind, "unknown expression %s", Describe(e))
	}
}

// Describe names the kind of a node for diagnostics.
func Describe(n Node) string {
	switch node := n.(type) {
	case nil:
		return "nil"
	case rdf.Term:
		return string(node.TermType())
	case *Query:
		return "query"
	case *Update:
		return "update"
	case *InsertDelete:
		return "update " + node.UpdateType
	case *Management:
		return "update " + node.Type
	case *GraphQuads:
		return "quads graph"
	case Pattern:
		return "pattern " + string(node.PatternType())
	case *Triple:
		return "triple"
	case *PropertyPath:
		return "path " + string(node.PathType)
	case *Operation:
		return "operation"
	case *FunctionCall:
		return "functionCall"
	case *Aggregate:
		return "aggregate"
	case Tuple:
		return "tuple"
	case *Grouping:
		return "grouping"
	case *Ordering:
		return "ordering"
	case *VariableExpression:
		return "variable expression"
	case Wildcard:
		return "wildcard"
	default:
		return fmt.Sprintf("%T", n)
	}
}
