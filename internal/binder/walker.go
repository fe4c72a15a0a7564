package binder

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// Walker drives a Visitor over a tree.
//
// A Walker is single-use state for one pass: it tracks the current member
// and field path, checks replacements, and records what it did.
// Not safe for concurrent use.
type Walker struct {
	visitor Visitor
	logger  *slog.Logger
	strict  bool
	sink    *Report

	member    Member
	fields    []string
	report    Report
	template  int             // > 0 inside a CONSTRUCT template or INSERT/DELETE block
	expanding map[string]bool // placeholders whose expansion is being walked
}

// Skipped records a node the walker left alone because it did not
// recognise its kind.
type Skipped struct {
	Field string `json:"field"`
	Kind  string `json:"kind"`
}

// Report summarises one or more walks.
type Report struct {
	Replaced int       `json:"replaced"`
	Spliced  int       `json:"spliced"`
	Skipped  []Skipped `json:"skipped,omitempty"`
}

func (r *Report) merge(o Report) {
	r.Replaced += o.Replaced
	r.Spliced += o.Spliced
	r.Skipped = append(r.Skipped, o.Skipped...)
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the logger for replacement and skip records.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithStrict makes unknown node kinds fail the walk with
// UNKNOWN_NODE_KIND instead of being skipped.
func WithStrict() Option {
	return func(w *Walker) {
		w.strict = true
	}
}

// WithReport adds the walk's counts and skipped nodes to r when the walk
// finishes, successful or not. Chained passes share one report this way.
func WithReport(r *Report) Option {
	return func(w *Walker) {
		w.sink = r
	}
}

// NewWalker creates a Walker for v.
func NewWalker(v Visitor, opts ...Option) *Walker {
	w := &Walker{
		visitor: v,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk runs v over node in place and returns the (possibly replaced) root.
func Walk(v Visitor, node sparql.Node, opts ...Option) (sparql.Node, error) {
	return NewWalker(v, opts...).Walk(node)
}

// Walk runs the walker's visitor over node in place.
// On error the tree may be partly rewritten; use Apply to keep the input.
func (w *Walker) Walk(node sparql.Node) (sparql.Node, error) {
	w.member = MemberRoot
	w.fields = []string{"root"}
	w.report = Report{}
	w.template = 0
	w.expanding = nil

	res, err := w.visit(node, anySlot, false)
	if w.sink != nil {
		w.sink.merge(w.report)
	}
	if err != nil {
		return nil, err
	}

	w.logger.Debug("walk complete",
		"root", sparql.Describe(res.node),
		"replaced", w.report.Replaced,
		"spliced", w.report.Spliced,
		"skipped", len(w.report.Skipped))
	return res.node, nil
}

// Member returns the structural member the walker is in.
func (w *Walker) Member() Member {
	return w.member
}

// Field returns the path of the node being visited,
// e.g. root.where[0].triples[1].predicate.
func (w *Walker) Field() string {
	return strings.Join(w.fields, "")
}

// Logger returns the walker's logger.
func (w *Walker) Logger() *slog.Logger {
	return w.logger
}

// Skipped returns the nodes skipped so far.
func (w *Walker) Skipped() []Skipped {
	return slices.Clone(w.report.Skipped)
}

// Report returns the counts for the current walk.
func (w *Walker) Report() Report {
	r := w.report
	r.Skipped = slices.Clone(r.Skipped)
	return r
}

// Descend walks the children of n without calling a hook for n itself.
// Hooks use it to have a replacement walked before returning it.
func (w *Walker) Descend(n sparql.Node) (sparql.Node, error) {
	return w.children(n)
}

// WalkPatterns walks a pattern list in the current member, applying
// replacements and splices to the returned slice.
func (w *Walker) WalkPatterns(patterns []sparql.Pattern) ([]sparql.Pattern, error) {
	return walkList(w, w.member, patternSlot, patterns)
}

// WalkExpansion walks patterns spliced in for the placeholder name. While
// it runs, Expanding(name) reports true.
func (w *Walker) WalkExpansion(name string, patterns []sparql.Pattern) ([]sparql.Pattern, error) {
	if w.expanding == nil {
		w.expanding = make(map[string]bool)
	}
	w.expanding[name] = true
	defer delete(w.expanding, name)
	return w.WalkPatterns(patterns)
}

// Expanding reports whether the expansion of placeholder name is being
// walked.
func (w *Walker) Expanding(name string) bool {
	return w.expanding[name]
}

type result struct {
	node    sparql.Node
	splice  []sparql.Node
	spliced bool
}

func (w *Walker) push(m Member) Member {
	prev := w.member
	w.member = m
	w.fields = append(w.fields, "."+string(m))
	return prev
}

func (w *Walker) pop(prev Member) {
	w.member = prev
	w.fields = w.fields[:len(w.fields)-1]
}

func (w *Walker) pushField(s string) {
	w.fields = append(w.fields, s)
}

func (w *Walker) popField() {
	w.fields = w.fields[:len(w.fields)-1]
}

func (w *Walker) mismatch(s slot, got sparql.Node) error {
	return NewStructuralMismatch(w.Field(), w.member, s.expected, sparql.Describe(got))
}

// visit handles the node in one slot: hook, then either descend or check
// and install the replacement.
func (w *Walker) visit(n sparql.Node, s slot, inList bool) (result, error) {
	if !present(n) {
		return result{}, w.mismatch(s, n)
	}
	if p, ok := n.(*sparql.PropertyPath); ok {
		if err := sparql.CheckPath(p); err != nil {
			return result{}, fromValidation(err, w.Field(), w.member)
		}
	}

	r, known, err := w.hook(n)
	if err != nil {
		var be *BindError
		if errors.As(err, &be) {
			return result{}, err
		}
		return result{}, fmt.Errorf("%s: %w", w.Field(), err)
	}
	if !known {
		if w.strict {
			return result{}, NewUnknownNodeKind(w.Field(), w.member, sparql.Describe(n))
		}
		w.skip(n)
		return result{node: n}, nil
	}

	switch r.kind {
	case replace:
		if !s.accepts(r.node) {
			return result{}, w.mismatch(s, r.node)
		}
		w.report.Replaced++
		w.logger.Debug("replaced node",
			"field", w.Field(),
			"from", sparql.Describe(n),
			"to", sparql.Describe(r.node))
		return result{node: r.node}, nil

	case splice:
		if !inList {
			return result{}, NewStructuralMismatch(w.Field(), w.member,
				"single "+s.expected, fmt.Sprintf("splice of %d nodes", len(r.nodes)))
		}
		for i, x := range r.nodes {
			if !s.accepts(x) {
				return result{}, NewStructuralMismatch(w.Field(), w.member,
					s.expected, fmt.Sprintf("%s at splice position %d", sparql.Describe(x), i))
			}
		}
		w.report.Spliced++
		w.logger.Debug("spliced node",
			"field", w.Field(),
			"from", sparql.Describe(n),
			"count", len(r.nodes))
		return result{splice: r.nodes, spliced: true}, nil
	}

	out, err := w.children(n)
	if err != nil {
		return result{}, err
	}
	return result{node: out}, nil
}

func (w *Walker) skip(n sparql.Node) {
	entry := Skipped{Field: w.Field(), Kind: sparql.Describe(n)}
	w.report.Skipped = append(w.report.Skipped, entry)
	w.logger.Warn("skipping unknown node kind",
		"code", ErrCodeUnknownNodeKind,
		"field", entry.Field,
		"kind", entry.Kind)
}

// hook dispatches n to its Visitor hook. known is false for node kinds the
// walker cannot traverse.
func (w *Walker) hook(n sparql.Node) (r Replacement, known bool, err error) {
	v := w.visitor
	switch x := n.(type) {
	case *sparql.Query:
		r, err = v.VisitQuery(w, x)
	case *sparql.Update:
		r, err = v.VisitUpdate(w, x)
	case *sparql.InsertDelete:
		r, err = v.VisitInsertDelete(w, x)
	case *sparql.Management:
		r, err = v.VisitManagement(w, x)
	case *sparql.BGP:
		r, err = v.VisitBGP(w, x)
	case *sparql.GroupPattern:
		r, err = v.VisitGroup(w, x)
	case *sparql.GraphPattern:
		r, err = v.VisitGraph(w, x)
	case *sparql.GraphQuads:
		r, err = v.VisitGraphQuads(w, x)
	case *sparql.ServicePattern:
		r, err = v.VisitService(w, x)
	case *sparql.FilterPattern:
		r, err = v.VisitFilter(w, x)
	case *sparql.BindPattern:
		r, err = v.VisitBind(w, x)
	case *sparql.Triple:
		r, err = v.VisitTriple(w, x)
	case *sparql.PropertyPath:
		r, err = v.VisitPath(w, x)
	case *sparql.Operation:
		r, err = v.VisitOperation(w, x)
	case *sparql.FunctionCall:
		r, err = v.VisitFunctionCall(w, x)
	case *sparql.Aggregate:
		r, err = v.VisitAggregate(w, x)
	case rdf.IRI:
		r, err = v.VisitIRI(w, x)
	case rdf.Literal:
		r, err = v.VisitLiteral(w, x)
	case rdf.Variable:
		r, err = v.VisitVariable(w, x)
	case rdf.Blank:
		r, err = v.VisitBlank(w, x)
	case rdf.Quad:
		r, err = v.VisitQuad(w, x)
	case *sparql.ValuesPattern, rdf.DefaultGraph, sparql.Tuple, sparql.Wildcard,
		*sparql.Grouping, *sparql.Ordering, *sparql.VariableExpression:
		// No hook; the walker descends.
	default:
		return NoChange, false, nil
	}
	return r, true, err
}

// children walks the members of n in traversal order. Pointer nodes are
// updated in place; value nodes (tuples, quad terms) come back rebuilt.
func (w *Walker) children(n sparql.Node) (sparql.Node, error) {
	var err error
	switch x := n.(type) {
	case *sparql.Query:
		return x, w.query(x)

	case *sparql.Update:
		x.Updates, err = walkList(w, MemberUpdates, updateSlot, x.Updates)
		return x, err

	case *sparql.InsertDelete:
		return x, w.insertDelete(x)

	case *sparql.Management:
		for _, ref := range []struct {
			member Member
			ref    *sparql.GraphRef
		}{{MemberSource, x.Source}, {MemberDestination, x.Destination}, {MemberGraph, x.Graph}} {
			if ref.ref == nil || ref.ref.Name == nil {
				continue
			}
			if ref.ref.Name, err = walkOne(w, ref.member, iriSlot, ref.ref.Name); err != nil {
				return x, err
			}
		}
		return x, nil

	case *sparql.BGP:
		x.Triples, err = walkList(w, MemberTriples, w.currentTripleSlot(), x.Triples)
		return x, err

	case *sparql.GraphQuads:
		if x.Name, err = walkOne(w, MemberName, graphNameSlot, x.Name); err != nil {
			return x, err
		}
		x.Triples, err = walkList(w, MemberTriples, w.currentTripleSlot(), x.Triples)
		return x, err

	case *sparql.GroupPattern:
		x.Patterns, err = walkList(w, MemberPatterns, patternSlot, x.Patterns)
		return x, err

	case *sparql.GraphPattern:
		if x.Name, err = walkOne(w, MemberName, graphNameSlot, x.Name); err != nil {
			return x, err
		}
		x.Patterns, err = walkList(w, MemberPatterns, patternSlot, x.Patterns)
		return x, err

	case *sparql.ServicePattern:
		if x.Name, err = walkOne(w, MemberName, graphNameSlot, x.Name); err != nil {
			return x, err
		}
		x.Patterns, err = walkList(w, MemberPatterns, patternSlot, x.Patterns)
		return x, err

	case *sparql.FilterPattern:
		x.Expression, err = walkOne(w, MemberExpression, expressionSlot, x.Expression)
		return x, err

	case *sparql.BindPattern:
		if x.Expression, err = walkOne(w, MemberExpression, expressionSlot, x.Expression); err != nil {
			return x, err
		}
		x.Variable, err = walkOne(w, MemberVariable, variableSlot, x.Variable)
		return x, err

	case *sparql.ValuesPattern:
		x.Values, err = w.values(x.Values)
		return x, err

	case *sparql.Triple:
		if x.Subject, err = walkOne(w, MemberSubject, subjectSlot, x.Subject); err != nil {
			return x, err
		}
		if x.Predicate, err = walkOne(w, MemberPredicate, w.currentPredicateSlot(), x.Predicate); err != nil {
			return x, err
		}
		x.Object, err = walkOne(w, MemberObject, objectSlot, x.Object)
		return x, err

	case *sparql.PropertyPath:
		x.Items, err = walkList(w, MemberItems, pathItemSlot, x.Items)
		return x, err

	case *sparql.Operation:
		x.Args, err = walkList(w, MemberArgs, expressionSlot, x.Args)
		return x, err

	case *sparql.FunctionCall:
		if x.Function, err = walkOne(w, MemberFunction, iriSlot, x.Function); err != nil {
			return x, err
		}
		x.Args, err = walkList(w, MemberArgs, expressionSlot, x.Args)
		return x, err

	case *sparql.Aggregate:
		x.Expression, err = walkOne(w, MemberExpression, expressionSlot, x.Expression)
		return x, err

	case sparql.Tuple:
		items, err := walkList(w, MemberArgs, expressionSlot, []sparql.Expression(x))
		return sparql.Tuple(items), err

	case *sparql.Grouping:
		if x.Expression, err = walkOne(w, MemberExpression, expressionSlot, x.Expression); err != nil {
			return x, err
		}
		if x.Variable != nil {
			x.Variable, err = walkOne(w, MemberVariable, variableSlot, x.Variable)
		}
		return x, err

	case *sparql.Ordering:
		x.Expression, err = walkOne(w, MemberExpression, expressionSlot, x.Expression)
		return x, err

	case *sparql.VariableExpression:
		if x.Expression, err = walkOne(w, MemberExpression, expressionSlot, x.Expression); err != nil {
			return x, err
		}
		x.Variable, err = walkOne(w, MemberVariable, variableSlot, x.Variable)
		return x, err

	case rdf.Quad:
		return w.quad(x)
	}
	return n, nil
}

func (w *Walker) query(q *sparql.Query) error {
	var err error
	if q.From != nil {
		if err = w.dataset(MemberFrom, q.From); err != nil {
			return err
		}
	}
	if q.Where, err = walkList(w, MemberWhere, patternSlot, q.Where); err != nil {
		return err
	}
	if q.Values, err = w.values(q.Values); err != nil {
		return err
	}
	if q.Group, err = walkList(w, MemberGroup, groupingSlot, q.Group); err != nil {
		return err
	}
	if q.Having, err = walkList(w, MemberHaving, expressionSlot, q.Having); err != nil {
		return err
	}
	if q.Order, err = walkList(w, MemberOrder, orderingSlot, q.Order); err != nil {
		return err
	}
	if q.Variables, err = walkList(w, MemberVariables, projectionSlot, q.Variables); err != nil {
		return err
	}
	w.template++
	defer func() { w.template-- }()
	q.Template, err = walkList(w, MemberTemplate, templateTripleSlot, q.Template)
	return err
}

func (w *Walker) insertDelete(op *sparql.InsertDelete) error {
	var err error
	if op.Graph != nil {
		if op.Graph, err = walkOne(w, MemberGraph, graphNameSlot, op.Graph); err != nil {
			return err
		}
	}
	if op.Using != nil {
		if err = w.dataset(MemberUsing, op.Using); err != nil {
			return err
		}
	}
	w.template++
	op.Delete, err = walkList(w, MemberDelete, templateQuadsSlot, op.Delete)
	if err == nil {
		op.Insert, err = walkList(w, MemberInsert, templateQuadsSlot, op.Insert)
	}
	w.template--
	if err != nil {
		return err
	}
	op.Where, err = walkList(w, MemberWhere, patternSlot, op.Where)
	return err
}

func (w *Walker) currentTripleSlot() slot {
	if w.template > 0 {
		return templateTripleSlot
	}
	return tripleSlot
}

func (w *Walker) currentPredicateSlot() slot {
	if w.template > 0 {
		return templatePredicateSlot
	}
	return predicateSlot
}

func (w *Walker) dataset(m Member, d *sparql.Dataset) error {
	prev := w.push(m)
	defer w.pop(prev)

	var err error
	if d.Default, err = walkList(w, MemberDefault, iriSlot, d.Default); err != nil {
		return err
	}
	d.Named, err = walkList(w, MemberNamed, iriSlot, d.Named)
	return err
}

// values checks every row, offers the rows to the values hook, and then
// visits the cells row by row in sorted key order.
func (w *Walker) values(rows []sparql.ValuesRow) ([]sparql.ValuesRow, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	prev := w.push(MemberValues)
	defer w.pop(prev)

	for i, row := range rows {
		if err := sparql.CheckValuesRow(row); err != nil {
			return rows, fromValidation(err, w.Field()+"["+strconv.Itoa(i)+"]", w.member)
		}
	}

	r, err := w.visitor.VisitValues(w, rows)
	if err != nil {
		var be *BindError
		if errors.As(err, &be) {
			return rows, err
		}
		return rows, fmt.Errorf("%s: %w", w.Field(), err)
	}
	switch r.kind {
	case replace:
		out, ok := r.node.([]sparql.ValuesRow)
		if !ok {
			return rows, NewStructuralMismatch(w.Field(), w.member, "VALUES rows", sparql.Describe(r.node))
		}
		for i, row := range out {
			if err := sparql.CheckValuesRow(row); err != nil {
				return rows, NewStructuralMismatch(w.Field()+"["+strconv.Itoa(i)+"]", w.member,
					"VALUES row", err.Error())
			}
		}
		w.report.Replaced++
		w.logger.Debug("replaced VALUES rows", "field", w.Field(), "rows", len(out))
		return out, nil
	case splice:
		return rows, NewStructuralMismatch(w.Field(), w.member, "VALUES rows", "splice")
	}

	for i, row := range rows {
		w.pushField("[" + strconv.Itoa(i) + "]")
		for _, key := range row.Keys() {
			cell := row[key]
			if cell == nil {
				continue
			}
			w.pushField("." + key)
			res, err := w.visit(cell, valuesCellSlot, false)
			w.popField()
			if err != nil {
				w.popField()
				return rows, err
			}
			row[key] = res.node.(rdf.Term)
		}
		w.popField()
	}
	return rows, nil
}

func (w *Walker) quad(q rdf.Quad) (sparql.Node, error) {
	var err error
	if q.Subject, err = walkOne(w, MemberSubject, subjectSlot, q.Subject); err != nil {
		return q, err
	}
	if q.Predicate, err = walkOne(w, MemberPredicate, quadPredicateSlot, q.Predicate); err != nil {
		return q, err
	}
	if q.Object, err = walkOne(w, MemberObject, objectSlot, q.Object); err != nil {
		return q, err
	}
	if q.Graph != nil {
		q.Graph, err = walkOne(w, MemberGraph, quadGraphSlot, q.Graph)
	}
	return q, err
}

// walkOne visits a single-node slot.
func walkOne[T sparql.Node](w *Walker, m Member, s slot, n T) (T, error) {
	prev := w.push(m)
	defer w.pop(prev)

	res, err := w.visit(n, s, false)
	if err != nil {
		return n, err
	}
	return res.node.(T), nil
}

// walkList visits each element of a list slot. Replacements are installed
// at i; a splice replaces element i and the walk resumes after the
// spliced nodes.
func walkList[T sparql.Node](w *Walker, m Member, s slot, list []T) ([]T, error) {
	if len(list) == 0 {
		return list, nil
	}
	prev := w.push(m)
	defer w.pop(prev)

	for i := 0; i < len(list); {
		w.pushField("[" + strconv.Itoa(i) + "]")
		res, err := w.visit(list[i], s, true)
		w.popField()
		if err != nil {
			return list, err
		}
		if !res.spliced {
			list[i] = res.node.(T)
			i++
			continue
		}
		items := make([]T, len(res.splice))
		for j, x := range res.splice {
			items[j] = x.(T)
		}
		list = slices.Replace(list, i, i+1, items...)
		i += len(items)
	}
	return list, nil
}
