package sparql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/querybinder/internal/rdf"
)

// DecodeError reports a JSON AST that does not have the expected shape.
type DecodeError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Field, e.Message)
}

// DecodeJSON parses a JSON AST in the sparql.js shape. The root may be a
// query, an update, or any single pattern.
//
// Numbers are decoded with UseNumber so LIMIT/OFFSET never pass through
// float64. Pattern and expression objects with an unrecognized "type" are
// kept as *Extension.
func DecodeJSON(data []byte) (Node, error) {
	v, err := unmarshal(data)
	if err != nil {
		return nil, err
	}
	return FromJSONValue(v)
}

// DecodePatterns parses a JSON array of patterns.
func DecodePatterns(data []byte) ([]Pattern, error) {
	v, err := unmarshal(data)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &DecodeError{Field: "patterns", Message: "expected an array"}
	}
	return (&decoder{}).patterns(arr, "patterns")
}

// DecodePath parses one property path object.
func DecodePath(data []byte) (*PropertyPath, error) {
	v, err := unmarshal(data)
	if err != nil {
		return nil, err
	}
	return (&decoder{}).path(v, "path")
}

// FromJSONValue converts an already-unmarshaled JSON value (maps, slices,
// strings, json.Number, bools) into a tree.
func FromJSONValue(v any) (Node, error) {
	d := &decoder{}
	m, err := d.object(v, "root")
	if err != nil {
		return nil, err
	}
	switch str(m, "type") {
	case "query":
		return d.query(m, "root")
	case "update":
		return d.update(m, "root")
	default:
		return d.pattern(m, "root")
	}
}

func unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

type decoder struct{}

func (d *decoder) object(v any, field string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Field: field, Message: fmt.Sprintf("expected an object, got %T", v)}
	}
	return m, nil
}

func (d *decoder) list(m map[string]any, key, field string) ([]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &DecodeError{Field: field + "." + key, Message: fmt.Sprintf("expected an array, got %T", v)}
	}
	return arr, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func (d *decoder) integer(m map[string]any, key, field string) (*int64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	var n int64
	switch num := v.(type) {
	case json.Number:
		i, err := num.Int64()
		if err != nil {
			return nil, &DecodeError{Field: field + "." + key, Message: fmt.Sprintf("expected an integer, got %s", num)}
		}
		n = i
	case float64:
		if num != float64(int64(num)) {
			return nil, &DecodeError{Field: field + "." + key, Message: fmt.Sprintf("expected an integer, got %v", num)}
		}
		n = int64(num)
	case int:
		n = int64(num)
	case int64:
		n = num
	default:
		return nil, &DecodeError{Field: field + "." + key, Message: fmt.Sprintf("expected an integer, got %T", v)}
	}
	return &n, nil
}

func (d *decoder) prefixes(m map[string]any, field string) (*Prefixes, error) {
	v, ok := m["prefixes"]
	if !ok || v == nil {
		return nil, nil
	}
	pm, err := d.object(v, field+".prefixes")
	if err != nil {
		return nil, err
	}
	p := NewPrefixes(DefaultPrefixSet())
	for k, iri := range pm {
		s, ok := iri.(string)
		if !ok {
			return nil, &DecodeError{Field: field + ".prefixes." + k, Message: "prefix IRI must be a string"}
		}
		p.Set(k, s)
	}
	return p, nil
}

func (d *decoder) query(m map[string]any, field string) (*Query, error) {
	q := &Query{
		QueryType: QueryType(strings.ToUpper(str(m, "queryType"))),
		Base:      str(m, "base"),
		Distinct:  boolean(m, "distinct"),
		Reduced:   boolean(m, "reduced"),
	}
	switch q.QueryType {
	case QuerySelect, QueryConstruct, QueryAsk, QueryDescribe:
	default:
		return nil, &DecodeError{Field: field + ".queryType", Message: fmt.Sprintf("unknown query type %q", str(m, "queryType"))}
	}

	var err error
	if q.Prefixes, err = d.prefixes(m, field); err != nil {
		return nil, err
	}

	if raw, ok := m["variables"]; ok {
		if s, isStr := raw.(string); isStr && s == "*" {
			q.Variables = []Node{Wildcard{}}
		} else {
			vars, err := d.list(m, "variables", field)
			if err != nil {
				return nil, err
			}
			q.Variables = make([]Node, 0, len(vars))
			for i, v := range vars {
				proj, err := d.projection(v, fmt.Sprintf("%s.variables[%d]", field, i))
				if err != nil {
					return nil, err
				}
				q.Variables = append(q.Variables, proj)
			}
		}
	}

	if q.From, err = d.dataset(m, "from", field); err != nil {
		return nil, err
	}
	where, err := d.list(m, "where", field)
	if err != nil {
		return nil, err
	}
	if where != nil {
		if q.Where, err = d.patterns(where, field+".where"); err != nil {
			return nil, err
		}
	}
	if q.Values, err = d.rows(m, "values", field); err != nil {
		return nil, err
	}

	group, err := d.list(m, "group", field)
	if err != nil {
		return nil, err
	}
	for i, g := range group {
		f := fmt.Sprintf("%s.group[%d]", field, i)
		gm, err := d.object(g, f)
		if err != nil {
			return nil, err
		}
		expr, err := d.expression(gm["expression"], f+".expression")
		if err != nil {
			return nil, err
		}
		grouping := &Grouping{Expression: expr}
		if gv, ok := gm["variable"]; ok && gv != nil {
			if grouping.Variable, err = d.term(gv, f+".variable"); err != nil {
				return nil, err
			}
		}
		q.Group = append(q.Group, grouping)
	}

	having, err := d.list(m, "having", field)
	if err != nil {
		return nil, err
	}
	for i, h := range having {
		expr, err := d.expression(h, fmt.Sprintf("%s.having[%d]", field, i))
		if err != nil {
			return nil, err
		}
		q.Having = append(q.Having, expr)
	}

	order, err := d.list(m, "order", field)
	if err != nil {
		return nil, err
	}
	for i, o := range order {
		f := fmt.Sprintf("%s.order[%d]", field, i)
		om, err := d.object(o, f)
		if err != nil {
			return nil, err
		}
		expr, err := d.expression(om["expression"], f+".expression")
		if err != nil {
			return nil, err
		}
		q.Order = append(q.Order, &Ordering{Expression: expr, Descending: boolean(om, "descending")})
	}

	if q.Limit, err = d.integer(m, "limit", field); err != nil {
		return nil, err
	}
	if q.Offset, err = d.integer(m, "offset", field); err != nil {
		return nil, err
	}

	template, err := d.list(m, "template", field)
	if err != nil {
		return nil, err
	}
	if template != nil {
		if q.Template, err = d.triples(template, field+".template"); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (d *decoder) projection(v any, field string) (Node, error) {
	if s, ok := v.(string); ok && s == "*" {
		return Wildcard{}, nil
	}
	m, err := d.object(v, field)
	if err != nil {
		return nil, err
	}
	if _, ok := m["termType"]; ok {
		return d.termNode(m, field)
	}
	expr, err := d.expression(m["expression"], field+".expression")
	if err != nil {
		return nil, err
	}
	variable, err := d.term(m["variable"], field+".variable")
	if err != nil {
		return nil, err
	}
	return &VariableExpression{Expression: expr, Variable: variable}, nil
}

func (d *decoder) dataset(m map[string]any, key, field string) (*Dataset, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	f := field + "." + key
	dm, err := d.object(v, f)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{}
	if ds.Default, err = d.termList(dm, "default", f); err != nil {
		return nil, err
	}
	if ds.Named, err = d.termList(dm, "named", f); err != nil {
		return nil, err
	}
	return ds, nil
}

func (d *decoder) termList(m map[string]any, key, field string) ([]rdf.Term, error) {
	arr, err := d.list(m, key, field)
	if err != nil || arr == nil {
		return nil, err
	}
	out := make([]rdf.Term, 0, len(arr))
	for i, v := range arr {
		t, err := d.term(v, fmt.Sprintf("%s.%s[%d]", field, key, i))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (d *decoder) rows(m map[string]any, key, field string) ([]ValuesRow, error) {
	arr, err := d.list(m, key, field)
	if err != nil || arr == nil {
		return nil, err
	}
	rows := make([]ValuesRow, 0, len(arr))
	for i, v := range arr {
		f := fmt.Sprintf("%s.%s[%d]", field, key, i)
		rm, err := d.object(v, f)
		if err != nil {
			return nil, err
		}
		row := make(ValuesRow, len(rm))
		for k, cell := range rm {
			name := rdf.NewVariable(k).Value
			if cell == nil {
				row[name] = nil
				continue
			}
			t, err := d.term(cell, f+"."+k)
			if err != nil {
				return nil, err
			}
			row[name] = t
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (d *decoder) patterns(arr []any, field string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(arr))
	for i, v := range arr {
		p, err := d.pattern(v, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) pattern(v any, field string) (Pattern, error) {
	m, err := d.object(v, field)
	if err != nil {
		return nil, err
	}
	typ := str(m, "type")
	switch PatternType(typ) {
	case PatternQuery:
		return d.query(m, field)
	case PatternBGP:
		arr, err := d.list(m, "triples", field)
		if err != nil {
			return nil, err
		}
		triples, err := d.triples(arr, field+".triples")
		if err != nil {
			return nil, err
		}
		return &BGP{Triples: triples}, nil
	case PatternGroup, PatternOptional, PatternUnion, PatternMinus:
		ps, err := d.childPatterns(m, field)
		if err != nil {
			return nil, err
		}
		return &GroupPattern{Type: PatternType(typ), Patterns: ps}, nil
	case PatternGraph:
		name, err := d.term(m["name"], field+".name")
		if err != nil {
			return nil, err
		}
		ps, err := d.childPatterns(m, field)
		if err != nil {
			return nil, err
		}
		return &GraphPattern{Name: name, Patterns: ps}, nil
	case PatternService:
		name, err := d.term(m["name"], field+".name")
		if err != nil {
			return nil, err
		}
		ps, err := d.childPatterns(m, field)
		if err != nil {
			return nil, err
		}
		return &ServicePattern{Name: name, Silent: boolean(m, "silent"), Patterns: ps}, nil
	case PatternFilter:
		expr, err := d.expression(m["expression"], field+".expression")
		if err != nil {
			return nil, err
		}
		return &FilterPattern{Expression: expr}, nil
	case PatternBind:
		expr, err := d.expression(m["expression"], field+".expression")
		if err != nil {
			return nil, err
		}
		variable, err := d.term(m["variable"], field+".variable")
		if err != nil {
			return nil, err
		}
		return &BindPattern{Expression: expr, Variable: variable}, nil
	case PatternValues:
		rows, err := d.rows(m, "values", field)
		if err != nil {
			return nil, err
		}
		return &ValuesPattern{Values: rows}, nil
	default:
		if typ == "" {
			return nil, &DecodeError{Field: field + ".type", Message: "pattern type is required"}
		}
		return &Extension{Type: typ, Raw: m}, nil
	}
}

func (d *decoder) childPatterns(m map[string]any, field string) ([]Pattern, error) {
	arr, err := d.list(m, "patterns", field)
	if err != nil {
		return nil, err
	}
	return d.patterns(arr, field+".patterns")
}

func (d *decoder) triples(arr []any, field string) ([]*Triple, error) {
	out := make([]*Triple, 0, len(arr))
	for i, v := range arr {
		t, err := d.triple(v, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (d *decoder) triple(v any, field string) (*Triple, error) {
	m, err := d.object(v, field)
	if err != nil {
		return nil, err
	}
	subject, err := d.term(m["subject"], field+".subject")
	if err != nil {
		return nil, err
	}
	var predicate Node
	if pm, ok := m["predicate"].(map[string]any); ok && str(pm, "type") == "path" {
		predicate, err = d.path(pm, field+".predicate")
	} else {
		predicate, err = d.term(m["predicate"], field+".predicate")
	}
	if err != nil {
		return nil, err
	}
	object, err := d.term(m["object"], field+".object")
	if err != nil {
		return nil, err
	}
	return &Triple{Subject: subject, Predicate: predicate, Object: object}, nil
}

func (d *decoder) path(v any, field string) (*PropertyPath, error) {
	m, err := d.object(v, field)
	if err != nil {
		return nil, err
	}
	if str(m, "type") != "path" {
		return nil, &DecodeError{Field: field + ".type", Message: `expected "path"`}
	}
	items, err := d.list(m, "items", field)
	if err != nil {
		return nil, err
	}
	p := &PropertyPath{PathType: PathType(str(m, "pathType")), Items: make([]Node, 0, len(items))}
	for i, item := range items {
		f := fmt.Sprintf("%s.items[%d]", field, i)
		if im, ok := item.(map[string]any); ok && str(im, "type") == "path" {
			nested, err := d.path(im, f)
			if err != nil {
				return nil, err
			}
			p.Items = append(p.Items, nested)
			continue
		}
		t, err := d.term(item, f)
		if err != nil {
			return nil, err
		}
		p.Items = append(p.Items, t)
	}
	return p, nil
}

func (d *decoder) expression(v any, field string) (Expression, error) {
	switch val := v.(type) {
	case nil:
		return nil, &DecodeError{Field: field, Message: "expression is required"}
	case []any:
		tuple := make(Tuple, 0, len(val))
		for i, item := range val {
			e, err := d.expression(item, fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			tuple = append(tuple, e)
		}
		return tuple, nil
	}

	m, err := d.object(v, field)
	if err != nil {
		return nil, err
	}
	if _, ok := m["termType"]; ok {
		return d.termNode(m, field)
	}
	switch str(m, "type") {
	case "operation":
		args, err := d.args(m, field)
		if err != nil {
			return nil, err
		}
		return &Operation{Operator: str(m, "operator"), Args: args}, nil
	case "functionCall":
		fn, err := d.term(m["function"], field+".function")
		if err != nil {
			return nil, err
		}
		args, err := d.args(m, field)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{Function: fn, Args: args, Distinct: boolean(m, "distinct")}, nil
	case "aggregate":
		expr, err := d.expression(m["expression"], field+".expression")
		if err != nil {
			return nil, err
		}
		return &Aggregate{
			Aggregation: str(m, "aggregation"),
			Expression:  expr,
			Distinct:    boolean(m, "distinct"),
			Separator:   str(m, "separator"),
		}, nil
	default:
		return d.pattern(m, field)
	}
}

func (d *decoder) args(m map[string]any, field string) ([]Expression, error) {
	arr, err := d.list(m, "args", field)
	if err != nil {
		return nil, err
	}
	out := make([]Expression, 0, len(arr))
	for i, a := range arr {
		e, err := d.expression(a, fmt.Sprintf("%s.args[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// termNode decodes a termType object, which may also be a Wildcard.
func (d *decoder) termNode(m map[string]any, field string) (Node, error) {
	if str(m, "termType") == "Wildcard" {
		return Wildcard{}, nil
	}
	return d.term(m, field)
}

func (d *decoder) term(v any, field string) (rdf.Term, error) {
	m, err := d.object(v, field)
	if err != nil {
		return nil, err
	}
	value := str(m, "value")
	switch rdf.TermType(str(m, "termType")) {
	case rdf.TypeIRI:
		return rdf.NewIRI(value), nil
	case rdf.TypeBlank:
		return rdf.NewBlank(value), nil
	case rdf.TypeVariable:
		return rdf.NewVariable(value), nil
	case rdf.TypeDefaultGraph:
		return rdf.DefaultGraph{}, nil
	case rdf.TypeLiteral:
		lang := str(m, "language")
		if dt, ok := m["datatype"]; ok && dt != nil {
			dtTerm, err := d.term(dt, field+".datatype")
			if err != nil {
				return nil, err
			}
			iri, ok := dtTerm.(rdf.IRI)
			if !ok {
				return nil, &DecodeError{Field: field + ".datatype", Message: "datatype must be a NamedNode"}
			}
			return rdf.Literal{Value: value, Datatype: iri, Language: lang}, nil
		}
		return rdf.NewLangLiteral(value, lang), nil
	case rdf.TypeQuad:
		parts := make([]rdf.Term, 4)
		for i, key := range []string{"subject", "predicate", "object", "graph"} {
			if raw, ok := m[key]; ok && raw != nil {
				if parts[i], err = d.term(raw, field+"."+key); err != nil {
					return nil, err
				}
			}
		}
		q, err := rdf.NewQuad(parts[0], parts[1], parts[2], parts[3])
		if err != nil {
			return nil, &DecodeError{Field: field, Message: err.Error()}
		}
		return q, nil
	default:
		return nil, &DecodeError{Field: field + ".termType", Message: fmt.Sprintf("unknown term type %q", str(m, "termType"))}
	}
}

func (d *decoder) update(m map[string]any, field string) (*Update, error) {
	u := &Update{Base: str(m, "base")}
	var err error
	if u.Prefixes, err = d.prefixes(m, field); err != nil {
		return nil, err
	}
	ops, err := d.list(m, "updates", field)
	if err != nil {
		return nil, err
	}
	for i, v := range ops {
		f := fmt.Sprintf("%s.updates[%d]", field, i)
		om, err := d.object(v, f)
		if err != nil {
			return nil, err
		}
		op, err := d.updateOp(om, f)
		if err != nil {
			return nil, err
		}
		u.Updates = append(u.Updates, op)
	}
	return u, nil
}

func (d *decoder) updateOp(m map[string]any, field string) (UpdateOperation, error) {
	if updateType := str(m, "updateType"); updateType != "" {
		op := &InsertDelete{UpdateType: updateType}
		var err error
		if g, ok := m["graph"]; ok && g != nil {
			if op.Graph, err = d.term(g, field+".graph"); err != nil {
				return nil, err
			}
		}
		if op.Using, err = d.dataset(m, "using", field); err != nil {
			return nil, err
		}
		if op.Delete, err = d.quads(m, "delete", field); err != nil {
			return nil, err
		}
		if op.Insert, err = d.quads(m, "insert", field); err != nil {
			return nil, err
		}
		where, err := d.list(m, "where", field)
		if err != nil {
			return nil, err
		}
		if where != nil {
			if op.Where, err = d.patterns(where, field+".where"); err != nil {
				return nil, err
			}
		}
		return op, nil
	}

	typ := str(m, "type")
	switch typ {
	case ManageLoad:
		op := &Management{Type: typ, Silent: boolean(m, "silent")}
		src, err := d.term(m["source"], field+".source")
		if err != nil {
			return nil, err
		}
		op.Source = &GraphRef{Name: src}
		if dst, ok := m["destination"].(map[string]any); ok {
			t, err := d.term(dst, field+".destination")
			if err != nil {
				return nil, err
			}
			op.Destination = &GraphRef{Name: t}
		}
		return op, nil
	case ManageCopy, ManageMove, ManageAdd, ManageClear, ManageDrop, ManageCreate:
		op := &Management{Type: typ, Silent: boolean(m, "silent")}
		var err error
		if op.Source, err = d.graphRef(m, "source", field); err != nil {
			return nil, err
		}
		if op.Destination, err = d.graphRef(m, "destination", field); err != nil {
			return nil, err
		}
		if op.Graph, err = d.graphRef(m, "graph", field); err != nil {
			return nil, err
		}
		return op, nil
	case "":
		return nil, &DecodeError{Field: field, Message: "update operation needs updateType or type"}
	default:
		return &Extension{Type: typ, Raw: m}, nil
	}
}

func (d *decoder) graphRef(m map[string]any, key, field string) (*GraphRef, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	f := field + "." + key
	gm, err := d.object(v, f)
	if err != nil {
		return nil, err
	}
	ref := &GraphRef{
		Default: boolean(gm, "default"),
		Named:   boolean(gm, "named"),
		All:     boolean(gm, "all"),
	}
	if name, ok := gm["name"]; ok && name != nil {
		if ref.Name, err = d.term(name, f+".name"); err != nil {
			return nil, err
		}
	}
	return ref, nil
}

func (d *decoder) quads(m map[string]any, key, field string) ([]Quads, error) {
	arr, err := d.list(m, key, field)
	if err != nil || arr == nil {
		return nil, err
	}
	out := make([]Quads, 0, len(arr))
	for i, v := range arr {
		f := fmt.Sprintf("%s.%s[%d]", field, key, i)
		qm, err := d.object(v, f)
		if err != nil {
			return nil, err
		}
		triples, err := d.list(qm, "triples", f)
		if err != nil {
			return nil, err
		}
		switch typ := str(qm, "type"); typ {
		case string(PatternBGP):
			ts, err := d.triples(triples, f+".triples")
			if err != nil {
				return nil, err
			}
			out = append(out, &BGP{Triples: ts})
		case string(PatternGraph):
			name, err := d.term(qm["name"], f+".name")
			if err != nil {
				return nil, err
			}
			ts, err := d.triples(triples, f+".triples")
			if err != nil {
				return nil, err
			}
			out = append(out, &GraphQuads{Name: name, Triples: ts})
		default:
			out = append(out, &Extension{Type: typ, Raw: qm})
		}
	}
	return out, nil
}

// EncodeJSON renders a tree in the sparql.js JSON shape.
func EncodeJSON(node Node) ([]byte, error) {
	v, err := ToJSONValue(node)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// ToJSONValue converts a tree into plain JSON values (maps, slices,
// strings, bools, int64, nil). canon.MarshalCanonical accepts the result.
func ToJSONValue(node Node) (any, error) {
	return encodeNode(node)
}

func encodeNode(n Node) (any, error) {
	switch node := n.(type) {
	case nil:
		return nil, nil
	case rdf.Term:
		return encodeTerm(node), nil
	case Wildcard:
		return map[string]any{"termType": "Wildcard", "value": "*"}, nil
	case *Query:
		return encodeQuery(node)
	case *Update:
		return encodeUpdate(node)
	case *InsertDelete, *Management:
		return encodeUpdateOp(node.(UpdateOperation))
	case *GraphQuads:
		return encodeQuads(node)
	case Pattern:
		return encodePattern(node)
	case *Triple:
		return encodeTriple(node)
	case *PropertyPath:
		return encodePath(node)
	case *Operation, *FunctionCall, *Aggregate, Tuple:
		return encodeExpression(node)
	case *Grouping:
		return encodeGrouping(node)
	case *Ordering:
		return encodeOrdering(node)
	case *VariableExpression:
		return encodeVariableExpression(node)
	default:
		return nil, fmt.Errorf("encode: unsupported node %s", Describe(n))
	}
}

func encodeTerm(t rdf.Term) map[string]any {
	switch term := t.(type) {
	case rdf.IRI:
		return map[string]any{"termType": string(rdf.TypeIRI), "value": term.Value}
	case rdf.Literal:
		return map[string]any{
			"termType": string(rdf.TypeLiteral),
			"value":    term.Value,
			"language": term.Language,
			"datatype": encodeTerm(term.Datatype),
		}
	case rdf.Blank:
		return map[string]any{"termType": string(rdf.TypeBlank), "value": term.Value}
	case rdf.Variable:
		return map[string]any{"termType": string(rdf.TypeVariable), "value": term.Value}
	case rdf.DefaultGraph:
		return map[string]any{"termType": string(rdf.TypeDefaultGraph), "value": ""}
	case rdf.Quad:
		m := map[string]any{"termType": string(rdf.TypeQuad), "value": ""}
		for key, part := range map[string]rdf.Term{
			"subject": term.Subject, "predicate": term.Predicate,
			"object": term.Object, "graph": term.Graph,
		} {
			if part != nil {
				m[key] = encodeTerm(part)
			}
		}
		return m
	default:
		return nil
	}
}

func encodeTerms(ts []rdf.Term) []any {
	out := make([]any, 0, len(ts))
	for _, t := range ts {
		out = append(out, encodeTerm(t))
	}
	return out
}

func encodeQuery(q *Query) (map[string]any, error) {
	m := map[string]any{
		"type":      "query",
		"queryType": string(q.QueryType),
	}
	if q.Prefixes != nil {
		m["prefixes"] = stringMap(q.Prefixes.Own())
	}
	if q.Base != "" {
		m["base"] = q.Base
	}
	if q.Variables != nil {
		vars := make([]any, 0, len(q.Variables))
		for _, v := range q.Variables {
			ev, err := encodeNode(v)
			if err != nil {
				return nil, err
			}
			vars = append(vars, ev)
		}
		m["variables"] = vars
	}
	if q.Distinct {
		m["distinct"] = true
	}
	if q.Reduced {
		m["reduced"] = true
	}
	if q.From != nil {
		m["from"] = encodeDataset(q.From)
	}
	if q.Where != nil {
		where, err := encodePatterns(q.Where)
		if err != nil {
			return nil, err
		}
		m["where"] = where
	}
	if q.Values != nil {
		m["values"] = encodeRows(q.Values)
	}
	if q.Group != nil {
		group := make([]any, 0, len(q.Group))
		for _, g := range q.Group {
			eg, err := encodeGrouping(g)
			if err != nil {
				return nil, err
			}
			group = append(group, eg)
		}
		m["group"] = group
	}
	if q.Having != nil {
		having, err := encodeExpressions(q.Having)
		if err != nil {
			return nil, err
		}
		m["having"] = having
	}
	if q.Order != nil {
		order := make([]any, 0, len(q.Order))
		for _, o := range q.Order {
			eo, err := encodeOrdering(o)
			if err != nil {
				return nil, err
			}
			order = append(order, eo)
		}
		m["order"] = order
	}
	if q.Limit != nil {
		m["limit"] = *q.Limit
	}
	if q.Offset != nil {
		m["offset"] = *q.Offset
	}
	if q.Template != nil {
		template, err := encodeTriples(q.Template)
		if err != nil {
			return nil, err
		}
		m["template"] = template
	}
	return m, nil
}

func stringMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func encodeDataset(ds *Dataset) map[string]any {
	return map[string]any{
		"default": encodeTerms(ds.Default),
		"named":   encodeTerms(ds.Named),
	}
}

func encodeRows(rows []ValuesRow) []any {
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]any, len(row))
		for k, cell := range row {
			if cell == nil {
				m["?"+k] = nil
				continue
			}
			m["?"+k] = encodeTerm(cell)
		}
		out = append(out, m)
	}
	return out
}

func encodeGrouping(g *Grouping) (map[string]any, error) {
	expr, err := encodeExpression(g.Expression)
	if err != nil {
		return nil, err
	}
	m := map[string]any{"expression": expr}
	if g.Variable != nil {
		m["variable"] = encodeTerm(g.Variable)
	}
	return m, nil
}

func encodeOrdering(o *Ordering) (map[string]any, error) {
	expr, err := encodeExpression(o.Expression)
	if err != nil {
		return nil, err
	}
	m := map[string]any{"expression": expr}
	if o.Descending {
		m["descending"] = true
	}
	return m, nil
}

func encodeVariableExpression(v *VariableExpression) (map[string]any, error) {
	expr, err := encodeExpression(v.Expression)
	if err != nil {
		return nil, err
	}
	return map[string]any{"expression": expr, "variable": encodeTerm(v.Variable)}, nil
}

func encodeUpdate(u *Update) (map[string]any, error) {
	m := map[string]any{"type": "update"}
	if u.Prefixes != nil {
		m["prefixes"] = stringMap(u.Prefixes.Own())
	}
	if u.Base != "" {
		m["base"] = u.Base
	}
	ops := make([]any, 0, len(u.Updates))
	for _, op := range u.Updates {
		eo, err := encodeUpdateOp(op)
		if err != nil {
			return nil, err
		}
		ops = append(ops, eo)
	}
	m["updates"] = ops
	return m, nil
}

func encodeUpdateOp(op UpdateOperation) (any, error) {
	switch u := op.(type) {
	case *InsertDelete:
		m := map[string]any{"updateType": u.UpdateType}
		if u.Graph != nil {
			m["graph"] = encodeTerm(u.Graph)
		}
		if u.Using != nil {
			m["using"] = encodeDataset(u.Using)
		}
		if u.Delete != nil {
			del, err := encodeQuadsList(u.Delete)
			if err != nil {
				return nil, err
			}
			m["delete"] = del
		}
		if u.Insert != nil {
			ins, err := encodeQuadsList(u.Insert)
			if err != nil {
				return nil, err
			}
			m["insert"] = ins
		}
		if u.Where != nil {
			where, err := encodePatterns(u.Where)
			if err != nil {
				return nil, err
			}
			m["where"] = where
		}
		return m, nil
	case *Management:
		m := map[string]any{"type": u.Type, "silent": u.Silent}
		if u.Type == ManageLoad {
			if u.Source != nil && u.Source.Name != nil {
				m["source"] = encodeTerm(u.Source.Name)
			}
			if u.Destination != nil && u.Destination.Name != nil {
				m["destination"] = encodeTerm(u.Destination.Name)
			}
			return m, nil
		}
		for key, ref := range map[string]*GraphRef{"source": u.Source, "destination": u.Destination, "graph": u.Graph} {
			if ref != nil {
				m[key] = encodeGraphRef(ref)
			}
		}
		return m, nil
	case *Extension:
		return cloneRaw(u.Raw), nil
	default:
		return nil, fmt.Errorf("encode: unsupported update operation %s", Describe(op))
	}
}

func encodeGraphRef(ref *GraphRef) map[string]any {
	m := map[string]any{"type": "graph"}
	if ref.Default {
		m["default"] = true
	}
	if ref.Named {
		m["named"] = true
	}
	if ref.All {
		m["all"] = true
	}
	if ref.Name != nil {
		m["name"] = encodeTerm(ref.Name)
	}
	return m
}

func encodeQuadsList(qs []Quads) ([]any, error) {
	out := make([]any, 0, len(qs))
	for _, q := range qs {
		eq, err := encodeQuads(q)
		if err != nil {
			return nil, err
		}
		out = append(out, eq)
	}
	return out, nil
}

func encodeQuads(q Quads) (any, error) {
	switch block := q.(type) {
	case *BGP:
		return encodePattern(block)
	case *GraphQuads:
		triples, err := encodeTriples(block.Triples)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "graph", "name": encodeTerm(block.Name), "triples": triples}, nil
	case *Extension:
		return cloneRaw(block.Raw), nil
	default:
		return nil, fmt.Errorf("encode: unsupported quads block %s", Describe(q))
	}
}

func encodePatterns(ps []Pattern) ([]any, error) {
	out := make([]any, 0, len(ps))
	for _, p := range ps {
		ep, err := encodePattern(p)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, nil
}

func encodePattern(p Pattern) (any, error) {
	switch pattern := p.(type) {
	case *Query:
		return encodeQuery(pattern)
	case *BGP:
		triples, err := encodeTriples(pattern.Triples)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "bgp", "triples": triples}, nil
	case *GroupPattern:
		ps, err := encodePatterns(pattern.Patterns)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": string(pattern.Type), "patterns": ps}, nil
	case *GraphPattern:
		ps, err := encodePatterns(pattern.Patterns)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "graph", "name": encodeTerm(pattern.Name), "patterns": ps}, nil
	case *ServicePattern:
		ps, err := encodePatterns(pattern.Patterns)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "service", "name": encodeTerm(pattern.Name), "silent": pattern.Silent, "patterns": ps}, nil
	case *FilterPattern:
		expr, err := encodeExpression(pattern.Expression)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "filter", "expression": expr}, nil
	case *BindPattern:
		expr, err := encodeExpression(pattern.Expression)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "bind", "variable": encodeTerm(pattern.Variable), "expression": expr}, nil
	case *ValuesPattern:
		return map[string]any{"type": "values", "values": encodeRows(pattern.Values)}, nil
	case *Extension:
		return cloneRaw(pattern.Raw), nil
	default:
		return nil, fmt.Errorf("encode: unsupported pattern %s", Describe(p))
	}
}

func encodeTriples(ts []*Triple) ([]any, error) {
	out := make([]any, 0, len(ts))
	for _, t := range ts {
		et, err := encodeTriple(t)
		if err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	return out, nil
}

func encodeTriple(t *Triple) (map[string]any, error) {
	var predicate any
	switch p := t.Predicate.(type) {
	case *PropertyPath:
		ep, err := encodePath(p)
		if err != nil {
			return nil, err
		}
		predicate = ep
	case rdf.Term:
		predicate = encodeTerm(p)
	default:
		return nil, fmt.Errorf("encode: unsupported predicate %s", Describe(t.Predicate))
	}
	return map[string]any{
		"subject":   encodeTerm(t.Subject),
		"predicate": predicate,
		"object":    encodeTerm(t.Object),
	}, nil
}

func encodePath(p *PropertyPath) (map[string]any, error) {
	items := make([]any, 0, len(p.Items))
	for _, item := range p.Items {
		switch it := item.(type) {
		case *PropertyPath:
			ep, err := encodePath(it)
			if err != nil {
				return nil, err
			}
			items = append(items, ep)
		case rdf.Term:
			items = append(items, encodeTerm(it))
		default:
			return nil, fmt.Errorf("encode: unsupported path item %s", Describe(item))
		}
	}
	return map[string]any{"type": "path", "pathType": string(p.PathType), "items": items}, nil
}

func encodeExpressions(es []Expression) ([]any, error) {
	out := make([]any, 0, len(es))
	for _, e := range es {
		ee, err := encodeExpression(e)
		if err != nil {
			return nil, err
		}
		out = append(out, ee)
	}
	return out, nil
}

func encodeExpression(e Expression) (any, error) {
	switch expr := e.(type) {
	case rdf.Term:
		return encodeTerm(expr), nil
	case Wildcard:
		return encodeNode(expr)
	case *Operation:
		args, err := encodeExpressions(expr.Args)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "operation", "operator": expr.Operator, "args": args}, nil
	case *FunctionCall:
		args, err := encodeExpressions(expr.Args)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"type":     "functionCall",
			"function": encodeTerm(expr.Function),
			"args":     args,
			"distinct": expr.Distinct,
		}, nil
	case *Aggregate:
		inner, err := encodeExpression(expr.Expression)
		if err != nil {
			return nil, err
		}
		m := map[string]any{
			"type":        "aggregate",
			"aggregation": expr.Aggregation,
			"expression":  inner,
			"distinct":    expr.Distinct,
		}
		if expr.Separator != "" {
			m["separator"] = expr.Separator
		}
		return m, nil
	case Tuple:
		return encodeExpressions(expr)
	case Pattern:
		return encodePattern(expr)
	default:
		return nil, fmt.Errorf("encode: unsupported expression %s", Describe(e))
	}
}
