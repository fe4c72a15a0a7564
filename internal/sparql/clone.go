package sparql

import "github.com/roach88/querybinder/internal/rdf"

// Clone returns a deep, independent copy of a subtree.
//
// Every node, slice and VALUES row is copied. Terms are immutable values
// and are shared. Prefix tables keep their base reference, so a prefix
// inherited by the original is still inherited (not owned) by the clone.
func Clone[T Node](node T) T {
	c := cloneNode(node)
	if c == nil {
		var zero T
		return zero
	}
	return c.(T)
}

func cloneNode(n Node) Node {
	switch node := n.(type) {
	case nil:
		return nil
	case rdf.Term:
		return node
	case Wildcard:
		return node
	case *Query:
		return cloneQuery(node)
	case *Update:
		if node == nil {
			return node
		}
		return &Update{
			Prefixes: node.Prefixes.Clone(),
			Base:     node.Base,
			Updates:  cloneSlice(node.Updates),
		}
	case *InsertDelete:
		if node == nil {
			return node
		}
		return &InsertDelete{
			UpdateType: node.UpdateType,
			Graph:      node.Graph,
			Using:      cloneDataset(node.Using),
			Delete:     cloneSlice(node.Delete),
			Insert:     cloneSlice(node.Insert),
			Where:      cloneSlice(node.Where),
		}
	case *Management:
		if node == nil {
			return node
		}
		return &Management{
			Type:        node.Type,
			Silent:      node.Silent,
			Source:      cloneGraphRef(node.Source),
			Destination: cloneGraphRef(node.Destination),
			Graph:       cloneGraphRef(node.Graph),
		}
	case *BGP:
		if node == nil {
			return node
		}
		return &BGP{Triples: cloneSlice(node.Triples)}
	case *GraphQuads:
		if node == nil {
			return node
		}
		return &GraphQuads{Name: node.Name, Triples: cloneSlice(node.Triples)}
	case *GroupPattern:
		if node == nil {
			return node
		}
		return &GroupPattern{Type: node.Type, Patterns: cloneSlice(node.Patterns)}
	case *GraphPattern:
		if node == nil {
			return node
		}
		return &GraphPattern{Name: node.Name, Patterns: cloneSlice(node.Patterns)}
	case *ServicePattern:
		if node == nil {
			return node
		}
		return &ServicePattern{Name: node.Name, Silent: node.Silent, Patterns: cloneSlice(node.Patterns)}
	case *FilterPattern:
		if node == nil {
			return node
		}
		return &FilterPattern{Expression: cloneNode(node.Expression)}
	case *BindPattern:
		if node == nil {
			return node
		}
		return &BindPattern{Expression: cloneNode(node.Expression), Variable: node.Variable}
	case *ValuesPattern:
		if node == nil {
			return node
		}
		return &ValuesPattern{Values: cloneRows(node.Values)}
	case *Triple:
		if node == nil {
			return node
		}
		return &Triple{Subject: node.Subject, Predicate: cloneNode(node.Predicate), Object: node.Object}
	case *PropertyPath:
		if node == nil {
			return node
		}
		return &PropertyPath{PathType: node.PathType, Items: cloneSlice(node.Items)}
	case *Operation:
		if node == nil {
			return node
		}
		return &Operation{Operator: node.Operator, Args: cloneSlice(node.Args)}
	case *FunctionCall:
		if node == nil {
			return node
		}
		return &FunctionCall{Function: node.Function, Args: cloneSlice(node.Args), Distinct: node.Distinct}
	case *Aggregate:
		if node == nil {
			return node
		}
		return &Aggregate{
			Aggregation: node.Aggregation,
			Expression:  cloneNode(node.Expression),
			Distinct:    node.Distinct,
			Separator:   node.Separator,
		}
	case Tuple:
		if node == nil {
			return node
		}
		return Tuple(cloneSlice([]Expression(node)))
	case *Grouping:
		if node == nil {
			return node
		}
		return &Grouping{Expression: cloneNode(node.Expression), Variable: node.Variable}
	case *Ordering:
		if node == nil {
			return node
		}
		return &Ordering{Expression: cloneNode(node.Expression), Descending: node.Descending}
	case *VariableExpression:
		if node == nil {
			return node
		}
		return &VariableExpression{Expression: cloneNode(node.Expression), Variable: node.Variable}
	case *Extension:
		if node == nil {
			return node
		}
		return &Extension{Type: node.Type, Raw: cloneRaw(node.Raw).(map[string]any)}
	default:
		// Foreign node kinds cannot be copied; share them.
		return n
	}
}

func cloneQuery(q *Query) *Query {
	if q == nil {
		return nil
	}
	out := &Query{
		QueryType: q.QueryType,
		Prefixes:  q.Prefixes.Clone(),
		Base:      q.Base,
		Variables: cloneSlice(q.Variables),
		Distinct:  q.Distinct,
		Reduced:   q.Reduced,
		From:      cloneDataset(q.From),
		Where:     cloneSlice(q.Where),
		Values:    cloneRows(q.Values),
		Group:     cloneSlice(q.Group),
		Having:    cloneSlice(q.Having),
		Order:     cloneSlice(q.Order),
		Template:  cloneSlice(q.Template),
	}
	if q.Limit != nil {
		limit := *q.Limit
		out.Limit = &limit
	}
	if q.Offset != nil {
		offset := *q.Offset
		out.Offset = &offset
	}
	return out
}

// cloneSlice deep copies a slice of nodes, keeping nil slices nil.
func cloneSlice[T Node](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, n := range in {
		out[i] = Clone(n)
	}
	return out
}

func cloneRows(rows []ValuesRow) []ValuesRow {
	if rows == nil {
		return nil
	}
	out := make([]ValuesRow, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}

func cloneDataset(d *Dataset) *Dataset {
	if d == nil {
		return nil
	}
	return &Dataset{
		Default: cloneSlice(d.Default),
		Named:   cloneSlice(d.Named),
	}
}

func cloneGraphRef(g *GraphRef) *GraphRef {
	if g == nil {
		return nil
	}
	c := *g
	return &c
}

func cloneRaw(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return val
		}
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = cloneRaw(x)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = cloneRaw(x)
		}
		return out
	default:
		return v
	}
}
