package sparql

import (
	"fmt"

	"github.com/roach88/querybinder/internal/rdf"
)

// NormalizePath returns p with every length-1 sequence or alternative
// collapsed to its only item. The result is an rdf.Term when the whole path
// collapses, otherwise a new *PropertyPath. p itself is not modified.
func NormalizePath(p *PropertyPath) Node {
	if p == nil {
		return nil
	}
	items := make([]Node, len(p.Items))
	for i, item := range p.Items {
		if nested, ok := item.(*PropertyPath); ok {
			items[i] = NormalizePath(nested)
		} else {
			items[i] = item
		}
	}
	if len(items) == 1 && (p.PathType == PathSequence || p.PathType == PathAlternative) {
		return items[0]
	}
	return &PropertyPath{PathType: p.PathType, Items: items}
}

// CheckPath reports the first structural problem in p, or nil.
//
// Items must be IRIs or nested paths. Unary operators (^ + * ? !) take
// exactly one item; sequences and alternatives take at least one.
func CheckPath(p *PropertyPath) error {
	return checkPath(p, "path")
}

func checkPath(p *PropertyPath, field string) error {
	if p == nil {
		return &ValidationError{Field: field, Code: CodeMalformedPath, Message: "path is nil"}
	}
	switch p.PathType {
	case PathSequence, PathAlternative:
		if len(p.Items) == 0 {
			return &ValidationError{Field: field, Code: CodeMalformedPath,
				Message: fmt.Sprintf("path %q needs at least one item", p.PathType)}
		}
	case PathInverse, PathOneOrMore, PathZeroOrMore, PathZeroOrOne, PathNegated:
		if len(p.Items) != 1 {
			return &ValidationError{Field: field, Code: CodeMalformedPath,
				Message: fmt.Sprintf("path %q takes exactly one item, got %d", p.PathType, len(p.Items))}
		}
	default:
		return &ValidationError{Field: field, Code: CodeMalformedPath,
			Message: fmt.Sprintf("unknown path type %q", p.PathType)}
	}

	for i, item := range p.Items {
		itemField := fmt.Sprintf("%s.items[%d]", field, i)
		switch it := item.(type) {
		case rdf.IRI:
		case *PropertyPath:
			if err := checkPath(it, itemField); err != nil {
				return err
			}
		default:
			return &ValidationError{Field: itemField, Code: CodeMalformedPath,
				Message: fmt.Sprintf("path item must be an IRI or path, got %s", Describe(item))}
		}
	}
	return nil
}
