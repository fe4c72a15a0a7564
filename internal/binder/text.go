package binder

import (
	"regexp"

	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// TextRule rewrites literal values matching Pattern.
// Replacement uses regexp.Expand syntax ($1, ${name}).
type TextRule struct {
	Pattern     *regexp.Regexp
	Replacement string

	// All replaces every match; by default only the first match is replaced.
	All bool
}

// Apply returns the rewritten value and whether the rule matched.
func (r TextRule) Apply(value string) (string, bool) {
	if r.Pattern == nil {
		return value, false
	}
	if r.All {
		if !r.Pattern.MatchString(value) {
			return value, false
		}
		return r.Pattern.ReplaceAllString(value, r.Replacement), true
	}
	loc := r.Pattern.FindStringSubmatchIndex(value)
	if loc == nil {
		return value, false
	}
	expanded := r.Pattern.ExpandString(nil, r.Replacement, value, loc)
	return value[:loc[0]] + string(expanded) + value[loc[1]:], true
}

// TextBinder rewrites literal values with the first matching rule.
// The language tag and datatype of the literal are kept.
type TextBinder struct {
	Base
	rules []TextRule
}

// NewTextBinder creates a TextBinder. Rules are tried in order.
func NewTextBinder(rules ...TextRule) *TextBinder {
	return &TextBinder{rules: rules}
}

// VisitLiteral applies the first rule whose pattern matches.
func (b *TextBinder) VisitLiteral(w *Walker, lit rdf.Literal) (Replacement, error) {
	for _, rule := range b.rules {
		value, ok := rule.Apply(lit.Value)
		if !ok {
			continue
		}
		if value == lit.Value {
			return NoChange, nil
		}
		out := lit
		out.Value = value
		return ReplaceWith(out), nil
	}
	return NoChange, nil
}

// Bind implements Binder.
func (b *TextBinder) Bind(node sparql.Node, opts ...Option) (sparql.Node, error) {
	return Walk(b, node, opts...)
}
