package compiler

import (
	"fmt"
	"regexp"
	"sort"

	"cuelang.org/go/cue/token"

	"github.com/roach88/querybinder/internal/binder"
	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// RuleKind selects the binder strategy a rule compiles to.
type RuleKind string

const (
	KindValue   RuleKind = "value"
	KindPath    RuleKind = "path"
	KindText    RuleKind = "text"
	KindPattern RuleKind = "pattern"
	KindRename  RuleKind = "rename"
)

// Rule is one compiled rewrite rule. Only the fields of its Kind are set.
type Rule struct {
	Name        string
	Kind        RuleKind
	Description string

	// value
	Bindings map[string]rdf.Term

	// path
	Paths map[string]*sparql.PropertyPath

	// text
	Text []TextRuleSpec

	// pattern
	Placeholder string
	Patterns    []sparql.Pattern

	// rename
	From string
	To   string

	// Pos is where the rule was declared, if it came from CUE.
	Pos token.Pos
}

// TextRuleSpec is a text rule before its pattern is compiled.
type TextRuleSpec struct {
	Pattern     string
	Replacement string
	All         bool
}

// RuleSet is an ordered list of rules. Rules apply in declaration order.
type RuleSet struct {
	Rules []Rule
}

// Binder builds the binder for r. Invalid rules are rejected with the
// first validation error.
func (r *Rule) Binder() (binder.Binder, error) {
	if errs := validateRule(r, ""); len(errs) > 0 {
		return nil, fmt.Errorf("rule %s: %w", r.Name, errs[0])
	}

	switch r.Kind {
	case KindValue:
		return binder.NewValueBinder(r.Bindings), nil
	case KindPath:
		return binder.NewPathBinder(r.Paths)
	case KindText:
		rules := make([]binder.TextRule, 0, len(r.Text))
		for _, spec := range r.Text {
			re, err := regexp.Compile(spec.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", r.Name, err)
			}
			rules = append(rules, binder.TextRule{Pattern: re, Replacement: spec.Replacement, All: spec.All})
		}
		return binder.NewTextBinder(rules...), nil
	case KindPattern:
		return binder.NewPatternBinder(r.Placeholder, r.Patterns), nil
	case KindRename:
		return binder.NewRenameBinder(r.From, r.To), nil
	}
	return nil, fmt.Errorf("rule %s: unknown kind %q", r.Name, r.Kind)
}

// Binder chains the binders of every rule in declaration order.
func (s *RuleSet) Binder() (binder.Binder, error) {
	binders := make([]binder.Binder, 0, len(s.Rules))
	for i := range s.Rules {
		b, err := s.Rules[i].Binder()
		if err != nil {
			return nil, err
		}
		binders = append(binders, b)
	}
	return binder.NewChain(binders...), nil
}

// Names returns the rule names in declaration order.
func (s *RuleSet) Names() []string {
	names := make([]string, len(s.Rules))
	for i, r := range s.Rules {
		names[i] = r.Name
	}
	return names
}

// ToJSONValue renders the rule set as plain JSON values for
// canon.RulesFingerprint. Positions and descriptions are left out so that
// moving or commenting a rule does not change its fingerprint.
func (s *RuleSet) ToJSONValue() ([]any, error) {
	out := make([]any, 0, len(s.Rules))
	for i := range s.Rules {
		v, err := s.Rules[i].toJSONValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Rule) toJSONValue() (map[string]any, error) {
	m := map[string]any{
		"name": r.Name,
		"kind": string(r.Kind),
	}
	switch r.Kind {
	case KindValue:
		bindings := make(map[string]any, len(r.Bindings))
		for name, term := range r.Bindings {
			v, err := sparql.ToJSONValue(term)
			if err != nil {
				return nil, fmt.Errorf("rule %s: binding %s: %w", r.Name, name, err)
			}
			bindings[name] = v
		}
		m["bindings"] = bindings
	case KindPath:
		paths := make(map[string]any, len(r.Paths))
		for _, name := range sortedPathNames(r.Paths) {
			v, err := sparql.ToJSONValue(r.Paths[name])
			if err != nil {
				return nil, fmt.Errorf("rule %s: path %s: %w", r.Name, name, err)
			}
			paths[name] = v
		}
		m["paths"] = paths
	case KindText:
		rules := make([]any, len(r.Text))
		for i, t := range r.Text {
			rules[i] = map[string]any{"pattern": t.Pattern, "replacement": t.Replacement, "all": t.All}
		}
		m["rules"] = rules
	case KindPattern:
		patterns := make([]any, len(r.Patterns))
		for i, p := range r.Patterns {
			v, err := sparql.ToJSONValue(p)
			if err != nil {
				return nil, fmt.Errorf("rule %s: patterns[%d]: %w", r.Name, i, err)
			}
			patterns[i] = v
		}
		m["placeholder"] = r.Placeholder
		m["patterns"] = patterns
	case KindRename:
		m["from"] = r.From
		m["to"] = r.To
	}
	return m, nil
}

func sortedPathNames(paths map[string]*sparql.PropertyPath) []string {
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedTermNames(terms map[string]rdf.Term) []string {
	names := make([]string, 0, len(terms))
	for name := range terms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
