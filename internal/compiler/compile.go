package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// CompileSource compiles CUE source text into a RuleSet. filename is used
// only for error positions.
func CompileSource(filename, src string) (*RuleSet, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return CompileRuleSet(v)
}

// CompileRuleSet parses every rule under the top-level "rule" field, in
// declaration order. An optional top-level "prefixes" struct declares
// prefixes usable in term IRIs on top of the standard ones.
//
//	prefixes: ex: "http://example.org/"
//	rule: withUser: {
//		kind: "value"
//		bindings: user: {iri: "ex:alice"}
//	}
//
// The result is not validated; run Validate on it before building binders.
func CompileRuleSet(v cue.Value) (*RuleSet, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}

	prefixes, err := parsePrefixes(v)
	if err != nil {
		return nil, err
	}

	set := &RuleSet{}
	ruleVal := v.LookupPath(cue.ParsePath("rule"))
	if !ruleVal.Exists() {
		return set, nil
	}

	iter, err := ruleVal.Fields()
	if err != nil {
		return nil, cueError(err)
	}
	for iter.Next() {
		rule, err := compileRule(iter.Label(), iter.Value(), prefixes)
		if err != nil {
			return nil, err
		}
		set.Rules = append(set.Rules, *rule)
	}
	return set, nil
}

// CompileRule parses a CUE value into a Rule.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the rule struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`rule: withUser: { kind: "value", ... }`)
//	rule, err := CompileRule(v.LookupPath(cue.ParsePath("rule.withUser")))
func CompileRule(v cue.Value) (*Rule, error) {
	var name string
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		name = labels[len(labels)-1].String()
	}
	return compileRule(name, v, sparql.DefaultPrefixSet())
}

func compileRule(name string, v cue.Value, prefixes *sparql.Prefixes) (*Rule, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}

	c := &ruleCompiler{name: name, prefixes: prefixes}
	rule := &Rule{Name: name, Pos: v.Pos()}

	// kind (required)
	kind, err := c.requiredString(v, "kind")
	if err != nil {
		return nil, err
	}
	rule.Kind = RuleKind(kind)

	// description (optional)
	if rule.Description, err = c.optionalString(v, "description"); err != nil {
		return nil, err
	}

	switch rule.Kind {
	case KindValue:
		rule.Bindings, err = c.bindings(v)
	case KindPath:
		rule.Paths, err = c.paths(v)
	case KindText:
		rule.Text, err = c.textRules(v)
	case KindPattern:
		if rule.Placeholder, err = c.requiredString(v, "placeholder"); err != nil {
			return nil, err
		}
		rule.Patterns, err = c.patterns(v)
	case KindRename:
		if rule.From, err = c.requiredString(v, "from"); err != nil {
			return nil, err
		}
		rule.To, err = c.requiredString(v, "to")
	default:
		// Left for Validate to report with the other rule problems.
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}

type ruleCompiler struct {
	name     string
	prefixes *sparql.Prefixes
}

func (c *ruleCompiler) errorf(v cue.Value, field, format string, args ...any) error {
	return &CompileError{
		Rule:    c.name,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Pos:     v.Pos(),
	}
}

func (c *ruleCompiler) requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", c.errorf(v, field, "%s is required", field)
	}
	s, err := fv.String()
	if err != nil {
		return "", cueError(err)
	}
	return s, nil
}

func (c *ruleCompiler) optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", cueError(err)
	}
	return s, nil
}

// bindings parses the "bindings" struct of a value rule.
func (c *ruleCompiler) bindings(v cue.Value) (map[string]rdf.Term, error) {
	bindingsVal := v.LookupPath(cue.ParsePath("bindings"))
	if !bindingsVal.Exists() {
		return nil, c.errorf(v, "bindings", "value rule requires bindings")
	}

	iter, err := bindingsVal.Fields()
	if err != nil {
		return nil, cueError(err)
	}
	out := make(map[string]rdf.Term)
	for iter.Next() {
		name := iter.Label()
		term, err := c.term(iter.Value(), "bindings."+name)
		if err != nil {
			return nil, err
		}
		out[name] = term
	}
	return out, nil
}

// term parses the short term forms {iri}, {literal, lang?, datatype?},
// {blank} and {variable}. IRIs may use a declared prefix.
func (c *ruleCompiler) term(v cue.Value, field string) (rdf.Term, error) {
	if iv := v.LookupPath(cue.ParsePath("iri")); iv.Exists() {
		s, err := iv.String()
		if err != nil {
			return nil, cueError(err)
		}
		return rdf.NewIRI(c.expand(s)), nil
	}

	if lv := v.LookupPath(cue.ParsePath("literal")); lv.Exists() {
		return c.literal(v, lv, field)
	}

	if bv := v.LookupPath(cue.ParsePath("blank")); bv.Exists() {
		s, err := bv.String()
		if err != nil {
			return nil, cueError(err)
		}
		return rdf.NewBlank(s), nil
	}

	if vv := v.LookupPath(cue.ParsePath("variable")); vv.Exists() {
		s, err := vv.String()
		if err != nil {
			return nil, cueError(err)
		}
		return rdf.NewVariable(s), nil
	}

	return nil, c.errorf(v, field, "term must have one of iri, literal, blank or variable")
}

// literal accepts a string, int or bool literal value. Ints and bools get
// xsd:integer and xsd:boolean unless a datatype is given.
func (c *ruleCompiler) literal(v, lv cue.Value, field string) (rdf.Term, error) {
	var value string
	datatype := rdf.XSDString

	switch lv.IncompleteKind() {
	case cue.StringKind:
		s, err := lv.String()
		if err != nil {
			return nil, cueError(err)
		}
		value = s
	case cue.IntKind:
		n, err := lv.Int64()
		if err != nil {
			return nil, cueError(err)
		}
		value = strconv.FormatInt(n, 10)
		datatype = rdf.XSDInteger
	case cue.BoolKind:
		b, err := lv.Bool()
		if err != nil {
			return nil, cueError(err)
		}
		value = strconv.FormatBool(b)
		datatype = rdf.XSDBoolean
	default:
		return nil, c.errorf(lv, field+".literal", "literal must be a string, int or bool, got %v", lv.IncompleteKind())
	}

	lang, err := c.optionalString(v, "lang")
	if err != nil {
		return nil, err
	}
	dt, err := c.optionalString(v, "datatype")
	if err != nil {
		return nil, err
	}

	switch {
	case lang != "" && dt != "":
		return nil, c.errorf(v, field, "literal cannot have both lang and datatype")
	case lang != "":
		return rdf.NewLangLiteral(value, lang), nil
	case dt != "":
		datatype = c.expand(dt)
	}
	return rdf.NewTypedLiteral(value, rdf.NewIRI(datatype)), nil
}

// expand resolves prefix:local against the rule set's prefixes. Anything
// else, including absolute IRIs, is returned unchanged.
func (c *ruleCompiler) expand(s string) string {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok || strings.HasPrefix(local, "//") {
		return s
	}
	if ns, ok := c.prefixes.Lookup(prefix); ok {
		return ns + local
	}
	return s
}

// paths parses the "paths" struct of a path rule. Each path is written in
// the JSON AST shape.
func (c *ruleCompiler) paths(v cue.Value) (map[string]*sparql.PropertyPath, error) {
	pathsVal := v.LookupPath(cue.ParsePath("paths"))
	if !pathsVal.Exists() {
		return nil, c.errorf(v, "paths", "path rule requires paths")
	}

	iter, err := pathsVal.Fields()
	if err != nil {
		return nil, cueError(err)
	}
	out := make(map[string]*sparql.PropertyPath)
	for iter.Next() {
		name := iter.Label()
		data, err := iter.Value().MarshalJSON()
		if err != nil {
			return nil, cueError(err)
		}
		p, err := sparql.DecodePath(data)
		if err != nil {
			return nil, c.errorf(iter.Value(), "paths."+name, "%v", err)
		}
		out[name] = p
	}
	return out, nil
}

// textRules parses the "rules" list of a text rule.
func (c *ruleCompiler) textRules(v cue.Value) ([]TextRuleSpec, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, c.errorf(v, "rules", "text rule requires rules")
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, cueError(err)
	}
	var out []TextRuleSpec
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		field := fmt.Sprintf("rules[%d]", i)

		var spec TextRuleSpec
		if spec.Pattern, err = c.requiredString(item, "pattern"); err != nil {
			return nil, err
		}
		replVal := item.LookupPath(cue.ParsePath("replacement"))
		if !replVal.Exists() {
			return nil, c.errorf(item, field+".replacement", "replacement is required")
		}
		if spec.Replacement, err = replVal.String(); err != nil {
			return nil, cueError(err)
		}
		if allVal := item.LookupPath(cue.ParsePath("all")); allVal.Exists() {
			if spec.All, err = allVal.Bool(); err != nil {
				return nil, cueError(err)
			}
		}
		out = append(out, spec)
	}
	return out, nil
}

// patterns parses the "patterns" list of a pattern rule. A missing or
// empty list makes the rule remove its placeholder.
func (c *ruleCompiler) patterns(v cue.Value) ([]sparql.Pattern, error) {
	patternsVal := v.LookupPath(cue.ParsePath("patterns"))
	if !patternsVal.Exists() {
		return nil, nil
	}
	data, err := patternsVal.MarshalJSON()
	if err != nil {
		return nil, cueError(err)
	}
	patterns, err := sparql.DecodePatterns(data)
	if err != nil {
		return nil, c.errorf(patternsVal, "patterns", "%v", err)
	}
	return patterns, nil
}

func parsePrefixes(v cue.Value) (*sparql.Prefixes, error) {
	prefixes := sparql.NewPrefixes(sparql.DefaultPrefixSet())

	prefixVal := v.LookupPath(cue.ParsePath("prefixes"))
	if !prefixVal.Exists() {
		return prefixes, nil
	}
	iter, err := prefixVal.Fields()
	if err != nil {
		return nil, cueError(err)
	}
	for iter.Next() {
		ns, err := iter.Value().String()
		if err != nil {
			return nil, cueError(err)
		}
		prefixes.Set(iter.Label(), ns)
	}
	return prefixes, nil
}
