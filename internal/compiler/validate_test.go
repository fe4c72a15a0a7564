package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

func codesOf(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

// =============================================================================
// Rule Validation Tests
// =============================================================================

func TestValidateRuleValid(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"value", Rule{Name: "v", Kind: KindValue, Bindings: map[string]rdf.Term{"?user": rdf.NewIRI("http://a")}}},
		{"path", Rule{Name: "p", Kind: KindPath, Paths: map[string]*sparql.PropertyPath{
			"rel": {PathType: sparql.PathOneOrMore, Items: []sparql.Node{rdf.NewIRI("http://knows")}},
		}}},
		{"text", Rule{Name: "t", Kind: KindText, Text: []TextRuleSpec{{Pattern: "a+", Replacement: "b"}}}},
		{"pattern", Rule{Name: "x", Kind: KindPattern, Placeholder: "extra", Patterns: []sparql.Pattern{&sparql.BGP{}}}},
		{"rename", Rule{Name: "r", Kind: KindRename, From: "a", To: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Validate(&tt.rule))
			assert.Empty(t, Validate(tt.rule), "value form validates the same")
		})
	}
}

func TestValidateRuleErrors(t *testing.T) {
	tests := []struct {
		name      string
		rule      Rule
		wantCodes []string
		wantField string
	}{
		{
			name:      "missing name",
			rule:      Rule{Kind: KindRename, From: "a", To: "b"},
			wantCodes: []string{ErrRuleNameEmpty},
			wantField: "name",
		},
		{
			name:      "unknown kind",
			rule:      Rule{Name: "r", Kind: "regex"},
			wantCodes: []string{ErrUnknownRuleKind},
			wantField: "kind",
		},
		{
			name:      "empty bindings",
			rule:      Rule{Name: "r", Kind: KindValue},
			wantCodes: []string{ErrRuleEmpty},
			wantField: "bindings",
		},
		{
			name:      "bad binding name",
			rule:      Rule{Name: "r", Kind: KindValue, Bindings: map[string]rdf.Term{"not a var": rdf.NewIRI("http://a")}},
			wantCodes: []string{ErrInvalidVariableName},
			wantField: "bindings.not a var",
		},
		{
			name:      "nil binding",
			rule:      Rule{Name: "r", Kind: KindValue, Bindings: map[string]rdf.Term{"x": nil}},
			wantCodes: []string{ErrInvalidBindingTerm},
			wantField: "bindings.x",
		},
		{
			name:      "default graph binding",
			rule:      Rule{Name: "r", Kind: KindValue, Bindings: map[string]rdf.Term{"x": rdf.DefaultGraph{}}},
			wantCodes: []string{ErrInvalidBindingTerm},
			wantField: "bindings.x",
		},
		{
			name: "malformed path",
			rule: Rule{Name: "r", Kind: KindPath, Paths: map[string]*sparql.PropertyPath{
				"rel": {PathType: sparql.PathInverse},
			}},
			wantCodes: []string{ErrMalformedPath},
			wantField: "paths.rel",
		},
		{
			name:      "bad regexp",
			rule:      Rule{Name: "r", Kind: KindText, Text: []TextRuleSpec{{Pattern: "(", Replacement: ""}}},
			wantCodes: []string{ErrInvalidTextPattern},
			wantField: "rules[0].pattern",
		},
		{
			name:      "no text rules",
			rule:      Rule{Name: "r", Kind: KindText},
			wantCodes: []string{ErrRuleEmpty},
			wantField: "rules",
		},
		{
			name:      "bad placeholder",
			rule:      Rule{Name: "r", Kind: KindPattern, Placeholder: ""},
			wantCodes: []string{ErrInvalidVariableName},
			wantField: "placeholder",
		},
		{
			name:      "nil expansion pattern",
			rule:      Rule{Name: "r", Kind: KindPattern, Placeholder: "p", Patterns: []sparql.Pattern{nil}},
			wantCodes: []string{ErrInvalidPattern},
			wantField: "patterns[0]",
		},
		{
			name: "malformed expansion",
			rule: Rule{Name: "r", Kind: KindPattern, Placeholder: "p", Patterns: []sparql.Pattern{
				&sparql.BGP{Triples: []*sparql.Triple{{Subject: rdf.NewLiteral("x"), Predicate: rdf.NewIRI("http://p"), Object: rdf.NewIRI("http://o")}}},
			}},
			wantCodes: []string{ErrInvalidPattern},
			wantField: "patterns[0].triples[0].subject",
		},
		{
			name:      "rename to itself",
			rule:      Rule{Name: "r", Kind: KindRename, From: "?a", To: "a"},
			wantCodes: []string{ErrRenameSameName},
			wantField: "to",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&tt.rule)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.wantCodes, codesOf(errs))
			assert.Equal(t, tt.wantField, errs[0].Field)
		})
	}
}

func TestValidateRuleCollectsAll(t *testing.T) {
	rule := &Rule{Kind: KindRename, From: "bad name", To: "bad name"}

	errs := Validate(rule)
	assert.Equal(t, []string{ErrRuleNameEmpty, ErrInvalidVariableName, ErrInvalidVariableName, ErrRenameSameName}, codesOf(errs))
}

func TestValidateExtensionPatternAllowed(t *testing.T) {
	rule := &Rule{Name: "r", Kind: KindPattern, Placeholder: "p", Patterns: []sparql.Pattern{
		&sparql.Extension{Type: "lateral"},
	}}
	assert.Empty(t, Validate(rule))
}

func TestValidateRuleSetDuplicateNames(t *testing.T) {
	set := &RuleSet{Rules: []Rule{
		{Name: "r", Kind: KindRename, From: "a", To: "b"},
		{Name: "r", Kind: KindRename, From: "b", To: "c"},
	}}

	errs := Validate(set)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateName, errs[0].Code)
	assert.Equal(t, "rules[1].name", errs[0].Field)
	assert.Empty(t, Validate(RuleSet{Rules: set.Rules[:1]}))
}

func TestValidateRuleSetPrefixesFields(t *testing.T) {
	set := &RuleSet{Rules: []Rule{
		{Name: "ok", Kind: KindRename, From: "a", To: "b"},
		{Name: "bad", Kind: KindValue},
	}}

	errs := Validate(set)
	require.Len(t, errs, 1)
	assert.Equal(t, "rules[1].bindings", errs[0].Field)
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a rule")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)
	assert.Contains(t, errs[0].Message, "string")
}

func TestValidationErrorFormat(t *testing.T) {
	assert.Equal(t, "[E101] name: rule name is required",
		ValidationError{Field: "name", Message: "rule name is required", Code: ErrRuleNameEmpty}.Error())
	assert.Equal(t, "[E105] line 4: rules[1].name: dup",
		ValidationError{Field: "rules[1].name", Message: "dup", Code: ErrDuplicateName, Line: 4}.Error())
}
