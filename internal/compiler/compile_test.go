package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

func loadRules(t *testing.T) *RuleSet {
	t.Helper()
	path := filepath.Join("testdata", "rules.cue")
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	set, err := CompileSource(path, string(src))
	require.NoError(t, err)
	return set
}

func TestCompileRuleSetFixture(t *testing.T) {
	set := loadRules(t)

	assert.Equal(t, []string{"withUser", "knowsPath", "trimText", "extraPatterns", "renameName"}, set.Names())
	assert.Empty(t, Validate(set))

	withUser := set.Rules[0]
	assert.Equal(t, KindValue, withUser.Kind)
	assert.Equal(t, "Pin the query to one user", withUser.Description)
	assert.Equal(t, rdf.NewIRI("http://example.org/alice"), withUser.Bindings["user"])
	assert.Equal(t, rdf.NewTypedLiteral("10", rdf.NewIRI(rdf.XSDInteger)), withUser.Bindings["limit"])
	assert.Equal(t, rdf.NewLangLiteral("Alice", "en"), withUser.Bindings["label"])
	assert.True(t, withUser.Pos.IsValid())
	assert.Equal(t, "rules.cue", filepath.Base(withUser.Pos.Filename()))

	knows := set.Rules[1]
	require.Contains(t, knows.Paths, "rel")
	assert.Equal(t, sparql.PathSequence, knows.Paths["rel"].PathType)
	assert.Len(t, knows.Paths["rel"].Items, 2)

	text := set.Rules[2]
	assert.Equal(t, []TextRuleSpec{{Pattern: `^\s+|\s+$`, Replacement: "", All: true}}, text.Text)

	pattern := set.Rules[3]
	assert.Equal(t, "extra", pattern.Placeholder)
	require.Len(t, pattern.Patterns, 1)
	bgp, ok := pattern.Patterns[0].(*sparql.BGP)
	require.True(t, ok)
	assert.Equal(t, rdf.NewVariable("name"), bgp.Triples[0].Object)

	rename := set.Rules[4]
	assert.Equal(t, "name", rename.From)
	assert.Equal(t, "userName", rename.To)
}

func TestCompileRuleFromPath(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		rule: swap: {
			kind: "rename"
			from: "?a"
			to:   "$b"
		}
	`)
	require.NoError(t, v.Err())

	rule, err := CompileRule(v.LookupPath(cue.ParsePath("rule.swap")))
	require.NoError(t, err)
	assert.Equal(t, "swap", rule.Name)
	assert.Equal(t, KindRename, rule.Kind)
	assert.Equal(t, "?a", rule.From)
	assert.Equal(t, "$b", rule.To)
}

func TestCompileTerms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want rdf.Term
	}{
		{"absolute iri", `{iri: "http://example.org/x"}`, rdf.NewIRI("http://example.org/x")},
		{"standard prefix", `{iri: "xsd:date"}`, rdf.NewIRI(rdf.NamespaceXSD + "date")},
		{"unknown prefix kept", `{iri: "urn:isbn:123"}`, rdf.NewIRI("urn:isbn:123")},
		{"plain literal", `{literal: "x"}`, rdf.NewLiteral("x")},
		{"typed literal", `{literal: "2024-01-01", datatype: "xsd:date"}`,
			rdf.NewTypedLiteral("2024-01-01", rdf.NewIRI(rdf.NamespaceXSD+"date"))},
		{"bool literal", `{literal: true}`, rdf.NewTypedLiteral("true", rdf.NewIRI(rdf.XSDBoolean))},
		{"blank", `{blank: "_:b0"}`, rdf.NewBlank("b0")},
		{"variable", `{variable: "?other"}`, rdf.NewVariable("other")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := CompileSource("terms.cue", `rule: r: {kind: "value", bindings: x: `+tt.src+`}`)
			require.NoError(t, err)
			require.Len(t, set.Rules, 1)
			assert.Equal(t, tt.want, set.Rules[0].Bindings["x"])
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"missing kind", `rule: r: {from: "a"}`, "rule.r.kind: kind is required"},
		{"missing bindings", `rule: r: {kind: "value"}`, "value rule requires bindings"},
		{"bad term", `rule: r: {kind: "value", bindings: x: {uri: "x"}}`, "term must have one of iri, literal, blank or variable"},
		{"lang and datatype", `rule: r: {kind: "value", bindings: x: {literal: "x", lang: "en", datatype: "xsd:string"}}`, "cannot have both lang and datatype"},
		{"float literal", `rule: r: {kind: "value", bindings: x: {literal: 1.5}}`, "literal must be a string, int or bool"},
		{"missing paths", `rule: r: {kind: "path"}`, "path rule requires paths"},
		{"missing replacement", `rule: r: {kind: "text", rules: [{pattern: "a"}]}`, "replacement is required"},
		{"bad pattern json", `rule: r: {kind: "pattern", placeholder: "p", patterns: {type: "bgp"}}`, "expected an array"},
		{"missing rename target", `rule: r: {kind: "rename", from: "a"}`, "to is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSource("bad.cue", tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)

			var cerr *CompileError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestCompileCUEErrorHasPosition(t *testing.T) {
	_, err := CompileSource("conflict.cue", `
rule: r: kind: "value"
rule: r: kind: "rename"
`)
	require.Error(t, err)

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "cue", cerr.Field)
	assert.True(t, cerr.Pos.IsValid())
	assert.Contains(t, err.Error(), "conflict.cue:")
}

func TestCompileUnknownKindLeftForValidate(t *testing.T) {
	set, err := CompileSource("kind.cue", `rule: r: kind: "regex"`)
	require.NoError(t, err)

	errs := Validate(set)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownRuleKind, errs[0].Code)
	assert.Equal(t, "rules[0].kind", errs[0].Field)
}

func TestCompileEmptySource(t *testing.T) {
	set, err := CompileSource("empty.cue", `prefixes: ex: "http://example.org/"`)
	require.NoError(t, err)
	assert.Empty(t, set.Rules)
}

func TestCompileEmptyPatternList(t *testing.T) {
	set, err := CompileSource("drop.cue", `rule: drop: {kind: "pattern", placeholder: "gone"}`)
	require.NoError(t, err)
	assert.Empty(t, set.Rules[0].Patterns)
	assert.Empty(t, Validate(set))
}
