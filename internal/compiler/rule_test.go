package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybinder/internal/binder"
	"github.com/roach88/querybinder/internal/canon"
	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
	"github.com/roach88/querybinder/internal/testutil"
)

func TestRuleSetBinderAppliesInOrder(t *testing.T) {
	set := loadRules(t)
	b, err := set.Binder()
	require.NoError(t, err)

	q := testutil.Select([]string{"user"},
		testutil.BGP(
			testutil.T(testutil.Var("user"), testutil.IRI("http://example.org/label"), testutil.Lit("  hi  ")),
			testutil.T(testutil.Var("s"), testutil.Var("rel"), testutil.Var("o")),
		),
		testutil.Filter(testutil.Var("extra")),
	)
	before := sparql.Clone(q)

	out, err := binder.Apply(b, q)
	require.NoError(t, err)
	assert.Equal(t, before, q, "input is left untouched")

	got := out.(*sparql.Query)
	require.Len(t, got.Where, 2)

	first := got.Where[0].(*sparql.BGP)
	assert.Equal(t, rdf.NewIRI("http://example.org/alice"), first.Triples[0].Subject)
	assert.Equal(t, rdf.NewLiteral("hi"), first.Triples[0].Object)
	path, ok := first.Triples[1].Predicate.(*sparql.PropertyPath)
	require.True(t, ok, "?rel becomes a path")
	assert.Equal(t, sparql.PathSequence, path.PathType)

	// The expansion lands after the value pass, so ?user stays a variable,
	// and before the rename pass, so ?name is renamed.
	expansion := got.Where[1].(*sparql.BGP)
	assert.Equal(t, rdf.NewVariable("user"), expansion.Triples[0].Subject)
	assert.Equal(t, rdf.NewVariable("userName"), expansion.Triples[0].Object)

	// Projection is a declaration and keeps its variable.
	assert.Equal(t, []sparql.Node{rdf.NewVariable("user")}, got.Variables)
}

func TestRuleBinderRejectsInvalidRule(t *testing.T) {
	r := &Rule{Name: "broken", Kind: KindText, Text: []TextRuleSpec{{Pattern: "("}}}

	_, err := r.Binder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule broken: [E106]")

	set := &RuleSet{Rules: []Rule{{Name: "ok", Kind: KindRename, From: "a", To: "b"}, *r}}
	_, err = set.Binder()
	assert.Error(t, err)
}

func TestRuleBinderKinds(t *testing.T) {
	set := loadRules(t)
	for _, r := range set.Rules {
		b, err := r.Binder()
		require.NoError(t, err, r.Name)

		switch r.Kind {
		case KindValue:
			assert.IsType(t, &binder.ValueBinder{}, b)
		case KindPath:
			assert.IsType(t, &binder.PathBinder{}, b)
		case KindText:
			assert.IsType(t, &binder.TextBinder{}, b)
		case KindPattern:
			assert.IsType(t, &binder.PatternBinder{}, b)
		case KindRename:
			assert.IsType(t, &binder.RenameBinder{}, b)
		}
	}
}

func TestRulesFingerprintStable(t *testing.T) {
	first, err := loadRules(t).ToJSONValue()
	require.NoError(t, err)
	second, err := loadRules(t).ToJSONValue()
	require.NoError(t, err)

	fp1, err := canon.RulesFingerprint(first)
	require.NoError(t, err)
	fp2, err := canon.RulesFingerprint(second)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestRulesFingerprintIgnoresDescription(t *testing.T) {
	src := `rule: r: {kind: "rename", from: "a", to: "b", description: "%s"}`

	a, err := CompileSource("a.cue", strings.Replace(src, "%s", "one", 1))
	require.NoError(t, err)
	b, err := CompileSource("b.cue", "\n\n"+strings.Replace(src, "%s", "two", 1))
	require.NoError(t, err)

	va, err := a.ToJSONValue()
	require.NoError(t, err)
	vb, err := b.ToJSONValue()
	require.NoError(t, err)
	assert.Equal(t, canon.MustRulesFingerprint(va), canon.MustRulesFingerprint(vb))
}

func TestRulesFingerprintTracksOrder(t *testing.T) {
	forward := &RuleSet{Rules: []Rule{
		{Name: "x", Kind: KindRename, From: "a", To: "b"},
		{Name: "y", Kind: KindRename, From: "b", To: "c"},
	}}
	backward := &RuleSet{Rules: []Rule{forward.Rules[1], forward.Rules[0]}}

	vf, err := forward.ToJSONValue()
	require.NoError(t, err)
	vb, err := backward.ToJSONValue()
	require.NoError(t, err)
	assert.NotEqual(t, canon.MustRulesFingerprint(vf), canon.MustRulesFingerprint(vb))
}
