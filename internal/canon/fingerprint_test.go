package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAST() map[string]any {
	return map[string]any{
		"type":      "query",
		"queryType": "SELECT",
		"where": []any{
			map[string]any{"type": "bgp", "triples": []any{}},
		},
	}
}

func TestQueryFingerprintDeterminism(t *testing.T) {
	fp1, err := QueryFingerprint(sampleAST())
	require.NoError(t, err)
	fp2, err := QueryFingerprint(sampleAST())
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintDomainSeparation(t *testing.T) {
	v := sampleAST()
	assert.NotEqual(t, MustQueryFingerprint(v), MustRulesFingerprint(v))
}

func TestQueryFingerprintChangesWithInput(t *testing.T) {
	a := sampleAST()
	b := sampleAST()
	b["queryType"] = "ASK"
	assert.NotEqual(t, MustQueryFingerprint(a), MustQueryFingerprint(b))
}

func TestFingerprintRejectsFloats(t *testing.T) {
	_, err := QueryFingerprint(map[string]any{"limit": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), DomainQuery)
}

func TestRewriteKey(t *testing.T) {
	k1 := RewriteKey("aa", "bb")
	assert.Len(t, k1, 64)
	assert.Equal(t, k1, RewriteKey("aa", "bb"))
	assert.NotEqual(t, k1, RewriteKey("bb", "aa"))
	// The separator keeps boundaries unambiguous
	assert.NotEqual(t, RewriteKey("a", "abb"), RewriteKey("aa", "bb"))
}

func TestMustPanicsOnInvalidInput(t *testing.T) {
	assert.Panics(t, func() { MustQueryFingerprint(2.5) })
}
