package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/querybinder/internal/sparql"
	"github.com/roach88/querybinder/internal/testutil"
)

const testRulesFP = "rules-fp-1"

// createTestStore creates a new file-backed store for testing with
// deterministic IDs and one stored rule set (testRulesFP).
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDGenerator("rw")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	err = s.PutRuleSet(context.Background(), RuleSetRecord{
		Fingerprint: testRulesFP,
		Rules:       `[]`,
		Names:       []string{"withUser"},
		Seq:         1,
	})
	if err != nil {
		t.Fatalf("PutRuleSet() failed: %v", err)
	}
	return s
}

// testQuery builds a small SELECT whose object literal varies with label.
func testQuery(label string) *sparql.Query {
	return testutil.Select([]string{"s"},
		testutil.BGP(testutil.T(testutil.Var("s"), testutil.IRI("http://example.org/label"), testutil.Lit(label))))
}

// createTestRewrite fingerprints a rewrite of testQuery(in) into testQuery(out).
func createTestRewrite(t *testing.T, in, out string) Rewrite {
	t.Helper()
	rw, err := NewRewrite(testQuery(in), testQuery(out), testRulesFP)
	if err != nil {
		t.Fatalf("NewRewrite() failed: %v", err)
	}
	return rw
}
