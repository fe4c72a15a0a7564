package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_FixturesPass(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), ".yaml")
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(p)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_RecordsRewrite(t *testing.T) {
	result, err := Run(loadFixture(t, "bind_user"))
	require.NoError(t, err)

	assert.Equal(t, []string{"withUser"}, result.RuleNames)
	assert.Equal(t, "rw-0001", result.RewriteID, "IDs are deterministic")
	assert.Len(t, result.InputFingerprint, 64)
	assert.Len(t, result.RulesFingerprint, 64)
	assert.Len(t, result.OutputFingerprint, 64)
	assert.NotEqual(t, result.InputFingerprint, result.OutputFingerprint)
	assert.NotNil(t, result.Output)
	assert.Empty(t, result.FailureCodes)
	assert.Equal(t, []string{"name", "user"}, result.Variables)
}

func TestRun_Deterministic(t *testing.T) {
	s := loadFixture(t, "expand_extra")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.OutputFingerprint, second.OutputFingerprint)
	assert.Equal(t, first.RulesFingerprint, second.RulesFingerprint)
	assert.Equal(t, first.RewriteID, second.RewriteID)
	assert.Equal(t, first.Report, second.Report)
}

func TestRun_ValidationFailure(t *testing.T) {
	result, err := Run(loadFixture(t, "bad_regex"))
	require.NoError(t, err, "invalid rules are a result, not a harness error")

	assert.True(t, result.Failed())
	assert.Equal(t, []string{"E106"}, result.FailureCodes)
	assert.Nil(t, result.Output)
	assert.Empty(t, result.RewriteID, "nothing is cached for a failed run")
	assert.False(t, result.Identity())
}

func TestRun_BindFailure(t *testing.T) {
	result, err := Run(loadFixture(t, "literal_subject"))
	require.NoError(t, err)

	assert.Equal(t, []string{"STRUCTURAL_MISMATCH"}, result.FailureCodes)
	assert.Nil(t, result.Output)
}

func TestRun_StrictAndLenient(t *testing.T) {
	lenient, err := Run(loadFixture(t, "skip_extension"))
	require.NoError(t, err)
	require.Len(t, lenient.Report.Skipped, 1)
	assert.Equal(t, "pattern lateral", lenient.Report.Skipped[0].Kind)

	strict, err := Run(loadFixture(t, "strict_extension"))
	require.NoError(t, err)
	assert.Equal(t, []string{"UNKNOWN_NODE_KIND"}, strict.FailureCodes)
}

func TestRun_FailingAssertions(t *testing.T) {
	s := loadFixture(t, "unbound_noop")
	s.Assertions = []Assertion{
		{Type: AssertChanged},
		{Type: AssertVariablePresent, Variable: "missing"},
		{Type: AssertErrorCode, Code: "E106"},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "assertion 0 (changed)")
	assert.Contains(t, result.Errors[1], "variable ?missing in output")
	assert.Contains(t, result.Errors[2], "rewrite succeeded")
}

func TestRun_MissingInput(t *testing.T) {
	s := loadFixture(t, "bind_user")
	s.Input = filepath.Join(t.TempDir(), "gone.json")

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input")
}

func TestRun_MalformedRules(t *testing.T) {
	s := loadFixture(t, "bind_user")
	s.Rules = filepath.Join(t.TempDir(), "broken.cue")
	require.NoError(t, os.WriteFile(s.Rules, []byte("rule: withUser: {kind: \"value\""), 0644))

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile rules")
}
