package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenarioDir creates input and rules files next to a scenario file
// and returns the scenario path.
func writeScenarioDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "query.json"), []byte(`{"type":"query","queryType":"SELECT","variables":"*","where":[]}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.cue"), []byte(`rule: r: {kind: "rename", from: "a", to: "b"}`), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenarioDir(t, `
name: test_scenario
description: "Test scenario for validation"
input: query.json
rules: rules.cue
strict: true
assertions:
  - type: variable_absent
    variable: a
  - type: replaced_count
    count: 0
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.True(t, scenario.Strict)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "query.json"), scenario.Input)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "rules.cue"), scenario.Rules)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, "a", scenario.Assertions[0].Variable)
	require.NotNil(t, scenario.Assertions[1].Count)
	assert.Equal(t, 0, *scenario.Assertions[1].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenarioDir(t, `
name: typo
input: query.json
rules: rules.cue
assertion:
  - type: identity
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "input: query.json\nrules: rules.cue\nassertions: [{type: identity}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing input",
			content: "name: x\nrules: rules.cue\nassertions: [{type: identity}]\n",
			wantErr: "input is required",
		},
		{
			name:    "missing rules",
			content: "name: x\ninput: query.json\nassertions: [{type: identity}]\n",
			wantErr: "rules is required",
		},
		{
			name:    "no assertions",
			content: "name: x\ninput: query.json\nrules: rules.cue\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "input not found",
			content: "name: x\ninput: nope.json\nrules: rules.cue\nassertions: [{type: identity}]\n",
			wantErr: "file not found",
		},
		{
			name:    "assertion without type",
			content: "name: x\ninput: query.json\nrules: rules.cue\nassertions: [{variable: a}]\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "unknown assertion type",
			content: "name: x\ninput: query.json\nrules: rules.cue\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "error_code without code",
			content: "name: x\ninput: query.json\nrules: rules.cue\nassertions: [{type: error_code}]\n",
			wantErr: "code is required",
		},
		{
			name:    "variable assertion without variable",
			content: "name: x\ninput: query.json\nrules: rules.cue\nassertions: [{type: variable_present}]\n",
			wantErr: "variable is required for variable_present",
		},
		{
			name:    "count missing",
			content: "name: x\ninput: query.json\nrules: rules.cue\nassertions: [{type: spliced_count}]\n",
			wantErr: "count is required for spliced_count",
		},
		{
			name:    "negative count",
			content: "name: x\ninput: query.json\nrules: rules.cue\nassertions: [{type: replaced_count, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenarioDir(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	path := writeScenarioDir(t, "name: x\ninput: query.json\nrules: rules.cue\nassertions: [{type: identity}]\n")
	other := t.TempDir()

	_, err := LoadScenarioWithBasePath(path, other)
	require.Error(t, err, "paths resolve against the base, not the scenario file")
	assert.Contains(t, err.Error(), "file not found")

	s, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "query.json"), s.Input)
}

func TestLoadScenario_Fixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		_, err := LoadScenario(p)
		assert.NoError(t, err, p)
	}
}
