package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario lays out a one-scenario directory: a query, a rule file
// and the scenario YAML referring to both.
func writeScenario(t *testing.T, assertions string) string {
	t.Helper()
	dir := t.TempDir()

	src, err := os.ReadFile(filepath.Join(queriesDir, "select_user.json"))
	require.NoError(t, err)
	writeFile(t, dir, "queries/select_user.json", string(src))
	writeFile(t, dir, "rules/with_user.cue", withUserRule)
	writeFile(t, dir, "bind_user.yaml", `name: bind_user
input: queries/select_user.json
rules: rules/with_user.cue
assertions:
`+assertions)
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	status, result, _ := decodeResponse[TestResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Scenarios)
}

func TestTestCommandHarnessFixtures(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bind_user")
	assert.Contains(t, out, "✓ strict_extension")
	assert.Contains(t, out, "Test Summary: 8 passed, 0 failed, 8 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "json"}), scenariosDir, "--filter", "*_extension")
	require.NoError(t, err)

	_, result, _ := decodeResponse[TestResult](t, out)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := writeScenario(t, "  - type: replaced_count\n    count: 5\n")

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	status, result, cliErr := decodeResponse[TestResult](t, out)
	assert.Equal(t, "error", status)
	require.NotNil(t, cliErr)
	assert.Equal(t, "E_TEST_FAILED", cliErr.Code)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	require.NotEmpty(t, result.Scenarios[0].Errors)
	assert.Contains(t, result.Scenarios[0].Errors[0], "replaced_count")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\nassertion: []\n")

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGolden(t *testing.T) {
	dir := writeScenario(t, "  - type: changed\n")
	golden := filepath.Join(dir, "golden", "bind_user.golden")

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bind_user")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t,
		`{"identity":false,"replaced":1,"rules":["withUser"],"scenario":"bind_user","skipped":0,"spliced":0,"variables":["name","user"]}`,
		string(data))

	// Matches the golden it just wrote
	_, _, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario":"stale"}`), 0644))
	out, _, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestTestCommandBasePath(t *testing.T) {
	dir := writeScenario(t, "  - type: changed\n")
	scenarios := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	require.NoError(t, os.Rename(filepath.Join(dir, "bind_user.yaml"), filepath.Join(scenarios, "bind_user.yaml")))

	_, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), scenarios)
	require.Error(t, err)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), scenarios, "--base", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bind_user")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "test1.yaml", "")
	writeFile(t, dir, "test2.yml", "")
	writeFile(t, dir, "ignore.txt", "")
	writeFile(t, dir, "subdir/sub.yaml", "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bind-user.yaml", "")
	writeFile(t, dir, "bind-path.yaml", "")
	writeFile(t, dir, "rename.yaml", "")

	files, err := findScenarioFiles(dir, "bind-*")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "bind-path.yaml"),
		filepath.Join(dir, "bind-user.yaml"),
	}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		file, name, expected string
	}{
		{"/path/to/scenario.yaml", "scenario", "/path/to/golden/scenario.golden"},
		{"/path/to/file.yml", "named", "/path/to/golden/named.golden"},
		{"scenarios/test.yaml", "test", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		assert.Equal(t, filepath.FromSlash(tc.expected), goldenFilePath(filepath.FromSlash(tc.file), tc.name))
	}
}
