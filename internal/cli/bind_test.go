package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybinder/internal/binder"
	"github.com/roach88/querybinder/internal/sparql"
)

func TestBindToStdout(t *testing.T) {
	out, _, err := execute(NewBindCommand(&RootOptions{Format: "text"}),
		filepath.Join(queriesDir, "select_user.json"),
		"--rules", filepath.Join(rulesDir, "with_user.cue"))
	require.NoError(t, err)

	node, err := sparql.DecodeJSON([]byte(out))
	require.NoError(t, err)
	vars, err := binder.CollectVariables(node)
	require.NoError(t, err)
	// The projection keeps ?user, the triple subject is bound
	assert.Equal(t, []string{"name", "user"}, vars)
	assert.Contains(t, out, "http://example.org/alice")
}

func TestBindJSONReport(t *testing.T) {
	out, _, err := execute(NewBindCommand(&RootOptions{Format: "json"}),
		filepath.Join(queriesDir, "select_user.json"),
		"--rules", filepath.Join(rulesDir, "with_user.cue"))
	require.NoError(t, err)

	status, result, _ := decodeResponse[BindResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, 1, result.Replaced)
	assert.Equal(t, 0, result.Spliced)
	assert.Empty(t, result.Skipped)
	assert.False(t, result.Cached)
	assert.Empty(t, result.RewriteID)
	assert.Len(t, result.InputFingerprint, 64)
	assert.Len(t, result.RulesFingerprint, 64)
	assert.NotEqual(t, result.InputFingerprint, result.OutputFingerprint)
	assert.NotNil(t, result.Output)
}

func TestBindDoesNotModifyInput(t *testing.T) {
	src, err := os.ReadFile(filepath.Join(queriesDir, "select_user.json"))
	require.NoError(t, err)
	input := writeFile(t, t.TempDir(), "query.json", string(src))

	_, _, err = execute(NewBindCommand(&RootOptions{Format: "text"}),
		input, "--rules", filepath.Join(rulesDir, "with_user.cue"))
	require.NoError(t, err)

	after, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, string(src), string(after))
}

func TestBindOutputFile(t *testing.T) {
	dir := t.TempDir()
	outputFile := filepath.Join(dir, "out.json")

	out, _, err := execute(NewBindCommand(&RootOptions{Format: "text"}),
		filepath.Join(queriesDir, "select_user.json"),
		"--rules", filepath.Join(rulesDir, "rename_name.cue"),
		"--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Rewrote")
	assert.Contains(t, out, "Wrote "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	node, err := sparql.DecodeJSON(data)
	require.NoError(t, err)
	vars, err := binder.CollectVariables(node)
	require.NoError(t, err)
	assert.Equal(t, []string{"label", "user"}, vars)
}

func TestBindSplicesPatterns(t *testing.T) {
	out, _, err := execute(NewBindCommand(&RootOptions{Format: "json"}),
		filepath.Join(queriesDir, "select_placeholder.json"),
		"--rules", filepath.Join(rulesDir, "expand_extra.cue"))
	require.NoError(t, err)

	_, result, _ := decodeResponse[BindResult](t, out)
	assert.Equal(t, 1, result.Spliced)
}

func TestBindStructuralMismatch(t *testing.T) {
	out, _, err := execute(NewBindCommand(&RootOptions{Format: "text"}),
		filepath.Join(queriesDir, "select_user.json"),
		"--rules", filepath.Join(rulesDir, "literal_subject.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [STRUCTURAL_MISMATCH]")
}

func TestBindStrictMode(t *testing.T) {
	input := filepath.Join(queriesDir, "select_extension.json")
	rules := filepath.Join(rulesDir, "pin_subject.cue")

	t.Run("lenient skips unknown kinds", func(t *testing.T) {
		out, _, err := execute(NewBindCommand(&RootOptions{Format: "json"}), input, "--rules", rules)
		require.NoError(t, err)

		_, result, _ := decodeResponse[BindResult](t, out)
		assert.Equal(t, 1, result.Replaced)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, "pattern lateral", result.Skipped[0].Kind)
	})

	t.Run("strict fails", func(t *testing.T) {
		out, _, err := execute(NewBindCommand(&RootOptions{Format: "json"}), input, "--rules", rules, "--strict")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		status, _, cliErr := decodeResponse[any](t, out)
		assert.Equal(t, "error", status)
		require.NotNil(t, cliErr)
		assert.Equal(t, "UNKNOWN_NODE_KIND", cliErr.Code)
	})
}

func TestBindInvalidRules(t *testing.T) {
	_, _, err := execute(NewBindCommand(&RootOptions{Format: "text"}),
		filepath.Join(queriesDir, "select_user.json"),
		"--rules", filepath.Join(rulesDir, "bad_regex.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBindMissingInput(t *testing.T) {
	out, _, err := execute(NewBindCommand(&RootOptions{Format: "text"}),
		filepath.Join(t.TempDir(), "missing.json"),
		"--rules", filepath.Join(rulesDir, "with_user.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "input not found")
}

func TestBindCache(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rewrites.db")
	args := []string{
		filepath.Join(queriesDir, "select_user.json"),
		"--rules", filepath.Join(rulesDir, "with_user.cue"),
		"--cache", db,
	}

	out, _, err := execute(NewBindCommand(&RootOptions{Format: "json"}), args...)
	require.NoError(t, err)
	_, first, _ := decodeResponse[BindResult](t, out)
	assert.False(t, first.Cached)
	require.NotEmpty(t, first.RewriteID)

	out, _, err = execute(NewBindCommand(&RootOptions{Format: "json"}), args...)
	require.NoError(t, err)
	_, second, _ := decodeResponse[BindResult](t, out)
	assert.True(t, second.Cached)
	assert.Equal(t, first.RewriteID, second.RewriteID)
	assert.Equal(t, first.OutputFingerprint, second.OutputFingerprint)
	assert.Equal(t, first.Replaced, second.Replaced)
	assert.Equal(t, first.Output, second.Output)
}

func TestBindCacheKeyedByRules(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rewrites.db")
	input := filepath.Join(queriesDir, "select_user.json")

	out, _, err := execute(NewBindCommand(&RootOptions{Format: "json"}),
		input, "--rules", filepath.Join(rulesDir, "with_user.cue"), "--cache", db)
	require.NoError(t, err)
	_, first, _ := decodeResponse[BindResult](t, out)

	out, _, err = execute(NewBindCommand(&RootOptions{Format: "json"}),
		input, "--rules", filepath.Join(rulesDir, "rename_name.cue"), "--cache", db)
	require.NoError(t, err)
	_, second, _ := decodeResponse[BindResult](t, out)

	assert.False(t, second.Cached)
	assert.NotEqual(t, first.RewriteID, second.RewriteID)
	assert.Equal(t, first.InputFingerprint, second.InputFingerprint)
}

func TestBindCacheHitKeepsSkipped(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rewrites.db")
	args := []string{
		filepath.Join(queriesDir, "select_extension.json"),
		"--rules", filepath.Join(rulesDir, "pin_subject.cue"),
		"--cache", db,
	}

	out, _, err := execute(NewBindCommand(&RootOptions{Format: "json"}), args...)
	require.NoError(t, err)
	_, first, _ := decodeResponse[BindResult](t, out)
	require.False(t, first.Cached)
	require.Len(t, first.Skipped, 1)

	out, _, err = execute(NewBindCommand(&RootOptions{Format: "json"}), args...)
	require.NoError(t, err)
	_, second, _ := decodeResponse[BindResult](t, out)
	assert.True(t, second.Cached)
	require.Len(t, second.Skipped, 1)
	assert.Equal(t, first.Skipped, second.Skipped)
	assert.Equal(t, "pattern lateral", second.Skipped[0].Kind)
}
