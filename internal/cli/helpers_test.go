package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// Fixtures shared with the harness package.
var (
	scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")
	queriesDir   = filepath.Join(scenariosDir, "queries")
	rulesDir     = filepath.Join(scenariosDir, "rules")
)

const withUserRule = `prefixes: ex: "http://example.org/"

rule: withUser: {
	kind: "value"
	bindings: user: {iri: "ex:alice"}
}
`

const renameRule = `rule: renameName: {
	kind: "rename"
	from: "name"
	to:   "label"
}
`

// invalidAST decodes but puts a literal in a subject and a predicate.
const invalidAST = `{
  "type": "query",
  "queryType": "SELECT",
  "variables": [{"termType": "Variable", "value": "s"}],
  "where": [
    {
      "type": "bgp",
      "triples": [
        {
          "subject": {"termType": "Literal", "value": "bad"},
          "predicate": {"termType": "NamedNode", "value": "http://example.org/p"},
          "object": {"termType": "Variable", "value": "o"}
        },
        {
          "subject": {"termType": "Variable", "value": "s"},
          "predicate": {"termType": "Literal", "value": "bad"},
          "object": {"termType": "Variable", "value": "o"}
        }
      ]
    }
  ]
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// decodeResponse decodes a JSON CLIResponse whose data is of type T.
func decodeResponse[T any](t *testing.T, out string) (string, T, *CLIError) {
	t.Helper()
	var resp struct {
		Status string    `json:"status"`
		Data   T         `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp.Status, resp.Data, resp.Error
}
