package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/querybinder/internal/canon"
)

// Snapshot is the golden summary of a scenario run. It holds only values
// that are stable across runs and machines.
type Snapshot struct {
	Scenario     string   `json:"scenario"`
	Rules        []string `json:"rules"`
	FailureCodes []string `json:"failure_codes,omitempty"`
	Replaced     int      `json:"replaced"`
	Spliced      int      `json:"spliced"`
	Skipped      int      `json:"skipped"`
	Variables    []string `json:"variables"`
	Identity     bool     `json:"identity"`
}

// NewSnapshot summarises result for golden comparison.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		Scenario:     name,
		Rules:        result.RuleNames,
		FailureCodes: result.FailureCodes,
		Replaced:     result.Report.Replaced,
		Spliced:      result.Report.Spliced,
		Skipped:      len(result.Report.Skipped),
		Variables:    result.Variables,
		Identity:     result.Identity(),
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. canon.MarshalCanonical only handles plain JSON shapes.
func (s Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{
		"scenario":  s.Scenario,
		"rules":     stringList(s.Rules),
		"replaced":  s.Replaced,
		"spliced":   s.Spliced,
		"skipped":   s.Skipped,
		"variables": stringList(s.Variables),
		"identity":  s.Identity,
	}
	if len(s.FailureCodes) > 0 {
		m["failure_codes"] = stringList(s.FailureCodes)
	}
	return m
}

// MarshalCanonical returns the snapshot as RFC 8785 canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return canon.MarshalCanonical(s.toCanonicalMap())
}

func stringList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(name, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
