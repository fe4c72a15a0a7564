package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is the path of the JSON AST to rewrite.
	Input string `yaml:"input"`

	// Rules is the path of the CUE rule file to apply.
	Rules string `yaml:"rules"`

	// Strict fails the walk on unknown node kinds instead of skipping them.
	Strict bool `yaml:"strict,omitempty"`

	// Assertions validate the rewrite.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a rewrite.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Variable is the variable name (variable_present, variable_absent).
	// A leading ? or $ is ignored.
	Variable string `yaml:"variable,omitempty"`

	// Code is the expected failure code (error_code): a bind error code
	// such as STRUCTURAL_MISMATCH or a rule validation code such as E106.
	Code string `yaml:"code,omitempty"`

	// Count is the expected counter value (replaced_count, spliced_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertErrorCode       = "error_code"
	AssertVariablePresent = "variable_present"
	AssertVariableAbsent  = "variable_absent"
	AssertIdentity        = "identity"
	AssertChanged         = "changed"
	AssertReplacedCount   = "replaced_count"
	AssertSplicedCount    = "spliced_count"
)

// LoadScenario reads and parses a scenario YAML file. Input and rules
// paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving input and rules paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Input = resolve(basePath, scenario.Input)
	scenario.Rules = resolve(basePath, scenario.Rules)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Input == "" {
		return fmt.Errorf("input is required")
	}
	if s.Rules == "" {
		return fmt.Errorf("rules is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range []string{s.Input, s.Rules} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertErrorCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	case AssertVariablePresent, AssertVariableAbsent:
		if a.Variable == "" {
			return fmt.Errorf("assertions[%d]: variable is required for %s", index, a.Type)
		}
	case AssertIdentity, AssertChanged:
	case AssertReplacedCount, AssertSplicedCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
