package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/querybinder/internal/rdf"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Codes    []string // Failure codes of the run, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Codes) > 0 {
		fmt.Fprintf(&buf, "  Failure codes: %s\n", strings.Join(e.Codes, ", "))
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages. Assertions other than error_code fail when the run
// itself failed, since there is no output to inspect.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	if a.Type == AssertErrorCode {
		return assertErrorCode(result, a)
	}
	if result.Failed() {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a successful rewrite",
			Actual:   "rewrite failed",
			Codes:    result.FailureCodes,
		}
	}

	switch a.Type {
	case AssertVariablePresent:
		return assertVariable(result, a, true)
	case AssertVariableAbsent:
		return assertVariable(result, a, false)
	case AssertIdentity:
		if !result.Identity() {
			return &AssertionError{
				Type:     a.Type,
				Expected: "output identical to input",
				Actual:   fmt.Sprintf("fingerprint %s, input %s", result.OutputFingerprint, result.InputFingerprint),
			}
		}
	case AssertChanged:
		if result.Identity() {
			return &AssertionError{
				Type:     a.Type,
				Expected: "output differs from input",
				Actual:   "output identical to input",
			}
		}
	case AssertReplacedCount:
		return assertCount(a, result.Report.Replaced)
	case AssertSplicedCount:
		return assertCount(a, result.Report.Spliced)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertErrorCode checks that the run failed with the expected code.
func assertErrorCode(result *Result, a Assertion) error {
	if slices.Contains(result.FailureCodes, a.Code) {
		return nil
	}
	actual := "rewrite succeeded"
	if result.Failed() {
		actual = "different failure codes"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("failure with code %s", a.Code),
		Actual:   actual,
		Codes:    result.FailureCodes,
	}
}

func assertVariable(result *Result, a Assertion, want bool) error {
	name := rdf.NewVariable(a.Variable).Value
	_, found := slices.BinarySearch(result.Variables, name)
	if found == want {
		return nil
	}
	expected, actual := "variable ?"+name+" in output", "not found"
	if !want {
		expected, actual = "no variable ?"+name+" in output", "found"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: expected,
		Actual:   fmt.Sprintf("%s (variables: %v)", actual, result.Variables),
	}
}

func assertCount(a Assertion, got int) error {
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d", *a.Count),
		Actual:   fmt.Sprintf("%d", got),
	}
}
