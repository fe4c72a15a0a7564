package harness

import (
	"github.com/roach88/querybinder/internal/binder"
	"github.com/roach88/querybinder/internal/compiler"
	"github.com/roach88/querybinder/internal/sparql"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// RuleNames lists the compiled rules in application order.
	RuleNames []string `json:"rules"`

	// Warnings are the cycle warnings of the rule set.
	Warnings []compiler.CycleWarning `json:"warnings,omitempty"`

	// FailureCodes holds the validation or bind codes of a run that did
	// not produce an output. Empty when the rewrite succeeded.
	FailureCodes []string `json:"failure_codes,omitempty"`

	// Report counts what the walk did.
	Report binder.Report `json:"report"`

	// Output is the rewritten tree, nil when the run failed.
	Output sparql.Node `json:"-"`

	// Variables are the sorted variable names left in Output.
	Variables []string `json:"variables"`

	InputFingerprint  string `json:"input_fingerprint"`
	RulesFingerprint  string `json:"rules_fingerprint,omitempty"`
	OutputFingerprint string `json:"output_fingerprint,omitempty"`

	// RewriteID is the cache record the run wrote.
	RewriteID string `json:"rewrite_id,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:         true,
		Errors:       []string{},
		RuleNames:    []string{},
		FailureCodes: []string{},
		Variables:    []string{},
	}
}

// AddError adds an assertion error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether the rewrite itself failed.
func (r *Result) Failed() bool {
	return len(r.FailureCodes) > 0
}

// Identity reports whether the rewrite left the tree unchanged.
func (r *Result) Identity() bool {
	return !r.Failed() && r.OutputFingerprint == r.InputFingerprint
}
