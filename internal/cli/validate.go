package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querybinder/internal/compiler"
	"github.com/roach88/querybinder/internal/sparql"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Rules string // optional rules path validated alongside the tree
}

// ValidationIssue is one problem found by validate.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <ast.json>",
		Short: "Check a syntax tree without rewriting it",
		Long: `Validate a JSON AST against the structural rules the binders enforce:
term kinds per slot, VALUES row keys and cells, and property path arity.

Every problem is reported, not just the first. With --rules the rule files
are validated too.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rules file or directory to validate as well")

	return cmd
}

func runValidate(opts *ValidateOptions, astPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	node, err := readAST(astPath)
	if err != nil {
		code, message := errorCode(err)
		return outputValidateError(formatter, code, message, nil)
	}
	formatter.VerboseLog("Validating %s (%s)", astPath, sparql.Describe(node))

	var issues []ValidationIssue
	for _, verr := range sparql.Validate(node) {
		issues = append(issues, ValidationIssue{
			Field:   verr.Field,
			Message: verr.Message,
			Code:    verr.Code,
		})
	}

	if opts.Rules != "" {
		ruleIssues, err := validateRules(opts.Rules, formatter)
		if err != nil {
			code, message := errorCode(err)
			return outputValidateError(formatter, code, message, nil)
		}
		issues = append(issues, ruleIssues...)
	}

	if len(issues) > 0 {
		return outputValidationErrors(formatter, issues)
	}
	return outputValidateSuccess(formatter)
}

// validateRules loads rules in collect-all mode and turns validation and
// compile errors into issues. Errors that prevent loading anything are
// returned as is.
func validateRules(path string, formatter *OutputFormatter) ([]ValidationIssue, error) {
	loadResult, loadErrors := LoadRules(path, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}
	formatter.VerboseLog("Validating %d rule(s) from %d file(s)", len(loadResult.RuleSet.Rules), len(loadResult.Files))

	var issues []ValidationIssue
	for _, err := range loadErrors {
		var verr compiler.ValidationError
		if errors.As(err, &verr) {
			issues = append(issues, ValidationIssue{
				Field:   verr.Field,
				Message: verr.Message,
				Code:    verr.Code,
				Line:    verr.Line,
			})
			continue
		}
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			issue := ValidationIssue{Field: "rules", Message: loadErr.Message, Code: loadErr.Code}
			if loadErr.Pos.IsValid() {
				issue.Line = loadErr.Pos.Line()
			}
			issues = append(issues, issue)
			continue
		}
		issues = append(issues, ValidationIssue{Field: "rules", Message: err.Error(), Code: ErrCodeGeneric})
	}
	return issues, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Valid")
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Unreadable input is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.JSON() {
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: issues,
			},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, issue.Field, issue.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
