package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/querybinder/internal/canon"
	"github.com/roach88/querybinder/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// RuleSummary describes one compiled rule.
type RuleSummary struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
}

// CompilationResult holds the compiled rule set summary.
type CompilationResult struct {
	Rules       []RuleSummary           `json:"rules"`
	Fingerprint string                  `json:"fingerprint"`
	Warnings    []compiler.CycleWarning `json:"warnings"`
	Files       int                     `json:"files"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules>",
		Short: "Compile CUE rules and report their fingerprint",
		Long: `Compile CUE binder rules (a file or a directory of .cue files).

The compiler parses and validates every rule, reports cycles between rules
as warnings, and prints the rule set fingerprint used as the cache key.
With --output the canonical JSON form of the rule set is written to a file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, rulesPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadRules(rulesPath, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := errorCode(loadErrors[0])
		return outputCompileError(formatter, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", len(loadResult.Files), rulesPath)
	for _, rule := range loadResult.RuleSet.Rules {
		formatter.VerboseLog("Compiled rule: %s (%s)", rule.Name, rule.Kind)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := &CompilationResult{
		Rules:       make([]RuleSummary, 0, len(loadResult.RuleSet.Rules)),
		Fingerprint: loadResult.Fingerprint,
		Warnings:    loadResult.Warnings,
		Files:       len(loadResult.Files),
	}
	for _, rule := range loadResult.RuleSet.Rules {
		result.Rules = append(result.Rules, RuleSummary{
			Name:        rule.Name,
			Kind:        string(rule.Kind),
			Description: rule.Description,
		})
	}

	if opts.Output != "" {
		if err := writeRulesToFile(loadResult.RuleSet, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d rule(s) from %d file(s)\n\n", len(result.Rules), result.Files)

	fmt.Fprintln(w, "Rules:")
	for _, rule := range result.Rules {
		fmt.Fprintf(w, "  %s: %s\n", rule.Name, rule.Kind)
	}
	fmt.Fprintln(w)

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  %s\n", warning.Message)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote canonical rules to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := errorCode(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		if err := formatter.Response(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := errorCode(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeRulesToFile writes the rule set to a file in canonical JSON format,
// the same bytes that are fingerprinted and cached.
func writeRulesToFile(set *compiler.RuleSet, filename string) error {
	rulesJSON, err := set.ToJSONValue()
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	data, err := canon.MarshalCanonical(rulesJSON)
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
