package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/querybinder/internal/binder"
	"github.com/roach88/querybinder/internal/canon"
	"github.com/roach88/querybinder/internal/compiler"
	"github.com/roach88/querybinder/internal/sparql"
	"github.com/roach88/querybinder/internal/store"
)

// BindOptions holds flags for the bind command.
type BindOptions struct {
	*RootOptions
	Rules  string // rules file or directory
	Cache  string // SQLite rewrite cache path
	Output string // output file path
	Strict bool   // fail on node kinds the walker cannot traverse
}

// BindResult is the JSON payload of a successful bind.
type BindResult struct {
	Output            any              `json:"output"`
	InputFingerprint  string           `json:"input_fingerprint"`
	RulesFingerprint  string           `json:"rules_fingerprint"`
	OutputFingerprint string           `json:"output_fingerprint"`
	Replaced          int              `json:"replaced"`
	Spliced           int              `json:"spliced"`
	Skipped           []binder.Skipped `json:"skipped"`
	Cached            bool             `json:"cached"`
	RewriteID         string           `json:"rewrite_id,omitempty"`
}

// NewBindCommand creates the bind command.
func NewBindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bind <ast.json>",
		Short: "Rewrite a syntax tree with compiled rules",
		Long: `Apply CUE binder rules to a JSON AST and print the rewritten tree.

The input is never modified. With --cache, rewrites are looked up in and
recorded to a SQLite database keyed by the input and rules fingerprints, so
binding the same tree with the same rules twice returns the cached output.

Exit codes:
  0 - Rewrite succeeded
  1 - Rewrite failed (structural mismatch, malformed VALUES row, etc.)
  2 - Command error (unreadable input or rules, cache failure)

Examples:
  querybinder bind query.json --rules ./rules
  querybinder bind query.json --rules rules.cue --cache rewrites.db
  querybinder bind query.json --rules rules.cue --strict --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBind(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Rules, "rules", "r", "", "rules file or directory (required)")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "SQLite rewrite cache path")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the rewritten tree to a file")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on node kinds the walker cannot traverse")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func runBind(ctx context.Context, opts *BindOptions, astPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(formatter.GetErrWriter())

	loadResult, loadErrors := LoadRules(opts.Rules, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		if loadResult == nil {
			code, message := errorCode(loadErrors[0])
			return outputBindError(formatter, ExitCommandError, code, message, nil)
		}
		return outputCompileErrors(formatter, loadErrors)
	}
	for _, w := range loadResult.Warnings {
		logger.Warn("rule cycle", "path", w.Path, "message", w.Message)
	}

	input, err := readAST(astPath)
	if err != nil {
		code, message := errorCode(err)
		return outputBindError(formatter, ExitCommandError, code, message, nil)
	}
	inputJSON, err := sparql.ToJSONValue(input)
	if err != nil {
		return outputBindError(formatter, ExitCommandError, ErrCodeDecodeFailed, err.Error(), nil)
	}
	inputFP, err := canon.QueryFingerprint(inputJSON)
	if err != nil {
		return outputBindError(formatter, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	result := &BindResult{
		InputFingerprint: inputFP,
		RulesFingerprint: loadResult.Fingerprint,
		Skipped:          []binder.Skipped{},
	}

	var st *store.Store
	if opts.Cache != "" {
		if st, err = store.Open(opts.Cache); err != nil {
			return outputBindError(formatter, ExitCommandError, ErrCodeCacheFailed, err.Error(), nil)
		}
		defer st.Close()
	}

	var output sparql.Node
	// A strict run must see every node itself, so it never reads the cache.
	if st != nil && !opts.Strict {
		cached, err := st.LookupRewrite(ctx, inputFP, loadResult.Fingerprint)
		switch {
		case err == nil:
			if output, err = cached.OutputNode(); err != nil {
				return outputBindError(formatter, ExitCommandError, ErrCodeCacheFailed, err.Error(), nil)
			}
			result.Cached = true
			result.RewriteID = cached.ID
			result.OutputFingerprint = cached.OutputFingerprint
			result.Replaced = cached.Replaced
			result.Spliced = cached.Spliced
			result.Skipped = cached.Skipped
			formatter.VerboseLog("Cache hit: %s", cached.ID)
		case !errors.Is(err, sql.ErrNoRows):
			return outputBindError(formatter, ExitCommandError, ErrCodeCacheFailed, err.Error(), nil)
		}
	}

	if output == nil {
		b, err := loadResult.RuleSet.Binder()
		if err != nil {
			return outputBindError(formatter, ExitCommandError, ErrCodeCompileFailed, err.Error(), nil)
		}

		var report binder.Report
		bindOpts := []binder.Option{binder.WithLogger(logger), binder.WithReport(&report)}
		if opts.Strict {
			bindOpts = append(bindOpts, binder.WithStrict())
		}
		if output, err = binder.Apply(b, input, bindOpts...); err != nil {
			var be *binder.BindError
			if errors.As(err, &be) {
				return outputBindError(formatter, ExitFailure, string(be.Code), be.Message, map[string]string{"field": be.Field})
			}
			return outputBindError(formatter, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		result.Replaced = report.Replaced
		result.Spliced = report.Spliced
		if report.Skipped != nil {
			result.Skipped = report.Skipped
		}

		rw, err := store.NewRewrite(input, output, loadResult.Fingerprint)
		if err != nil {
			return outputBindError(formatter, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		result.OutputFingerprint = rw.OutputFingerprint

		if st != nil {
			rw.Replaced = report.Replaced
			rw.Spliced = report.Spliced
			rw.Skipped = report.Skipped
			if result.RewriteID, err = recordRewrite(ctx, st, loadResult.RuleSet, loadResult.Fingerprint, rw); err != nil {
				return outputBindError(formatter, ExitCommandError, ErrCodeCacheFailed, err.Error(), nil)
			}
			formatter.VerboseLog("Recorded rewrite: %s", result.RewriteID)
		}
	}

	data, err := sparql.EncodeJSON(output)
	if err != nil {
		return outputBindError(formatter, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return outputBindError(formatter, ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if formatter.JSON() {
		if result.Output, err = sparql.ToJSONValue(output); err != nil {
			return outputBindError(formatter, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	if opts.Output == "" {
		fmt.Fprintln(w, string(data))
		return nil
	}
	fmt.Fprintf(w, "✓ Rewrote %s: %d replaced, %d spliced, %d skipped\n", astPath, result.Replaced, result.Spliced, len(result.Skipped))
	if result.Cached {
		fmt.Fprintf(w, "Cached: %s\n", result.RewriteID)
	}
	fmt.Fprintf(w, "Wrote %s\n", opts.Output)
	return nil
}

// recordRewrite stores the rule set, then the rewrite, under one seq each.
func recordRewrite(ctx context.Context, st *store.Store, set *compiler.RuleSet, rulesFP string, rw store.Rewrite) (string, error) {
	rulesJSON, err := set.ToJSONValue()
	if err != nil {
		return "", err
	}
	rulesText, err := canon.MarshalCanonical(rulesJSON)
	if err != nil {
		return "", err
	}
	seq, err := st.NextSeq(ctx)
	if err != nil {
		return "", err
	}
	err = st.PutRuleSet(ctx, store.RuleSetRecord{
		Fingerprint: rulesFP,
		Rules:       string(rulesText),
		Names:       set.Names(),
		Seq:         seq,
	})
	if err != nil {
		return "", err
	}
	id, _, err := st.PutRewrite(ctx, rw)
	return id, err
}

// outputBindError reports a bind failure with the given exit code.
func outputBindError(formatter *OutputFormatter, exitCode int, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(exitCode, fmt.Sprintf("%s: %s", code, message))
}
