package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querybinder/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Rules  string // filter by rules fingerprint
	Verify bool   // recompute stored fingerprints
}

// RewriteSummary is one cached rewrite as listed by history.
type RewriteSummary struct {
	ID                string   `json:"id"`
	Seq               int64    `json:"seq"`
	InputFingerprint  string   `json:"input_fingerprint"`
	RulesFingerprint  string   `json:"rules_fingerprint"`
	OutputFingerprint string   `json:"output_fingerprint"`
	RuleNames         []string `json:"rule_names"`
	Replaced          int      `json:"replaced"`
	Spliced           int      `json:"spliced"`
	Skipped           int      `json:"skipped"`
}

// HistoryResult holds the listing and, with --verify, the mismatches.
type HistoryResult struct {
	Rewrites   []RewriteSummary `json:"rewrites"`
	Verified   bool             `json:"verified"`
	Mismatches []store.Mismatch `json:"mismatches,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "List cached rewrites",
		Long: `List the rewrites recorded in a SQLite rewrite cache, oldest first.

With --verify every stored input and output is decoded and fingerprinted
again; a record whose text no longer matches its fingerprint fails the run.

Examples:
  querybinder history rewrites.db
  querybinder history rewrites.db --rules <fingerprint>
  querybinder history rewrites.db --verify --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "only list rewrites made with this rules fingerprint")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "recompute and check stored fingerprints")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	// Open would create a missing database
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return outputHistoryError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return outputHistoryError(formatter, ErrCodeCacheFailed, err.Error())
	}
	defer st.Close()

	names, err := ruleNames(ctx, st, opts.Rules)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return outputHistoryError(formatter, ErrCodeNotFound, fmt.Sprintf("rule set not found: %s", opts.Rules))
	case err != nil:
		return outputHistoryError(formatter, ErrCodeCacheFailed, err.Error())
	}

	rewrites, err := st.ListRewrites(ctx, opts.Rules)
	if err != nil {
		return outputHistoryError(formatter, ErrCodeCacheFailed, err.Error())
	}
	formatter.VerboseLog("Found %d rewrite(s) in %s", len(rewrites), dbPath)

	result := HistoryResult{
		Rewrites: make([]RewriteSummary, 0, len(rewrites)),
		Verified: opts.Verify,
	}
	for _, rw := range rewrites {
		result.Rewrites = append(result.Rewrites, RewriteSummary{
			ID:                rw.ID,
			Seq:               rw.Seq,
			InputFingerprint:  rw.InputFingerprint,
			RulesFingerprint:  rw.RulesFingerprint,
			OutputFingerprint: rw.OutputFingerprint,
			RuleNames:         names[rw.RulesFingerprint],
			Replaced:          rw.Replaced,
			Spliced:           rw.Spliced,
			Skipped:           len(rw.Skipped),
		})
	}

	if opts.Verify {
		if result.Mismatches, err = st.Verify(ctx); err != nil {
			return outputHistoryError(formatter, ErrCodeCacheFailed, err.Error())
		}
	}

	if formatter.JSON() {
		if len(result.Mismatches) == 0 {
			return formatter.Success(result)
		}
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeCacheFailed,
				Message: fmt.Sprintf("%d fingerprint mismatch(es)", len(result.Mismatches)),
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("verification failed with %d mismatch(es)", len(result.Mismatches)))
	}

	return outputHistoryText(formatter, result)
}

// ruleNames maps rules fingerprints to the names of their rules. With a
// fingerprint only that rule set is read, and sql.ErrNoRows means the cache
// has never seen it.
func ruleNames(ctx context.Context, st *store.Store, fingerprint string) (map[string][]string, error) {
	if fingerprint != "" {
		rs, err := st.ReadRuleSet(ctx, fingerprint)
		if err != nil {
			return nil, err
		}
		return map[string][]string{rs.Fingerprint: rs.Names}, nil
	}

	sets, err := st.ListRuleSets(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string][]string, len(sets))
	for _, rs := range sets {
		names[rs.Fingerprint] = rs.Names
	}
	return names, nil
}

func outputHistoryText(formatter *OutputFormatter, result HistoryResult) error {
	w := formatter.Writer

	if len(result.Rewrites) == 0 {
		fmt.Fprintln(w, "No rewrites recorded.")
	}
	for _, rw := range result.Rewrites {
		fmt.Fprintf(w, "[%d] %s\n", rw.Seq, rw.ID)
		fmt.Fprintf(w, "  input:  %s\n", rw.InputFingerprint)
		fmt.Fprintf(w, "  rules:  %s (%s)\n", rw.RulesFingerprint, strings.Join(rw.RuleNames, ", "))
		fmt.Fprintf(w, "  output: %s\n", rw.OutputFingerprint)
		fmt.Fprintf(w, "  %d replaced, %d spliced, %d skipped\n", rw.Replaced, rw.Spliced, rw.Skipped)
	}

	if !result.Verified {
		return nil
	}
	fmt.Fprintln(w)
	if len(result.Mismatches) == 0 {
		fmt.Fprintf(w, "✓ Verified %d rewrite(s)\n", len(result.Rewrites))
		return nil
	}

	fmt.Fprintln(w, "✗ Verification failed")
	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "  %s %s: stored %s, actual %s\n", m.ID, m.Field, m.Stored, m.Actual)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("verification failed with %d mismatch(es)", len(result.Mismatches)))
}

func outputHistoryError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
