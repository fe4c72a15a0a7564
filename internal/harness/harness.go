package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/querybinder/internal/binder"
	"github.com/roach88/querybinder/internal/canon"
	"github.com/roach88/querybinder/internal/compiler"
	"github.com/roach88/querybinder/internal/sparql"
	"github.com/roach88/querybinder/internal/store"
	"github.com/roach88/querybinder/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and record IDs.
type Harness struct {
	store  *store.Store
	clock  *testutil.SeqClock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Decode the input tree and compile the rule file
//  2. Validate the rules; validation codes end the run as a failure
//  3. Apply the rule chain to a clone of the input
//  4. Record the rule set and rewrite in the cache and read them back
//  5. Evaluate assertions
//
// An error is returned only when the scenario cannot be run at all
// (unreadable files, malformed JSON or CUE, cache failures).
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.OpenMemory(store.WithIDGenerator(testutil.NewSequentialIDGenerator("rw")))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewSeqClock(0),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result, err := h.execute(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	input, err := loadInput(scenario.Input)
	if err != nil {
		return nil, err
	}
	if result.InputFingerprint, err = fingerprint(input); err != nil {
		return nil, err
	}

	set, err := loadRules(scenario.Rules)
	if err != nil {
		return nil, err
	}
	result.RuleNames = set.Names()

	if verrs := compiler.Validate(set); len(verrs) > 0 {
		for _, v := range verrs {
			result.FailureCodes = appendUnique(result.FailureCodes, v.Code)
		}
		h.logger.Info("rules rejected", "scenario", scenario.Name, "errors", len(verrs))
		return result, nil
	}
	result.Warnings = compiler.AnalyzeCycles(set)

	b, err := set.Binder()
	if err != nil {
		return nil, fmt.Errorf("build binder: %w", err)
	}

	opts := []binder.Option{binder.WithLogger(h.logger), binder.WithReport(&result.Report)}
	if scenario.Strict {
		opts = append(opts, binder.WithStrict())
	}
	output, err := binder.Apply(b, input, opts...)
	if err != nil {
		var be *binder.BindError
		if !errors.As(err, &be) {
			return nil, fmt.Errorf("apply rules: %w", err)
		}
		result.FailureCodes = append(result.FailureCodes, string(be.Code))
		h.logger.Info("bind failed", "scenario", scenario.Name, "code", be.Code, "field", be.Field)
		return result, nil
	}

	result.Output = output
	if result.Variables, err = binder.CollectVariables(output, binder.WithLogger(h.logger)); err != nil {
		return nil, fmt.Errorf("collect variables: %w", err)
	}

	if err := h.record(ctx, set, input, output, result); err != nil {
		return nil, err
	}
	return result, nil
}

// record writes the rule set and rewrite to the cache, then reads the
// rewrite back and checks it against the in-memory output.
func (h *Harness) record(ctx context.Context, set *compiler.RuleSet, input, output sparql.Node, result *Result) error {
	rulesJSON, err := set.ToJSONValue()
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	rulesText, err := canon.MarshalCanonical(rulesJSON)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if result.RulesFingerprint, err = canon.RulesFingerprint(rulesJSON); err != nil {
		return err
	}

	err = h.store.PutRuleSet(ctx, store.RuleSetRecord{
		Fingerprint: result.RulesFingerprint,
		Rules:       string(rulesText),
		Names:       result.RuleNames,
		Seq:         h.clock.Next(),
	})
	if err != nil {
		return err
	}

	rw, err := store.NewRewrite(input, output, result.RulesFingerprint)
	if err != nil {
		return err
	}
	rw.Replaced = result.Report.Replaced
	rw.Spliced = result.Report.Spliced
	rw.Skipped = result.Report.Skipped
	rw.Seq = h.clock.Next()

	id, _, err := h.store.PutRewrite(ctx, rw)
	if err != nil {
		return err
	}
	result.RewriteID = id
	result.OutputFingerprint = rw.OutputFingerprint

	cached, err := h.store.LookupRewrite(ctx, rw.InputFingerprint, rw.RulesFingerprint)
	if err != nil {
		return fmt.Errorf("read back rewrite: %w", err)
	}
	cachedOutput, err := cached.OutputNode()
	if err != nil {
		return err
	}
	cachedFP, err := fingerprint(cachedOutput)
	if err != nil {
		return err
	}
	if cachedFP != result.OutputFingerprint {
		result.AddError(fmt.Sprintf("cached output %s differs from rewrite output %s", cachedFP, result.OutputFingerprint))
	}

	mismatches, err := h.store.Verify(ctx)
	if err != nil {
		return err
	}
	for _, m := range mismatches {
		result.AddError(fmt.Sprintf("cache record %s: stored %s fingerprint %s, actual %s", m.ID, m.Field, m.Stored, m.Actual))
	}

	h.logger.Info("rewrite recorded",
		"rewrite_id", id,
		"replaced", rw.Replaced,
		"spliced", rw.Spliced,
		"skipped", len(rw.Skipped),
	)
	return nil
}

func loadInput(path string) (sparql.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	node, err := sparql.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode input %s: %w", path, err)
	}
	return node, nil
}

func loadRules(path string) (*compiler.RuleSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	set, err := compiler.CompileSource(path, string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}
	return set, nil
}

func fingerprint(node sparql.Node) (string, error) {
	v, err := sparql.ToJSONValue(node)
	if err != nil {
		return "", err
	}
	return canon.QueryFingerprint(v)
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
