package store

import (
	"context"
	"database/sql"
	"fmt"
)

const rewriteColumns = `id, input_fingerprint, rules_fingerprint, output_fingerprint,
	input, output, replaced, spliced, skipped_nodes, seq`

// LookupRewrite returns the cached rewrite of an input by a rule set.
// Returns sql.ErrNoRows if not cached.
func (s *Store) LookupRewrite(ctx context.Context, inputFingerprint, rulesFingerprint string) (Rewrite, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+rewriteColumns+`
		FROM rewrites
		WHERE input_fingerprint = ? AND rules_fingerprint = ?
	`, inputFingerprint, rulesFingerprint)

	return scanRewrite(row)
}

// ReadRewrite retrieves a single rewrite by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRewrite(ctx context.Context, id string) (Rewrite, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+rewriteColumns+`
		FROM rewrites
		WHERE id = ?
	`, id)

	return scanRewrite(row)
}

// ListRewrites returns cached rewrites with deterministic ordering:
// ORDER BY seq ASC, id ASC COLLATE BINARY. An empty rulesFingerprint lists
// every rewrite.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRewrites(ctx context.Context, rulesFingerprint string) ([]Rewrite, error) {
	query := `SELECT ` + rewriteColumns + ` FROM rewrites`
	var args []any
	if rulesFingerprint != "" {
		query += ` WHERE rules_fingerprint = ?`
		args = append(args, rulesFingerprint)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rewrites: %w", err)
	}
	defer rows.Close()

	rewrites := []Rewrite{}
	for rows.Next() {
		rw, err := scanRewrite(rows)
		if err != nil {
			return nil, err
		}
		rewrites = append(rewrites, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rewrites: %w", err)
	}
	return rewrites, nil
}

// ReadRuleSet retrieves a rule set by fingerprint.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRuleSet(ctx context.Context, fingerprint string) (RuleSetRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, rules, names, seq
		FROM rule_sets
		WHERE fingerprint = ?
	`, fingerprint)

	return scanRuleSet(row)
}

// ListRuleSets returns every stored rule set ordered by seq, fingerprint.
func (s *Store) ListRuleSets(ctx context.Context) ([]RuleSetRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, rules, names, seq
		FROM rule_sets
		ORDER BY seq ASC, fingerprint COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query rule sets: %w", err)
	}
	defer rows.Close()

	sets := []RuleSetRecord{}
	for rows.Next() {
		rs, err := scanRuleSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule sets: %w", err)
	}
	return sets, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRewrite(row scanner) (Rewrite, error) {
	var (
		rw          Rewrite
		skippedJSON string
	)
	err := row.Scan(
		&rw.ID,
		&rw.InputFingerprint,
		&rw.RulesFingerprint,
		&rw.OutputFingerprint,
		&rw.Input,
		&rw.Output,
		&rw.Replaced,
		&rw.Spliced,
		&skippedJSON,
		&rw.Seq,
	)
	if err == sql.ErrNoRows {
		return Rewrite{}, err
	}
	if err != nil {
		return Rewrite{}, fmt.Errorf("scan rewrite: %w", err)
	}
	if rw.Skipped, err = unmarshalSkipped(skippedJSON); err != nil {
		return Rewrite{}, err
	}
	return rw, nil
}

func scanRuleSet(row scanner) (RuleSetRecord, error) {
	var (
		rs        RuleSetRecord
		namesJSON string
	)
	err := row.Scan(&rs.Fingerprint, &rs.Rules, &namesJSON, &rs.Seq)
	if err == sql.ErrNoRows {
		return RuleSetRecord{}, err
	}
	if err != nil {
		return RuleSetRecord{}, fmt.Errorf("scan rule set: %w", err)
	}
	if rs.Names, err = unmarshalNames(namesJSON); err != nil {
		return RuleSetRecord{}, err
	}
	return rs, nil
}
