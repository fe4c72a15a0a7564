package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PutRuleSet inserts a rule set record.
// Uses ON CONFLICT(fingerprint) DO NOTHING for idempotency - the same rule
// set written twice keeps its first seq.
func (s *Store) PutRuleSet(ctx context.Context, rs RuleSetRecord) error {
	namesJSON, err := marshalNames(rs.Names)
	if err != nil {
		return fmt.Errorf("put rule set: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rule_sets (fingerprint, rules, names, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		rs.Fingerprint,
		rs.Rules,
		namesJSON,
		rs.Seq,
	)
	if err != nil {
		return fmt.Errorf("put rule set: %w", err)
	}
	return nil
}

// PutRewrite inserts a rewrite record. Returns the ID and whether a new
// record was inserted.
//
// Rewrites are idempotent: if (InputFingerprint, RulesFingerprint)
// is already cached, the existing ID is returned with inserted=false and no
// ID or seq is consumed.
//
// An empty ID is filled from the store's IDGenerator. An empty Seq (0) is
// filled with the next seq inside the same transaction.
//
// Note: The rule set referenced by RulesFingerprint must exist (foreign key
// constraint).
func (s *Store) PutRewrite(ctx context.Context, rw Rewrite) (id string, inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("put rewrite: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	err = tx.QueryRowContext(ctx, `
		SELECT id FROM rewrites
		WHERE input_fingerprint = ? AND rules_fingerprint = ?
	`, rw.InputFingerprint, rw.RulesFingerprint).Scan(&id)
	switch {
	case err == nil:
		// Already cached
		return id, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", false, fmt.Errorf("put rewrite: lookup: %w", err)
	}

	if rw.ID == "" {
		rw.ID = s.ids.Generate()
	}
	if rw.Seq == 0 {
		if rw.Seq, err = nextSeq(ctx, tx); err != nil {
			return "", false, fmt.Errorf("put rewrite: %w", err)
		}
	}

	skippedJSON, err := marshalSkipped(rw.Skipped)
	if err != nil {
		return "", false, fmt.Errorf("put rewrite: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rewrites
		(id, input_fingerprint, rules_fingerprint, output_fingerprint, input, output, replaced, spliced, skipped, skipped_nodes, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rw.ID,
		rw.InputFingerprint,
		rw.RulesFingerprint,
		rw.OutputFingerprint,
		rw.Input,
		rw.Output,
		rw.Replaced,
		rw.Spliced,
		len(rw.Skipped),
		skippedJSON,
		rw.Seq,
	)
	if err != nil {
		return "", false, fmt.Errorf("put rewrite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("put rewrite: commit: %w", err)
	}
	return rw.ID, true, nil
}
