package store

import (
	"context"
	"fmt"
)

// Mismatch is a cached rewrite whose stored text no longer matches its
// fingerprints.
type Mismatch struct {
	ID     string `json:"id"`
	Field  string `json:"field"` // "input" or "output"
	Stored string `json:"stored"`
	Actual string `json:"actual"`
}

// Verify recomputes the fingerprint of every stored input and output and
// reports the rewrites that disagree with what was recorded. A clean cache
// returns an empty slice.
//
// Records are checked in seq order, so the report is deterministic.
func (s *Store) Verify(ctx context.Context) ([]Mismatch, error) {
	rewrites, err := s.ListRewrites(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	mismatches := []Mismatch{}
	for _, rw := range rewrites {
		checks := []struct {
			field, text, stored string
		}{
			{"input", rw.Input, rw.InputFingerprint},
			{"output", rw.Output, rw.OutputFingerprint},
		}
		for _, c := range checks {
			actual, err := fingerprintText(c.text)
			if err != nil {
				actual = "error: " + err.Error()
			}
			if actual != c.stored {
				mismatches = append(mismatches, Mismatch{
					ID:     rw.ID,
					Field:  c.field,
					Stored: c.stored,
					Actual: actual,
				})
			}
		}
	}
	return mismatches, nil
}
