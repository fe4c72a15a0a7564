package store

import (
	"github.com/roach88/querybinder/internal/binder"
	"github.com/roach88/querybinder/internal/canon"
	"github.com/roach88/querybinder/internal/sparql"
)

// RuleSetRecord is a stored rule set.
type RuleSetRecord struct {
	Fingerprint string
	Rules       string // canonical JSON
	Names       []string
	Seq         int64
}

// Rewrite is one cached rewrite of an input tree by a rule set.
type Rewrite struct {
	ID                string
	InputFingerprint  string
	RulesFingerprint  string
	OutputFingerprint string
	Input             string // canonical JSON AST
	Output            string // canonical JSON AST
	Replaced          int
	Spliced           int
	Skipped           []binder.Skipped // nodes the walk could not traverse
	Seq               int64
}

// Key returns the cache key of the rewrite.
func (r Rewrite) Key() string {
	return canon.RewriteKey(r.InputFingerprint, r.RulesFingerprint)
}

// InputNode decodes the stored input tree.
func (r Rewrite) InputNode() (sparql.Node, error) {
	return unmarshalAST(r.Input)
}

// OutputNode decodes the stored output tree.
func (r Rewrite) OutputNode() (sparql.Node, error) {
	return unmarshalAST(r.Output)
}

// NewRewrite fingerprints input and output and returns a record ready for
// PutRewrite. ID and Seq are left for the caller and the store.
func NewRewrite(input, output sparql.Node, rulesFingerprint string) (Rewrite, error) {
	in, inFP, err := canonicalAST(input)
	if err != nil {
		return Rewrite{}, err
	}
	out, outFP, err := canonicalAST(output)
	if err != nil {
		return Rewrite{}, err
	}
	return Rewrite{
		InputFingerprint:  inFP,
		RulesFingerprint:  rulesFingerprint,
		OutputFingerprint: outFP,
		Input:             in,
		Output:            out,
	}, nil
}
