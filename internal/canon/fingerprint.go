package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints.
// The version suffix allows a future change of canonical form.
const (
	DomainQuery   = "querybinder/query/v1"
	DomainRules   = "querybinder/rules/v1"
	DomainRewrite = "querybinder/rewrite/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the canonical form of v under domain.
func Fingerprint(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hashWithDomain(domain, data), nil
}

// QueryFingerprint identifies a syntax tree given as its JSON value
// (see sparql.ToJSONValue).
func QueryFingerprint(ast any) (string, error) {
	return Fingerprint(DomainQuery, ast)
}

// RulesFingerprint identifies a compiled rule set given as its JSON value.
func RulesFingerprint(rules any) (string, error) {
	return Fingerprint(DomainRules, rules)
}

// RewriteKey combines an input and a rules fingerprint into the cache key
// of one rewrite.
func RewriteKey(queryFP, rulesFP string) string {
	return hashWithDomain(DomainRewrite, []byte(queryFP+"\x00"+rulesFP))
}

// Equal reports whether a and b have the same canonical form.
func Equal(a, b any) (bool, error) {
	ca, err := MarshalCanonical(a)
	if err != nil {
		return false, err
	}
	cb, err := MarshalCanonical(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ca, cb), nil
}

// MustQueryFingerprint is like QueryFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryFingerprint(ast any) string {
	fp, err := QueryFingerprint(ast)
	if err != nil {
		panic(err)
	}
	return fp
}

// MustRulesFingerprint is like RulesFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRulesFingerprint(rules any) string {
	fp, err := RulesFingerprint(rules)
	if err != nil {
		panic(err)
	}
	return fp
}
