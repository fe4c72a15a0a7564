package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/querybinder/internal/binder"
	"github.com/roach88/querybinder/internal/canon"
	"github.com/roach88/querybinder/internal/sparql"
)

// canonicalAST converts a tree to canonical JSON TEXT for storage and
// returns its query fingerprint alongside.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func canonicalAST(node sparql.Node) (text, fingerprint string, err error) {
	v, err := sparql.ToJSONValue(node)
	if err != nil {
		return "", "", fmt.Errorf("marshal ast: %w", err)
	}
	data, err := canon.MarshalCanonical(v)
	if err != nil {
		return "", "", fmt.Errorf("marshal ast: %w", err)
	}
	fp, err := canon.QueryFingerprint(v)
	if err != nil {
		return "", "", fmt.Errorf("marshal ast: %w", err)
	}
	return string(data), fp, nil
}

// unmarshalAST parses stored canonical JSON back into a tree.
// sparql.DecodeJSON reads numbers as json.Number, so LIMIT and OFFSET
// never pass through float64.
func unmarshalAST(data string) (sparql.Node, error) {
	node, err := sparql.DecodeJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal ast: %w", err)
	}
	return node, nil
}

// fingerprintText recomputes the query fingerprint of stored JSON TEXT.
func fingerprintText(data string) (string, error) {
	node, err := unmarshalAST(data)
	if err != nil {
		return "", err
	}
	_, fp, err := canonicalAST(node)
	return fp, err
}

// marshalNames converts rule names to canonical JSON TEXT.
func marshalNames(names []string) (string, error) {
	arr := make([]any, len(names))
	for i, n := range names {
		arr[i] = n
	}
	data, err := canon.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return string(data), nil
}

// unmarshalNames parses a JSON array of rule names.
func unmarshalNames(data string) ([]string, error) {
	if data == "" {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// marshalSkipped converts skipped nodes to JSON TEXT. A nil list is stored
// as an empty array.
func marshalSkipped(skipped []binder.Skipped) (string, error) {
	if skipped == nil {
		skipped = []binder.Skipped{}
	}
	data, err := json.Marshal(skipped)
	if err != nil {
		return "", fmt.Errorf("marshal skipped: %w", err)
	}
	return string(data), nil
}

// unmarshalSkipped parses a JSON array of skipped nodes.
func unmarshalSkipped(data string) ([]binder.Skipped, error) {
	skipped := []binder.Skipped{}
	if data == "" {
		return skipped, nil
	}
	if err := json.Unmarshal([]byte(data), &skipped); err != nil {
		return nil, fmt.Errorf("unmarshal skipped: %w", err)
	}
	return skipped, nil
}
