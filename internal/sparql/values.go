package sparql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/querybinder/internal/rdf"
)

// ValuesRow is one row of a VALUES block, keyed by bare variable name.
// A nil term means the variable is unbound (UNDEF) in this row.
type ValuesRow map[string]rdf.Term

// Keys returns the row's variable names in sorted order.
func (r ValuesRow) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equals reports whether both rows bind the same variables to equal terms.
func (r ValuesRow) Equals(other ValuesRow) bool {
	if len(r) != len(other) {
		return false
	}
	for k, a := range r {
		b, ok := other[k]
		if !ok {
			return false
		}
		if a == nil || b == nil {
			if a != nil || b != nil {
				return false
			}
			continue
		}
		if !a.Equals(b) {
			return false
		}
	}
	return true
}

// Hash folds keys and cells in key order. Equal rows hash equal.
func (r ValuesRow) Hash() int32 {
	var h int32
	for _, k := range r.Keys() {
		h = rdf.CombineHash(h, rdf.HashString(k))
		if cell := r[k]; cell != nil {
			h = rdf.CombineHash(h, cell.Hash())
		} else {
			h = rdf.CombineHash(h, 0)
		}
	}
	return h
}

// Clone returns a copy of the row. Terms are immutable and shared.
func (r ValuesRow) Clone() ValuesRow {
	if r == nil {
		return nil
	}
	out := make(ValuesRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CheckValuesRow reports the first invariant violation in row, or nil.
// Keys must be bare variable names; cells must be IRI, Blank, Literal or
// unbound.
func CheckValuesRow(row ValuesRow) error {
	return checkValuesRow(row, "values")
}

func checkValuesRow(row ValuesRow, field string) error {
	if row == nil {
		return &ValidationError{Field: field, Code: CodeMalformedValuesRow, Message: "row is nil"}
	}
	for _, k := range row.Keys() {
		if k == "" || strings.HasPrefix(k, "?") || strings.HasPrefix(k, "$") {
			return &ValidationError{Field: field, Code: CodeMalformedValuesRow,
				Message: fmt.Sprintf("row key %q is not a bare variable name", k)}
		}
		cell := row[k]
		if cell != nil && !rdf.IsValuesCell(cell) {
			return &ValidationError{Field: field + "." + k, Code: CodeMalformedValuesRow,
				Message: fmt.Sprintf("cell must be IRI, blank node, literal or unbound, got %s", Describe(cell))}
		}
	}
	return nil
}

// ValuesVariables returns the union of row keys, sorted.
func ValuesVariables(rows []ValuesRow) []string {
	seen := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// AddValues appends rows to the query's trailing VALUES block, skipping
// rows equal to one already present. It returns the number of rows added.
// Rows are checked first; nothing is appended if any is malformed.
func (q *Query) AddValues(rows ...ValuesRow) (int, error) {
	merged, added, err := appendDistinctRows(q.Values, rows)
	if err != nil {
		return 0, err
	}
	q.Values = merged
	return added, nil
}

// AddValues appends rows to an inline VALUES pattern; see Query.AddValues.
func (v *ValuesPattern) AddValues(rows ...ValuesRow) (int, error) {
	merged, added, err := appendDistinctRows(v.Values, rows)
	if err != nil {
		return 0, err
	}
	v.Values = merged
	return added, nil
}

func appendDistinctRows(dst, rows []ValuesRow) ([]ValuesRow, int, error) {
	for i, row := range rows {
		if err := checkValuesRow(row, fmt.Sprintf("values[%d]", i)); err != nil {
			return dst, 0, err
		}
	}

	buckets := make(map[int32][]ValuesRow, len(dst)+len(rows))
	for _, row := range dst {
		h := row.Hash()
		buckets[h] = append(buckets[h], row)
	}

	added := 0
	for _, row := range rows {
		h := row.Hash()
		if containsRow(buckets[h], row) {
			continue
		}
		row = row.Clone()
		buckets[h] = append(buckets[h], row)
		dst = append(dst, row)
		added++
	}
	return dst, added, nil
}

func containsRow(bucket []ValuesRow, row ValuesRow) bool {
	for _, candidate := range bucket {
		if candidate.Equals(row) {
			return true
		}
	}
	return false
}
