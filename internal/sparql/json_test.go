package sparql

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybinder/internal/canon"
	"github.com/roach88/querybinder/internal/rdf"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func rawJSON(t *testing.T, data []byte) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestJSONRoundTrip(t *testing.T) {
	for _, name := range []string{"select.json", "update.json", "extension.json"} {
		t.Run(name, func(t *testing.T) {
			data := readFixture(t, name)

			node, err := DecodeJSON(data)
			require.NoError(t, err)

			encoded, err := ToJSONValue(node)
			require.NoError(t, err)

			eq, err := canon.Equal(rawJSON(t, data), encoded)
			require.NoError(t, err)
			assert.True(t, eq, "decode then encode must reproduce the input")
		})
	}
}

func TestDecodeSelectShape(t *testing.T) {
	node, err := DecodeJSON(readFixture(t, "select.json"))
	require.NoError(t, err)

	q, ok := node.(*Query)
	require.True(t, ok)
	assert.Equal(t, QuerySelect, q.QueryType)
	assert.True(t, q.Distinct)
	require.NotNil(t, q.Limit)
	assert.Equal(t, int64(10), *q.Limit)
	assert.Equal(t, int64(5), *q.Offset)

	// Prefixes: own entry plus inherited defaults
	iri, ok := q.Prefixes.Lookup("ex")
	assert.True(t, ok)
	assert.Equal(t, "http://example.org/", iri)
	assert.True(t, q.Prefixes.HasInherited("rdfs"))
	assert.False(t, q.Prefixes.HasOwn("rdfs"))

	require.Len(t, q.Variables, 2)
	assert.Equal(t, rdf.NewVariable("person"), q.Variables[0])
	ve, ok := q.Variables[1].(*VariableExpression)
	require.True(t, ok)
	assert.Equal(t, rdf.NewVariable("friends"), ve.Variable)

	require.Len(t, q.Where, 5)
	bgp := q.Where[0].(*BGP)
	require.Len(t, bgp.Triples, 2)
	path, ok := bgp.Triples[1].Predicate.(*PropertyPath)
	require.True(t, ok)
	assert.Equal(t, PathSequence, path.PathType)
	assert.IsType(t, &PropertyPath{}, path.Items[1])

	opt := q.Where[1].(*GroupPattern)
	assert.Equal(t, PatternOptional, opt.PatternType())
	lit := opt.Patterns[0].(*BGP).Triples[0].Object.(rdf.Literal)
	assert.Equal(t, "en", lit.Language)

	filter := q.Where[2].(*FilterPattern)
	op := filter.Expression.(*Operation)
	assert.Equal(t, "in", op.Operator)
	assert.IsType(t, Tuple{}, op.Args[1])

	values := q.Where[4].(*ValuesPattern)
	require.Len(t, values.Values, 1)
	row := values.Values[0]
	assert.Equal(t, []string{"lang", "type"}, row.Keys())
	assert.Nil(t, row["lang"], "null decodes to unbound")
}

func TestDecodeUpdateShape(t *testing.T) {
	node, err := DecodeJSON(readFixture(t, "update.json"))
	require.NoError(t, err)

	u, ok := node.(*Update)
	require.True(t, ok)
	require.Len(t, u.Updates, 4)

	id := u.Updates[0].(*InsertDelete)
	assert.Equal(t, UpdateInsertDelete, id.UpdateKind())
	assert.Equal(t, rdf.NewIRI("http://example.org/g"), id.Graph)
	assert.IsType(t, &BGP{}, id.Delete[0])
	assert.IsType(t, &GraphQuads{}, id.Insert[0])

	load := u.Updates[1].(*Management)
	assert.Equal(t, ManageLoad, load.Type)
	assert.True(t, load.Silent)
	assert.Equal(t, rdf.NewIRI("http://example.org/data.ttl"), load.Source.Name)

	cp := u.Updates[2].(*Management)
	assert.True(t, cp.Source.Default)
	assert.Equal(t, rdf.NewIRI("http://example.org/backup"), cp.Destination.Name)

	clearOp := u.Updates[3].(*Management)
	assert.True(t, clearOp.Graph.All)
}

func TestDecodeKeepsUnknownPatternAsExtension(t *testing.T) {
	node, err := DecodeJSON(readFixture(t, "extension.json"))
	require.NoError(t, err)

	q := node.(*Query)
	assert.Equal(t, []Node{Wildcard{}}, q.Variables)
	ext, ok := q.Where[0].(*Extension)
	require.True(t, ok)
	assert.Equal(t, "lateral", ext.Type)
	assert.Equal(t, PatternType("lateral"), ext.PatternType())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"not json", `{`, "invalid JSON"},
		{"not an object", `[]`, "expected an object"},
		{"unknown query type", `{"type":"query","queryType":"EXPLAIN"}`, "unknown query type"},
		{"unknown term type", `{"type":"bgp","triples":[{"subject":{"termType":"Thing","value":"x"}}]}`, "unknown term type"},
		{"missing pattern type", `{"type":"query","queryType":"ASK","where":[{}]}`, "pattern type is required"},
		{"fractional limit", `{"type":"query","queryType":"SELECT","limit":1.5}`, "expected an integer"},
		{"bad quad term", `{"type":"bgp","triples":[{"subject":{"termType":"Quad","subject":{"termType":"Literal","value":"x"}}}]}`, "quad subject"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDecodeLiteralDefaults(t *testing.T) {
	node, err := DecodeJSON([]byte(`{"type":"filter","expression":{"termType":"Literal","value":"x"}}`))
	require.NoError(t, err)
	assert.Equal(t, rdf.NewLiteral("x"), node.(*FilterPattern).Expression)

	node, err = DecodeJSON([]byte(`{"type":"filter","expression":{"termType":"Literal","value":"x","language":"fr"}}`))
	require.NoError(t, err)
	assert.Equal(t, rdf.NewLangLiteral("x", "fr"), node.(*FilterPattern).Expression)
}

func TestDecodePatterns(t *testing.T) {
	ps, err := DecodePatterns([]byte(`[
		{"type":"bgp","triples":[]},
		{"type":"minus","patterns":[]}
	]`))
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, PatternMinus, ps[1].PatternType())

	_, err = DecodePatterns([]byte(`{"type":"bgp"}`))
	require.Error(t, err)
}

func TestDecodePath(t *testing.T) {
	p, err := DecodePath([]byte(`{"type":"path","pathType":"^","items":[{"termType":"NamedNode","value":"http:a"}]}`))
	require.NoError(t, err)
	assert.Equal(t, PathInverse, p.PathType)
	assert.Equal(t, []Node{rdf.NewIRI("http:a")}, p.Items)

	_, err = DecodePath([]byte(`{"termType":"NamedNode","value":"http:a"}`))
	require.Error(t, err)
}

func TestEncodeJSONValuesKeys(t *testing.T) {
	q := &Query{
		QueryType: QuerySelect,
		Variables: []Node{Wildcard{}},
		Where:     []Pattern{},
		Values: []ValuesRow{
			{"x": rdf.NewIRI("http://a"), "y": nil},
		},
	}
	data, err := EncodeJSON(q)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"?x":{"termType":"NamedNode","value":"http://a"}`)
	assert.Contains(t, string(data), `"?y":null`)
}

func TestEncodeRejectsForeignNodes(t *testing.T) {
	type foreign struct{}
	_, err := EncodeJSON(&BGP{Triples: []*Triple{{
		Subject:   rdf.NewVariable("s"),
		Predicate: foreign{},
		Object:    rdf.NewVariable("o"),
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported predicate")
}
