package sparql

import "github.com/roach88/querybinder/internal/rdf"

// Node is any value that can occupy a structural slot of the tree.
//
// Concrete kinds: *Query, *Update, *InsertDelete, *Management, every
// Pattern, *GraphQuads, *Triple, *PropertyPath, every Expression form,
// *Grouping, *Ordering, *VariableExpression, Wildcard and rdf.Term values.
//
// Node is left open because rdf terms live in their own package and cannot
// carry a marker of this one. The walker rejects kinds it does not know.
type Node interface{}

// Expression is a value in an expression slot: an rdf.Term, *Operation,
// *FunctionCall, *Aggregate, Tuple, or a Pattern operand of EXISTS. Open
// for the same reason as Node.
type Expression interface{}

// PatternType is the discriminant of a Pattern.
// Values match the "type" field of the JSON shape.
type PatternType string

const (
	PatternBGP      PatternType = "bgp"
	PatternGroup    PatternType = "group"
	PatternOptional PatternType = "optional"
	PatternUnion    PatternType = "union"
	PatternMinus    PatternType = "minus"
	PatternGraph    PatternType = "graph"
	PatternService  PatternType = "service"
	PatternFilter   PatternType = "filter"
	PatternBind     PatternType = "bind"
	PatternValues   PatternType = "values"
	PatternQuery    PatternType = "query"
)

// Pattern is an element of a WHERE clause or group.
// The set of kinds is closed: only this package can add one.
type Pattern interface {
	PatternType() PatternType
	pattern()
}

// Quads is an element of an INSERT or DELETE template: *BGP or *GraphQuads.
type Quads interface {
	QuadsType() PatternType
	quads()
}

// UpdateOperation is one operation of an Update: *InsertDelete or *Management.
type UpdateOperation interface {
	UpdateKind() string
	updateOperation()
}

// QueryType selects the query form.
type QueryType string

const (
	QuerySelect    QueryType = "SELECT"
	QueryConstruct QueryType = "CONSTRUCT"
	QueryAsk       QueryType = "ASK"
	QueryDescribe  QueryType = "DESCRIBE"
)

// Query is a SELECT, CONSTRUCT, ASK or DESCRIBE query. A Query nested in a
// pattern list is a sub-select.
type Query struct {
	QueryType QueryType
	Prefixes  *Prefixes
	Base      string

	// Variables is the projection: rdf.Variable, *VariableExpression or
	// Wildcard. DESCRIBE may also list IRIs.
	Variables []Node
	Distinct  bool
	Reduced   bool

	From   *Dataset
	Where  []Pattern
	Values []ValuesRow
	Group  []*Grouping
	Having []Expression
	Order  []*Ordering
	Limit  *int64
	Offset *int64

	// Template holds the CONSTRUCT template.
	Template []*Triple
}

func (*Query) PatternType() PatternType { return PatternQuery }

// Update is an ordered list of update operations sharing one prologue.
type Update struct {
	Prefixes *Prefixes
	Base     string
	Updates  []UpdateOperation
}

// Update types of InsertDelete.
const (
	UpdateInsert       = "insert"
	UpdateDelete       = "delete"
	UpdateDeleteWhere  = "deletewhere"
	UpdateInsertDelete = "insertdelete"
)

// InsertDelete covers INSERT DATA, DELETE DATA, DELETE WHERE and the
// general DELETE/INSERT ... WHERE form.
type InsertDelete struct {
	UpdateType string
	Graph      rdf.Term // WITH <iri>; nil when absent
	Using      *Dataset
	Delete     []Quads
	Insert     []Quads
	Where      []Pattern
}

func (u *InsertDelete) UpdateKind() string { return u.UpdateType }

// Management types.
const (
	ManageLoad   = "load"
	ManageCopy   = "copy"
	ManageMove   = "move"
	ManageAdd    = "add"
	ManageClear  = "clear"
	ManageDrop   = "drop"
	ManageCreate = "create"
)

// Management is a graph management operation.
//
// LOAD uses Source.Name for the document IRI and Destination.Name for the
// optional target graph. COPY, MOVE and ADD use Source and Destination.
// CLEAR, DROP and CREATE use Graph.
type Management struct {
	Type        string
	Silent      bool
	Source      *GraphRef
	Destination *GraphRef
	Graph       *GraphRef
}

func (m *Management) UpdateKind() string { return m.Type }

// GraphRef names a graph or a set of graphs in a management operation.
type GraphRef struct {
	Default bool
	Named   bool
	All     bool
	Name    rdf.Term // nil unless a specific graph is named
}

// Dataset is a FROM / FROM NAMED (or USING / USING NAMED) clause.
type Dataset struct {
	Default []rdf.Term
	Named   []rdf.Term
}

// BGP is a basic graph pattern. It is also a Quads block in the default graph.
type BGP struct {
	Triples []*Triple
}

func (*BGP) PatternType() PatternType { return PatternBGP }
func (*BGP) QuadsType() PatternType   { return PatternBGP }

// GroupPattern is a group, OPTIONAL, UNION or MINUS pattern; Type says which.
// For UNION each element of Patterns is one alternative.
type GroupPattern struct {
	Type     PatternType
	Patterns []Pattern
}

func (g *GroupPattern) PatternType() PatternType { return g.Type }

// GraphPattern is GRAPH name { patterns }.
type GraphPattern struct {
	Name     rdf.Term
	Patterns []Pattern
}

func (*GraphPattern) PatternType() PatternType { return PatternGraph }

// ServicePattern is SERVICE [SILENT] name { patterns }.
type ServicePattern struct {
	Name     rdf.Term
	Silent   bool
	Patterns []Pattern
}

func (*ServicePattern) PatternType() PatternType { return PatternService }

// FilterPattern is FILTER(expression).
type FilterPattern struct {
	Expression Expression
}

func (*FilterPattern) PatternType() PatternType { return PatternFilter }

// BindPattern is BIND(expression AS ?variable).
type BindPattern struct {
	Expression Expression
	Variable   rdf.Term
}

func (*BindPattern) PatternType() PatternType { return PatternBind }

// ValuesPattern is an inline VALUES block inside a group.
type ValuesPattern struct {
	Values []ValuesRow
}

func (*ValuesPattern) PatternType() PatternType { return PatternValues }

// GraphQuads is GRAPH name { triples } inside an INSERT or DELETE template.
type GraphQuads struct {
	Name    rdf.Term
	Triples []*Triple
}

func (*GraphQuads) QuadsType() PatternType { return PatternGraph }

// Triple is a triple pattern.
//
// Subject is an IRI, Blank, Variable or Quad. Predicate is an IRI,
// Variable, Quad or *PropertyPath. Object is any term.
type Triple struct {
	Subject   rdf.Term
	Predicate Node
	Object    rdf.Term
}

// PathType is the operator of a property path.
type PathType string

const (
	PathSequence    PathType = "/"
	PathAlternative PathType = "|"
	PathInverse     PathType = "^"
	PathOneOrMore   PathType = "+"
	PathZeroOrMore  PathType = "*"
	PathZeroOrOne   PathType = "?"
	PathNegated     PathType = "!"
)

// PropertyPath is a path expression. Items are IRIs or nested paths.
type PropertyPath struct {
	PathType PathType
	Items    []Node
}

// Operation is an operator or built-in call, e.g. "&&", "=", "bound",
// "exists".
type Operation struct {
	Operator string
	Args     []Expression
}

// FunctionCall is a call to an IRI-named function.
type FunctionCall struct {
	Function rdf.Term
	Args     []Expression
	Distinct bool
}

// Aggregate is an aggregate expression such as COUNT(DISTINCT ?x).
type Aggregate struct {
	Aggregation string
	Expression  Expression
	Distinct    bool
	Separator   string
}

// Tuple is a parenthesized expression list, e.g. the right side of IN.
type Tuple []Expression

// Grouping is one GROUP BY condition, optionally aliased with AS.
type Grouping struct {
	Expression Expression
	Variable   rdf.Term // nil unless aliased
}

// Ordering is one ORDER BY condition.
type Ordering struct {
	Expression Expression
	Descending bool
}

// VariableExpression is a projected (expression AS ?variable).
type VariableExpression struct {
	Expression Expression
	Variable   rdf.Term
}

// Wildcard is SELECT * (or DESCRIBE *).
type Wildcard struct{}

// Extension is a node whose discriminant this package does not know.
// The decoder keeps it verbatim so it can be written back unchanged; the
// rewrite engine reports it as an unknown node kind and leaves it alone.
type Extension struct {
	Type string
	Raw  map[string]any
}

func (e *Extension) PatternType() PatternType { return PatternType(e.Type) }
func (e *Extension) QuadsType() PatternType   { return PatternType(e.Type) }
func (e *Extension) UpdateKind() string       { return e.Type }

// Union markers.

func (*Query) pattern()          {}
func (*BGP) pattern()            {}
func (*GroupPattern) pattern()   {}
func (*GraphPattern) pattern()   {}
func (*ServicePattern) pattern() {}
func (*FilterPattern) pattern()  {}
func (*BindPattern) pattern()    {}
func (*ValuesPattern) pattern()  {}
func (*Extension) pattern()      {}

func (*BGP) quads()        {}
func (*GraphQuads) quads() {}
func (*Extension) quads()  {}

func (*InsertDelete) updateOperation() {}
func (*Management) updateOperation()   {}
func (*Extension) updateOperation()    {}
