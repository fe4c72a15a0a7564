package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/querybinder/internal/binder"
	"github.com/roach88/querybinder/internal/rdf"
)

// CycleWarning names rules that feed each other. A chain still applies each
// rule once in declaration order, so a cycle never loops at bind time.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["rule-a", "rule-b", "rule-a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles reports every group of rules that can rewrite each other's
// output. Rule A feeds rule B when A introduces a variable B rewrites: a
// rename target, a variable bound as a value, or a variable inside a
// pattern expansion. Groups are the strongly connected components of that
// graph with more than one rule, or one rule feeding itself.
//
// The result depends only on the rules and their order.
func AnalyzeCycles(set *RuleSet) []CycleWarning {
	if set == nil || len(set.Rules) == 0 {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(set.Rules)
	sccs := tarjanSCC(graph, set.Names())

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, warningFor(scc, graph))
		}
	}
	return warnings
}

// dependencyGraph maps rule name → rules that rewrite what it introduces.
type dependencyGraph map[string][]string

func buildDependencyGraph(rules []Rule) dependencyGraph {
	graph := make(dependencyGraph)

	// variable → rules that rewrite it
	consumers := make(map[string][]string)
	for i := range rules {
		for _, name := range consumes(&rules[i]) {
			consumers[name] = append(consumers[name], rules[i].Name)
		}
	}

	for i := range rules {
		r := &rules[i]
		if graph[r.Name] == nil {
			graph[r.Name] = []string{}
		}
		seen := make(map[string]bool)
		for _, name := range produces(r) {
			for _, target := range consumers[name] {
				if !seen[target] {
					seen[target] = true
					graph[r.Name] = append(graph[r.Name], target)
				}
			}
		}
	}
	return graph
}

// consumes lists the variables a rule rewrites.
func consumes(r *Rule) []string {
	switch r.Kind {
	case KindValue:
		return bareNames(sortedTermNames(r.Bindings))
	case KindPath:
		return bareNames(sortedPathNames(r.Paths))
	case KindPattern:
		return bareNames([]string{r.Placeholder})
	case KindRename:
		return bareNames([]string{r.From})
	}
	return nil
}

// produces lists the variables a rule can introduce into a tree.
func produces(r *Rule) []string {
	switch r.Kind {
	case KindValue:
		var out []string
		for _, name := range sortedTermNames(r.Bindings) {
			if v, ok := r.Bindings[name].(rdf.Variable); ok {
				out = append(out, v.Value)
			}
		}
		return out
	case KindPattern:
		var out []string
		for _, p := range r.Patterns {
			names, err := binder.CollectVariables(p)
			if err != nil {
				continue
			}
			out = append(out, names...)
		}
		return out
	case KindRename:
		return bareNames([]string{r.To})
	}
	return nil
}

func bareNames(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = rdf.NewVariable(name).Value
	}
	return out
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// sccFinder holds the state of one run of Tarjan's algorithm.
type sccFinder struct {
	graph   dependencyGraph
	next    int
	index   map[string]int
	low     map[string]int
	stack   []string
	onStack map[string]bool
	sccs    [][]string
}

// tarjanSCC returns the strongly connected components of graph. Roots are
// tried in order, so the result is stable. Each component lists its nodes
// starting from the one the search entered it by.
func tarjanSCC(graph dependencyGraph, order []string) [][]string {
	f := &sccFinder{
		graph:   graph,
		index:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, node := range order {
		if _, seen := f.index[node]; !seen {
			f.visit(node)
		}
	}
	return f.sccs
}

func (f *sccFinder) visit(v string) {
	f.index[v], f.low[v] = f.next, f.next
	f.next++
	f.stack = append(f.stack, v)
	f.onStack[v] = true

	for _, w := range f.graph[v] {
		if _, seen := f.index[w]; !seen {
			f.visit(w)
			f.low[v] = min(f.low[v], f.low[w])
		} else if f.onStack[w] {
			f.low[v] = min(f.low[v], f.index[w])
		}
	}
	if f.low[v] != f.index[v] {
		return
	}

	// v is the root of a component: everything above it on the stack.
	i := slices.Index(f.stack, v)
	scc := slices.Clone(f.stack[i:])
	for _, w := range scc {
		f.onStack[w] = false
	}
	f.stack = f.stack[:i]
	f.sccs = append(f.sccs, scc)
}

func warningFor(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Rule rewrites its own output: %s → %s", name, name),
			Level:   "warning",
		}
	}
	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: "Rules feed each other: " + strings.Join(path, " → "),
		Level:   "warning",
	}
}

// reconstructCyclePath walks edges inside scc from its first node until it
// returns there, never revisiting a node on the way.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	start := scc[0]
	path := []string{start}
	visited := map[string]bool{start: true}
	for current := start; ; {
		next := ""
		for _, w := range graph[current] {
			if slices.Contains(scc, w) && (w == start || !visited[w]) {
				next = w
				break
			}
		}
		if next == "" {
			return path
		}
		path = append(path, next)
		if next == start {
			return path
		}
		visited[next] = true
		current = next
	}
}
