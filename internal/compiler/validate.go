package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/querybinder/internal/rdf"
	"github.com/roach88/querybinder/internal/sparql"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported type for validation

	// Rule errors (E101-E119)
	ErrRuleNameEmpty       = "E101" // rule name is required
	ErrUnknownRuleKind     = "E102" // kind is not value, path, text, pattern or rename
	ErrRuleEmpty           = "E103" // rule has nothing to apply
	ErrInvalidVariableName = "E104" // not a SPARQL variable name
	ErrDuplicateName       = "E105" // duplicate rule name
	ErrInvalidTextPattern  = "E106" // regular expression does not compile
	ErrMalformedPath       = "E107" // property path fails its arity check
	ErrInvalidBindingTerm  = "E108" // term cannot be bound to a variable
	ErrInvalidPattern      = "E109" // expansion pattern is nil or malformed
	ErrRenameSameName      = "E110" // rename from and to are equal
)

// ValidationError represents a rule validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled rules.
// Returns all errors found (does not fail-fast).
// Supports Rule and RuleSet.
func Validate(v any) []ValidationError {
	switch r := v.(type) {
	case *Rule:
		return validateRule(r, "")
	case Rule:
		return validateRule(&r, "")
	case *RuleSet:
		return validateRuleSet(r)
	case RuleSet:
		return validateRuleSet(&r)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateRuleSet(s *RuleSet) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for i := range s.Rules {
		r := &s.Rules[i]
		prefix := fmt.Sprintf("rules[%d].", i)

		// E105: duplicate rule name
		if r.Name != "" && seen[r.Name] {
			errs = append(errs, ValidationError{
				Field:   prefix + "name",
				Message: fmt.Sprintf("duplicate rule name: %q", r.Name),
				Code:    ErrDuplicateName,
				Line:    r.Pos.Line(),
			})
		}
		seen[r.Name] = true

		errs = append(errs, validateRule(r, prefix)...)
	}
	return errs
}

// validateRule checks one rule. prefix is prepended to every field path.
func validateRule(r *Rule, prefix string) []ValidationError {
	v := &ruleValidator{prefix: prefix, line: r.Pos.Line()}

	// E101: name is required
	if strings.TrimSpace(r.Name) == "" {
		v.add("name", ErrRuleNameEmpty, "rule name is required")
	}

	switch r.Kind {
	case KindValue:
		v.bindings(r.Bindings)
	case KindPath:
		v.paths(r.Paths)
	case KindText:
		v.text(r.Text)
	case KindPattern:
		v.variableName("placeholder", r.Placeholder)
		v.patterns(r.Patterns)
	case KindRename:
		v.variableName("from", r.From)
		v.variableName("to", r.To)
		// E110: renaming to the same name does nothing
		if r.From != "" && rdf.NewVariable(r.From) == rdf.NewVariable(r.To) {
			v.add("to", ErrRenameSameName, "rename target %q equals its source", r.To)
		}
	default:
		// E102: unknown kind
		v.add("kind", ErrUnknownRuleKind,
			"invalid kind %q, must be \"value\", \"path\", \"text\", \"pattern\", or \"rename\"", r.Kind)
	}
	return v.errs
}

type ruleValidator struct {
	prefix string
	line   int
	errs   []ValidationError
}

func (v *ruleValidator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   v.prefix + field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		Line:    v.line,
	})
}

func (v *ruleValidator) bindings(bindings map[string]rdf.Term) {
	if len(bindings) == 0 {
		v.add("bindings", ErrRuleEmpty, "value rule needs at least one binding")
		return
	}
	for _, name := range sortedTermNames(bindings) {
		field := "bindings." + name
		v.variableName(field, name)

		// E108: nil and the default graph have no place in a variable slot
		switch t := bindings[name].(type) {
		case nil:
			v.add(field, ErrInvalidBindingTerm, "binding for %q is empty", name)
		case rdf.DefaultGraph:
			v.add(field, ErrInvalidBindingTerm, "cannot bind %q to the default graph", name)
		case rdf.Quad:
			if _, err := rdf.NewQuad(t.Subject, t.Predicate, t.Object, t.Graph); err != nil {
				v.add(field, ErrInvalidBindingTerm, "%v", err)
			}
		}
	}
}

func (v *ruleValidator) paths(paths map[string]*sparql.PropertyPath) {
	if len(paths) == 0 {
		v.add("paths", ErrRuleEmpty, "path rule needs at least one path")
		return
	}
	for _, name := range sortedPathNames(paths) {
		field := "paths." + name
		v.variableName(field, name)
		// E107: arity and item kinds
		if err := sparql.CheckPath(paths[name]); err != nil {
			v.add(field, ErrMalformedPath, "%s", pathMessage(err))
		}
	}
}

func (v *ruleValidator) text(rules []TextRuleSpec) {
	if len(rules) == 0 {
		v.add("rules", ErrRuleEmpty, "text rule needs at least one pattern")
		return
	}
	for i, spec := range rules {
		// E106: regexp must compile
		if _, err := regexp.Compile(spec.Pattern); err != nil {
			v.add(fmt.Sprintf("rules[%d].pattern", i), ErrInvalidTextPattern, "%v", err)
		}
	}
}

func (v *ruleValidator) patterns(patterns []sparql.Pattern) {
	if len(patterns) == 0 {
		// An empty expansion removes the placeholder, which is legal.
		return
	}
	for i, p := range patterns {
		field := fmt.Sprintf("patterns[%d]", i)
		if p == nil {
			v.add(field, ErrInvalidPattern, "pattern is nil")
			continue
		}
		// E109: structural problems inside the expansion. Extension
		// patterns are allowed; the walker skips what it cannot traverse.
		for _, verr := range sparql.Validate(p) {
			if verr.Code == sparql.CodeUnknownNodeKind {
				continue
			}
			v.add(field+strings.TrimPrefix(verr.Field, "root"), ErrInvalidPattern, "%s", verr.Message)
		}
	}
}

// E104: placeholder, rename and binding names must be variable names.
var varNamePattern = regexp.MustCompile(`^[\p{L}\p{N}_][\p{L}\p{N}_\x{00B7}\p{Mn}]*$`)

func (v *ruleValidator) variableName(field, name string) {
	bare := rdf.NewVariable(name).Value
	if !varNamePattern.MatchString(bare) {
		v.add(field, ErrInvalidVariableName, "%q is not a variable name", name)
	}
}

func pathMessage(err error) string {
	if verr, ok := err.(*sparql.ValidationError); ok {
		return verr.Message
	}
	return err.Error()
}
