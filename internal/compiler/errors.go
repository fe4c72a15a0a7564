package compiler

import (
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a rule that could not be compiled. Errors raised by CUE
// evaluation itself carry Field "cue" and no Rule.
type CompileError struct {
	Rule    string
	Field   string
	Message string
	Pos     token.Pos
}

// FieldPath returns the field qualified by its rule, e.g. rule.withUser.bindings.
func (e *CompileError) FieldPath() string {
	if e.Rule == "" {
		return e.Field
	}
	return "rule." + e.Rule + "." + e.Field
}

func (e *CompileError) Error() string {
	if !e.Pos.IsValid() {
		return e.FieldPath() + ": " + e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.FieldPath(), e.Message)
}

// cueError turns the first positioned error in a CUE error list into a
// CompileError. Errors without a position are returned unchanged.
func cueError(err error) error {
	if err == nil {
		return nil
	}
	for _, e := range cueerrors.Errors(err) {
		if pos := cueerrors.Positions(e); len(pos) > 0 {
			return &CompileError{Field: "cue", Message: e.Error(), Pos: pos[0]}
		}
	}
	return err
}
