package binder

import (
	"errors"
	"fmt"

	"github.com/roach88/querybinder/internal/sparql"
)

// BindError represents an error detected while walking a tree.
//
// Bind errors include:
//   - Structural mismatch: a replacement does not fit its slot
//   - Unknown node kind: only raised in strict mode
//   - Malformed VALUES row: a row breaks the key or cell rules
//   - Malformed path: a property path breaks its arity rules
type BindError struct {
	// Code identifies the error category.
	Code BindErrorCode

	// Message is a human-readable description.
	Message string

	// Field is the location in the tree, e.g. root.where[0].triples[1].subject.
	Field string

	// Member is the structural member the walker was in.
	Member Member

	// Expected names the kinds the slot accepts (mismatch errors only).
	Expected string

	// Got names the kind that was offered (mismatch errors only).
	Got string
}

// BindErrorCode categorizes bind errors.
// The values match the codes used by sparql.Validate.
type BindErrorCode string

const (
	// ErrCodeStructuralMismatch indicates a node of the wrong kind for its slot.
	ErrCodeStructuralMismatch BindErrorCode = "STRUCTURAL_MISMATCH"

	// ErrCodeUnknownNodeKind indicates a node the walker cannot traverse.
	ErrCodeUnknownNodeKind BindErrorCode = "UNKNOWN_NODE_KIND"

	// ErrCodeMalformedValuesRow indicates a VALUES row with a bad key or cell.
	ErrCodeMalformedValuesRow BindErrorCode = "MALFORMED_VALUES_ROW"

	// ErrCodeMalformedPath indicates a property path with bad arity or items.
	ErrCodeMalformedPath BindErrorCode = "MALFORMED_PATH"
)

// Error implements the error interface.
func (e *BindError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code BindErrorCode) bool {
	var be *BindError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// IsStructuralMismatch returns true if the error is a structural mismatch.
// Uses errors.As to handle wrapped errors.
func IsStructuralMismatch(err error) bool {
	return hasCode(err, ErrCodeStructuralMismatch)
}

// IsUnknownNodeKind returns true if the error is an unknown node kind error.
func IsUnknownNodeKind(err error) bool {
	return hasCode(err, ErrCodeUnknownNodeKind)
}

// IsMalformedValuesRow returns true if the error is a malformed VALUES row.
func IsMalformedValuesRow(err error) bool {
	return hasCode(err, ErrCodeMalformedValuesRow)
}

// IsMalformedPath returns true if the error is a malformed property path.
func IsMalformedPath(err error) bool {
	return hasCode(err, ErrCodeMalformedPath)
}

// NewStructuralMismatch creates a BindError for a node that does not fit its slot.
func NewStructuralMismatch(field string, member Member, expected, got string) *BindError {
	return &BindError{
		Code:     ErrCodeStructuralMismatch,
		Message:  fmt.Sprintf("expected %s in %s slot, got %s", expected, member.slotName(), got),
		Field:    field,
		Member:   member,
		Expected: expected,
		Got:      got,
	}
}

// NewUnknownNodeKind creates a BindError for a node the walker cannot traverse.
func NewUnknownNodeKind(field string, member Member, got string) *BindError {
	return &BindError{
		Code:    ErrCodeUnknownNodeKind,
		Message: fmt.Sprintf("cannot traverse %s", got),
		Field:   field,
		Member:  member,
		Got:     got,
	}
}

// fromValidation converts a sparql.ValidationError into a BindError
// located at field. Other errors are returned unchanged.
func fromValidation(err error, field string, member Member) error {
	var verr *sparql.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	return &BindError{
		Code:    BindErrorCode(verr.Code),
		Message: fmt.Sprintf("%s: %s", verr.Field, verr.Message),
		Field:   field,
		Member:  member,
	}
}
