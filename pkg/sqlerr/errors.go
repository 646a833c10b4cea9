// Package sqlerr defines the error kinds reported by the DBF SQL engine.
package sqlerr

import (
	"errors"
	"fmt"
)

// Kind categorizes engine errors. A Kind is itself an error so that callers
// can match with errors.Is(err, sqlerr.TableNotFound).
type Kind int

const (
	Unknown Kind = iota
	Syntax
	DuplicateColumn
	ColumnNotFound
	TableNotFound
	TableAlreadyExists
	PermissionDenied
	TypeMismatch
	InvalidOperandType
	NonBooleanCondition
	OrderColumnNotFound
	DivisionByZero
	AllocationFailure
	InternalConsistency
	CursorNotFound
	IO
)

var kindNames = map[Kind]string{
	Unknown:             "unknown error",
	Syntax:              "syntax error",
	DuplicateColumn:     "duplicate column",
	ColumnNotFound:      "column not found",
	TableNotFound:       "table not found",
	TableAlreadyExists:  "table already exists",
	PermissionDenied:    "permission denied",
	TypeMismatch:        "type mismatch",
	InvalidOperandType:  "invalid operand type",
	NonBooleanCondition: "non-boolean condition",
	OrderColumnNotFound: "order column not found",
	DivisionByZero:      "division by zero",
	AllocationFailure:   "allocation failure",
	InternalConsistency: "internal consistency error",
	CursorNotFound:      "cursor not found",
	IO:                  "i/o error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) Error() string { return k.String() }

// Error is an engine error with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is matches a target Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of err, or Unknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
