// Package qerr defines the client-input errors raised while compiling a filter
// into query text. Every error is raised synchronously, before a statement is
// issued, and carries a Code callers can branch on.
package qerr

import (
	"errors"
	"fmt"
)

// Code categorizes compile errors.
type Code string

const (
	// CodeSyntax indicates a malformed field path: unbalanced brackets, a
	// non-numeric array index, more than one wildcard, or a wildcard with no
	// preceding segment.
	CodeSyntax Code = "SYNTAX_ERROR"

	// CodeInvalidOperator indicates an unrecognized operator key in a value spec.
	CodeInvalidOperator Code = "INVALID_OPERATOR"

	// CodeInvalidRegexp indicates a regexp operand that is neither a string
	// nor a pattern.
	CodeInvalidRegexp Code = "INVALID_REGEXP"

	// CodeInvalidOrderSyntax indicates an order term without an ASC/DESC
	// suffix, or an order value that is not a string or list of strings.
	CodeInvalidOrderSyntax Code = "INVALID_ORDER_SYNTAX"

	// CodeInvalidPagination indicates a non-numeric or negative limit or skip.
	CodeInvalidPagination Code = "INVALID_PAGINATION"

	// CodeInvalidFilter indicates a filter document whose shape cannot be
	// compiled, such as an "and" key holding something other than a list.
	CodeInvalidFilter Code = "INVALID_FILTER"
)

// Error is a client-input error detected during compilation.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Input is the offending path, operator or value, when there is one.
	Input string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%s: %s (%q)", e.Code, e.Message, e.Input)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates an Error with a formatted message.
func New(code Code, input, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Input:   input,
	}
}

// Syntax creates a CodeSyntax error for the given path.
func Syntax(path, format string, args ...any) *Error {
	return New(CodeSyntax, path, format, args...)
}

// CodeOf returns the Code of err, or "" when err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsSyntaxError returns true if err is a field path syntax error.
func IsSyntaxError(err error) bool { return Is(err, CodeSyntax) }

// IsInvalidOperator returns true if err reports an unknown operator.
func IsInvalidOperator(err error) bool { return Is(err, CodeInvalidOperator) }

// IsInvalidRegexp returns true if err reports a bad regexp operand.
func IsInvalidRegexp(err error) bool { return Is(err, CodeInvalidRegexp) }

// IsInvalidOrderSyntax returns true if err reports a malformed order term.
func IsInvalidOrderSyntax(err error) bool { return Is(err, CodeInvalidOrderSyntax) }

// IsInvalidPagination returns true if err reports a bad limit or skip.
func IsInvalidPagination(err error) bool { return Is(err, CodeInvalidPagination) }

// IsInvalidFilter returns true if err reports a malformed filter shape.
func IsInvalidFilter(err error) bool { return Is(err, CodeInvalidFilter) }

// IsClientError returns true if err is any compile error. Client errors are
// never retried.
func IsClientError(err error) bool { return CodeOf(err) != "" }
