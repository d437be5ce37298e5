// Package diagnostics holds the compile-time error type shared across
// every stage of the pipeline, from splitting through code generation.
//
// Every compile-time failure described by the language definition is
// fatal and un-recovered: a stage returns an *Error and the caller's job
// is to stop and report it, never to patch up and continue.
package diagnostics

import "fmt"

// Code names the kind of compile-time failure, independent of the
// free-form message attached to it. Tests assert on Code rather than
// parsing English out of Error().
type Code string

// The fixed set of compile-time failure kinds. Runtime failures (traps
// via snek_error) are not part of this type; they're described by the
// numeric error codes emitted into the generated assembly instead.
const (
	CodeParse            Code = "parse"
	CodeKeyword          Code = "keyword"
	CodeUnbound          Code = "unbound"
	CodeDuplicateBinding Code = "duplicate-binding"
	CodeDuplicateParam   Code = "duplicate-param"
	CodeDuplicateFunc    Code = "duplicate-func"
	CodeArity            Code = "arity"
	CodeInputShadowed    Code = "input-shadowed"
	CodeBreakOutsideLoop Code = "break-outside-loop"
	CodeEmptyBlock       Code = "empty-block"
	CodeEmptyTuple       Code = "empty-tuple"
	CodeIntRange         Code = "int-range"
	CodeTopLevelOrder    Code = "top-level-order"
)

// Error is a compile-time diagnostic: a stable Code plus free-form
// context describing the offending form.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds an *Error, formatting Message the way fmt.Errorf would.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// As reports whether err is a *diagnostics.Error with the given code,
// for use in tests that want to assert on failure kind.
func As(err error, code Code) bool {
	de, ok := err.(*Error)
	return ok && de.Code == code
}
