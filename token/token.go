// Package token holds the reserved-word table shared by the S-expression
// AST builder.
//
// The source language doesn't have a lexer of its own — forms arrive as
// already-tokenised S-expressions from the external reader — but several
// stages still need to know which identifiers are off-limits as variable,
// parameter, or function names.
package token

// Keywords is the full reserved-word set of the source language. A name
// appearing here may never be used as a let-binding, a function
// parameter, or a function name. "true", "false" and "input" remain
// legal as bare references (two literals and the program input).
//
// This list intentionally does not include "fun", "loop", "tuple" or
// "index" even though they are syntactic forms: the source language this
// compiler was distilled from never reserved them either, so a program
// may bind "loop" as a let name or parameter, although the code
// generator still rejects a bare reference to it. Preserved rather than
// fixed.
var Keywords = map[string]bool{
	"let":    true,
	"add1":   true,
	"sub1":   true,
	"block":  true,
	"true":   true,
	"false":  true,
	"if":     true,
	"break":  true,
	"set!":   true,
	"+":      true,
	"-":      true,
	"*":      true,
	"<":      true,
	">":      true,
	"<=":     true,
	">=":     true,
	"=":      true,
	"isnum":  true,
	"isbool": true,
	"input":  true,
}

// IsKeyword reports whether name is a reserved word.
func IsKeyword(name string) bool {
	return Keywords[name]
}
