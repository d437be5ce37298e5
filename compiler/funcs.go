package compiler

import (
	"github.com/skx/snek-compiler/ast"
	"github.com/skx/snek-compiler/internal/diagnostics"
)

// printArity is the arity of the pre-registered runtime printer.
const printArity = 1

// FuncTable maps a function name to its arity. It is built once, ahead
// of code generation, so a call site can validate its argument count
// without having compiled the callee yet.
type FuncTable map[string]int

// Lookup reports the arity of name, if it names a known function.
func (t FuncTable) Lookup(name string) (int, bool) {
	arity, ok := t[name]
	return arity, ok
}

// BuildFuncTable registers every top-level function definition plus the
// built-in "print". prog.Funcs arrives already checked for internal
// duplicates by the AST builder; the only remaining collision to guard
// against here is a user function shadowing "print" itself.
func BuildFuncTable(prog *ast.Program) (FuncTable, error) {
	table := FuncTable{"print": printArity}

	for _, fn := range prog.Funcs {
		if _, exists := table[fn.Name]; exists {
			return nil, diagnostics.Errorf(diagnostics.CodeDuplicateFunc,
				"function %q is defined more than once", fn.Name)
		}
		table[fn.Name] = len(fn.Params)
	}

	return table, nil
}
