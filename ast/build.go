package ast

import (
	"github.com/skx/snek-compiler/internal/diagnostics"
	"github.com/skx/snek-compiler/sexpr"
	"github.com/skx/snek-compiler/token"
)

// minInt and maxInt bound the representable integer range; anything
// outside them traps at compile time rather than silently wrapping.
const (
	minInt = -(1 << 62)
	maxInt = (1 << 62) - 1
)

// Build turns a flat list of top-level forms into a Program: zero or
// more function definitions followed by exactly one trailing
// expression.
func Build(forms []*sexpr.Node) (*Program, error) {
	prog := &Program{}
	funcNames := map[string]bool{}

	for i, form := range forms {
		last := i == len(forms)-1

		if isFunDef(form) {
			fn, err := buildFunc(form)
			if err != nil {
				return nil, err
			}
			if funcNames[fn.Name] {
				return nil, diagnostics.Errorf(diagnostics.CodeDuplicateFunc,
					"function %q is defined more than once", fn.Name)
			}
			funcNames[fn.Name] = true
			prog.Funcs = append(prog.Funcs, fn)
			continue
		}

		if !last {
			return nil, diagnostics.Errorf(diagnostics.CodeTopLevelOrder,
				"non-function top-level form %s must be the final form of the program", form)
		}

		expr, err := buildExpr(form)
		if err != nil {
			return nil, err
		}
		prog.Trail = expr
	}

	if prog.Trail == nil {
		return nil, diagnostics.Errorf(diagnostics.CodeParse, "program has no trailing expression")
	}

	return prog, nil
}

func isFunDef(n *sexpr.Node) bool {
	return n.Kind == sexpr.KindList &&
		len(n.List) > 0 &&
		n.List[0].Kind == sexpr.KindSymbol &&
		n.List[0].Symbol == "fun"
}

// buildFunc converts "(fun (name param...) body)".
func buildFunc(n *sexpr.Node) (*Func, error) {
	if len(n.List) != 3 {
		return nil, diagnostics.Errorf(diagnostics.CodeParse, "malformed function definition: %s", n)
	}

	sig := n.List[1]
	if sig.Kind != sexpr.KindList || len(sig.List) == 0 || sig.List[0].Kind != sexpr.KindSymbol {
		return nil, diagnostics.Errorf(diagnostics.CodeParse, "malformed function signature: %s", sig)
	}

	name := sig.List[0].Symbol
	if token.IsKeyword(name) {
		return nil, diagnostics.Errorf(diagnostics.CodeKeyword, "function name %q is a reserved word", name)
	}

	var params []string
	seen := map[string]bool{}
	for _, p := range sig.List[1:] {
		if p.Kind != sexpr.KindSymbol {
			return nil, diagnostics.Errorf(diagnostics.CodeParse, "function parameter must be a bare identifier, got %s", p)
		}
		if token.IsKeyword(p.Symbol) {
			return nil, diagnostics.Errorf(diagnostics.CodeKeyword, "parameter name %q is a reserved word", p.Symbol)
		}
		if seen[p.Symbol] {
			return nil, diagnostics.Errorf(diagnostics.CodeDuplicateParam,
				"duplicate parameter name %q in function %q", p.Symbol, name)
		}
		seen[p.Symbol] = true
		params = append(params, p.Symbol)
	}

	body, err := buildExpr(n.List[2])
	if err != nil {
		return nil, err
	}

	return &Func{Name: name, Params: params, Body: body}, nil
}

func buildExpr(n *sexpr.Node) (Expr, error) {
	switch n.Kind {
	case sexpr.KindInt:
		if n.Int < minInt || n.Int > maxInt {
			return nil, diagnostics.Errorf(diagnostics.CodeIntRange,
				"integer literal %d is outside the representable range", n.Int)
		}
		return &Number{Value: n.Int}, nil

	case sexpr.KindSymbol:
		switch n.Symbol {
		case "true":
			return &Boolean{Value: true}, nil
		case "false":
			return &Boolean{Value: false}, nil
		default:
			return &Id{Name: n.Symbol}, nil
		}

	default:
		return buildList(n)
	}
}

func buildList(n *sexpr.Node) (Expr, error) {
	if len(n.List) == 0 {
		return nil, diagnostics.Errorf(diagnostics.CodeParse, "empty form")
	}

	head := n.List[0]
	if head.Kind != sexpr.KindSymbol {
		return nil, diagnostics.Errorf(diagnostics.CodeParse, "expected an operator or function name, got %s", head)
	}
	args := n.List[1:]

	switch head.Symbol {
	case "add1", "sub1", "isnum", "isbool":
		if len(args) != 1 {
			return nil, diagnostics.Errorf(diagnostics.CodeArity, "%s expects 1 argument, got %d", head.Symbol, len(args))
		}
		operand, err := buildExpr(args[0])
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: unOpFor(head.Symbol), Operand: operand}, nil

	case "+", "-", "*", "=", ">", "<", ">=", "<=":
		if len(args) != 2 {
			return nil, diagnostics.Errorf(diagnostics.CodeArity, "%s expects 2 arguments, got %d", head.Symbol, len(args))
		}
		left, err := buildExpr(args[0])
		if err != nil {
			return nil, err
		}
		right, err := buildExpr(args[1])
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: binOpFor(head.Symbol), Left: left, Right: right}, nil

	case "if":
		if len(args) != 3 {
			return nil, diagnostics.Errorf(diagnostics.CodeArity, "if expects 3 arguments, got %d", len(args))
		}
		cond, err := buildExpr(args[0])
		if err != nil {
			return nil, err
		}
		then, err := buildExpr(args[1])
		if err != nil {
			return nil, err
		}
		els, err := buildExpr(args[2])
		if err != nil {
			return nil, err
		}
		return &If{Cond: cond, Then: then, Else: els}, nil

	case "block":
		if len(args) == 0 {
			return nil, diagnostics.Errorf(diagnostics.CodeEmptyBlock, "block must contain at least one expression")
		}
		exprs := make([]Expr, len(args))
		for i, a := range args {
			e, err := buildExpr(a)
			if err != nil {
				return nil, err
			}
			exprs[i] = e
		}
		return &Block{Exprs: exprs}, nil

	case "tuple":
		if len(args) == 0 {
			return nil, diagnostics.Errorf(diagnostics.CodeEmptyTuple, "tuple must contain at least one element")
		}
		elems := make([]Expr, len(args))
		for i, a := range args {
			e, err := buildExpr(a)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return &Tuple{Elems: elems}, nil

	case "index":
		if len(args) != 2 {
			return nil, diagnostics.Errorf(diagnostics.CodeArity, "index expects 2 arguments, got %d", len(args))
		}
		tup, err := buildExpr(args[0])
		if err != nil {
			return nil, err
		}
		idx, err := buildExpr(args[1])
		if err != nil {
			return nil, err
		}
		return &Index{Tuple: tup, Index: idx}, nil

	case "set!":
		if len(args) != 2 {
			return nil, diagnostics.Errorf(diagnostics.CodeArity, "set! expects a name and a value, got %d forms", len(args))
		}
		if args[0].Kind != sexpr.KindSymbol {
			return nil, diagnostics.Errorf(diagnostics.CodeParse, "set! target must be a bare identifier, got %s", args[0])
		}
		val, err := buildExpr(args[1])
		if err != nil {
			return nil, err
		}
		return &Set{Name: args[0].Symbol, Expr: val}, nil

	case "loop":
		if len(args) != 1 {
			return nil, diagnostics.Errorf(diagnostics.CodeArity, "loop expects 1 argument, got %d", len(args))
		}
		body, err := buildExpr(args[0])
		if err != nil {
			return nil, err
		}
		return &Loop{Body: body}, nil

	case "break":
		if len(args) != 1 {
			return nil, diagnostics.Errorf(diagnostics.CodeArity, "break expects 1 argument, got %d", len(args))
		}
		val, err := buildExpr(args[0])
		if err != nil {
			return nil, err
		}
		return &Break{Expr: val}, nil

	case "let":
		if len(args) != 2 {
			return nil, diagnostics.Errorf(diagnostics.CodeArity, "let expects a binding list and a body, got %d forms", len(args))
		}
		bindingsNode := args[0]
		if bindingsNode.Kind != sexpr.KindList || len(bindingsNode.List) == 0 {
			return nil, diagnostics.Errorf(diagnostics.CodeParse, "let requires a non-empty binding list")
		}

		seen := map[string]bool{}
		bindings := make([]Binding, len(bindingsNode.List))
		for i, b := range bindingsNode.List {
			if b.Kind != sexpr.KindList || len(b.List) != 2 || b.List[0].Kind != sexpr.KindSymbol {
				return nil, diagnostics.Errorf(diagnostics.CodeParse, "malformed let binding: %s", b)
			}
			name := b.List[0].Symbol
			if token.IsKeyword(name) {
				return nil, diagnostics.Errorf(diagnostics.CodeKeyword, "%q is a reserved word and cannot be bound", name)
			}
			if seen[name] {
				return nil, diagnostics.Errorf(diagnostics.CodeDuplicateBinding, "duplicate let binding for %q", name)
			}
			seen[name] = true

			val, err := buildExpr(b.List[1])
			if err != nil {
				return nil, err
			}
			bindings[i] = Binding{Name: name, Expr: val}
		}

		body, err := buildExpr(args[1])
		if err != nil {
			return nil, err
		}
		return &Let{Bindings: bindings, Body: body}, nil

	case "fun":
		return nil, diagnostics.Errorf(diagnostics.CodeTopLevelOrder, "function definitions are only allowed at the top level")

	default:
		callArgs := make([]Expr, len(args))
		for i, a := range args {
			e, err := buildExpr(a)
			if err != nil {
				return nil, err
			}
			callArgs[i] = e
		}
		return &Call{Name: head.Symbol, Args: callArgs}, nil
	}
}

func unOpFor(sym string) UnOp {
	switch sym {
	case "add1":
		return Add1
	case "sub1":
		return Sub1
	case "isnum":
		return IsNum
	default:
		return IsBool
	}
}

func binOpFor(sym string) BinOp {
	switch sym {
	case "+":
		return Plus
	case "-":
		return Minus
	case "*":
		return Times
	case "=":
		return Equal
	case ">":
		return Greater
	case "<":
		return Less
	case ">=":
		return GreaterEqual
	default:
		return LessEqual
	}
}
