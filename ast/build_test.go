package ast

import (
	"testing"

	"github.com/skx/snek-compiler/internal/diagnostics"
	"github.com/skx/snek-compiler/sexpr"
)

func parse(t *testing.T, src string) *Program {
	t.Helper()
	nodes, err := sexpr.ReadAll(src)
	if err != nil {
		t.Fatalf("unexpected sexpr error: %v", err)
	}
	prog, err := Build(nodes)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return prog
}

func TestBuildNumber(t *testing.T) {
	prog := parse(t, "10")
	n, ok := prog.Trail.(*Number)
	if !ok || n.Value != 10 {
		t.Fatalf("expected Number(10), got %#v", prog.Trail)
	}
}

func TestBuildLet(t *testing.T) {
	prog := parse(t, "(let ((x 5) (y (+ x 1))) (* x y))")
	let, ok := prog.Trail.(*Let)
	if !ok {
		t.Fatalf("expected *Let, got %#v", prog.Trail)
	}
	if len(let.Bindings) != 2 || let.Bindings[0].Name != "x" || let.Bindings[1].Name != "y" {
		t.Fatalf("unexpected bindings: %#v", let.Bindings)
	}
	if _, ok := let.Body.(*BinaryOp); !ok {
		t.Fatalf("expected body to be a BinaryOp, got %#v", let.Body)
	}
}

func TestBuildFunctionAndCall(t *testing.T) {
	nodes, err := sexpr.ReadAll("(fun (fact n) (if (= n 0) 1 (* n (fact (sub1 n))))) (fact 5)")
	if err != nil {
		t.Fatalf("unexpected sexpr error: %v", err)
	}
	prog, err := Build(nodes)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if len(prog.Funcs) != 1 || prog.Funcs[0].Name != "fact" {
		t.Fatalf("unexpected funcs: %#v", prog.Funcs)
	}
	if len(prog.Funcs[0].Params) != 1 || prog.Funcs[0].Params[0] != "n" {
		t.Fatalf("unexpected params: %#v", prog.Funcs[0].Params)
	}
	call, ok := prog.Trail.(*Call)
	if !ok || call.Name != "fact" || len(call.Args) != 1 {
		t.Fatalf("unexpected trailing call: %#v", prog.Trail)
	}
}

func TestBuildTupleAndIndex(t *testing.T) {
	prog := parse(t, "(let ((t (tuple 1 2 3))) (index t 1))")
	let := prog.Trail.(*Let)
	tup, ok := let.Bindings[0].Expr.(*Tuple)
	if !ok || len(tup.Elems) != 3 {
		t.Fatalf("unexpected tuple: %#v", let.Bindings[0].Expr)
	}
	if _, ok := let.Body.(*Index); !ok {
		t.Fatalf("expected body to be an Index, got %#v", let.Body)
	}
}

func TestBuildEmptyBlockIsFatal(t *testing.T) {
	nodes, _ := sexpr.ReadAll("(block)")
	_, err := Build(nodes)
	if !diagnostics.As(err, diagnostics.CodeEmptyBlock) {
		t.Fatalf("expected CodeEmptyBlock, got %v", err)
	}
}

func TestBuildEmptyTupleIsFatal(t *testing.T) {
	nodes, _ := sexpr.ReadAll("(tuple)")
	_, err := Build(nodes)
	if !diagnostics.As(err, diagnostics.CodeEmptyTuple) {
		t.Fatalf("expected CodeEmptyTuple, got %v", err)
	}
}

func TestBuildDuplicateLetBindingIsFatal(t *testing.T) {
	nodes, _ := sexpr.ReadAll("(let ((x 1) (x 2)) x)")
	_, err := Build(nodes)
	if !diagnostics.As(err, diagnostics.CodeDuplicateBinding) {
		t.Fatalf("expected CodeDuplicateBinding, got %v", err)
	}
}

func TestBuildKeywordAsBindingNameIsFatal(t *testing.T) {
	nodes, _ := sexpr.ReadAll("(let ((if 1)) if)")
	_, err := Build(nodes)
	if !diagnostics.As(err, diagnostics.CodeKeyword) {
		t.Fatalf("expected CodeKeyword, got %v", err)
	}
}

func TestBuildDuplicateParamIsFatal(t *testing.T) {
	nodes, _ := sexpr.ReadAll("(fun (f x x) x) 1")
	_, err := Build(nodes)
	if !diagnostics.As(err, diagnostics.CodeDuplicateParam) {
		t.Fatalf("expected CodeDuplicateParam, got %v", err)
	}
}

func TestBuildDuplicateFuncIsFatal(t *testing.T) {
	nodes, _ := sexpr.ReadAll("(fun (f x) x) (fun (f y) y) (f 1)")
	_, err := Build(nodes)
	if !diagnostics.As(err, diagnostics.CodeDuplicateFunc) {
		t.Fatalf("expected CodeDuplicateFunc, got %v", err)
	}
}

func TestBuildNonFunctionBeforeLastFormIsFatal(t *testing.T) {
	nodes, _ := sexpr.ReadAll("1 2")
	_, err := Build(nodes)
	if !diagnostics.As(err, diagnostics.CodeTopLevelOrder) {
		t.Fatalf("expected CodeTopLevelOrder, got %v", err)
	}
}

func TestBuildBreakAndLoop(t *testing.T) {
	prog := parse(t, "(loop (block (if (= input 0) (break 0) 1)))")
	loop, ok := prog.Trail.(*Loop)
	if !ok {
		t.Fatalf("expected *Loop, got %#v", prog.Trail)
	}
	block, ok := loop.Body.(*Block)
	if !ok || len(block.Exprs) != 1 {
		t.Fatalf("expected block body, got %#v", loop.Body)
	}
	cond, ok := block.Exprs[0].(*If)
	if !ok {
		t.Fatalf("expected an if inside the block, got %#v", block.Exprs[0])
	}
	if _, ok := cond.Then.(*Break); !ok {
		t.Fatalf("expected the then-branch to be a Break, got %#v", cond.Then)
	}
}

func TestBuildIntRangeIsFatal(t *testing.T) {
	nodes, _ := sexpr.ReadAll("4611686018427387904")
	_, err := Build(nodes)
	if !diagnostics.As(err, diagnostics.CodeIntRange) {
		t.Fatalf("expected CodeIntRange, got %v", err)
	}
}
