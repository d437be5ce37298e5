package compiler

import (
	"testing"

	"github.com/skx/snek-compiler/ast"
	"github.com/skx/snek-compiler/instructions"
	"github.com/skx/snek-compiler/internal/diagnostics"
	"github.com/skx/snek-compiler/internal/env"
)

func TestCompileNumberTagsTheValue(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	instrs, err := g.compile(&ast.Number{Value: 5}, 2, env.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(instrs))
	}
	src, ok := instrs[0].Src.(instructions.Imm)
	if !ok || src.Value != 10 {
		t.Fatalf("expected immediate 10 (5<<1), got %#v", instrs[0].Src)
	}
}

func TestCompileBareSyntaxKeywordReferenceIsFatal(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	scope := env.New().Extend("loop", 3)
	_, err := g.compile(&ast.Id{Name: "loop"}, 2, scope, "")
	if !diagnostics.As(err, diagnostics.CodeKeyword) {
		t.Fatalf("expected CodeKeyword even though \"loop\" is bound in scope, got %v", err)
	}
}

func TestCompileUnboundIdentifier(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	_, err := g.compile(&ast.Id{Name: "x"}, 2, env.New(), "")
	if !diagnostics.As(err, diagnostics.CodeUnbound) {
		t.Fatalf("expected CodeUnbound, got %v", err)
	}
}

func TestCompileInputInsideFunctionIsRejected(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	scope := env.New().Extend(inputShadowKey, 0)
	_, err := g.compile(&ast.Id{Name: "input"}, 2, scope, "")
	if !diagnostics.As(err, diagnostics.CodeInputShadowed) {
		t.Fatalf("expected CodeInputShadowed, got %v", err)
	}
}

func TestCompileInputAtTopLevel(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	instrs, err := g.compile(&ast.Id{Name: "input"}, 2, env.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 1 {
		t.Fatalf("expected a single mov instruction, got %d", len(instrs))
	}
	src, ok := instrs[0].Src.(instructions.Reg)
	if !ok || src.Register != instructions.RDI {
		t.Fatalf("expected input to read from rdi, got %#v", instrs[0].Src)
	}
}

func TestCompileAdd1TrapsOnOverflow(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	instrs, err := g.compile(&ast.UnaryOp{Op: ast.Add1, Operand: &ast.Number{Value: 1}}, 2, env.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsJumpTo(instrs, instructions.Jo, "overflow") {
		t.Fatalf("expected a jo-to-overflow instruction, got %+v", instrs)
	}
	if !containsJumpTo(instrs, instructions.Jne, "invalid_argument") {
		t.Fatalf("expected a type-check trampoline, got %+v", instrs)
	}
}

func TestCompileBreakOutsideLoopIsFatal(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	_, err := g.compile(&ast.Break{Expr: &ast.Number{Value: 1}}, 2, env.New(), "")
	if !diagnostics.As(err, diagnostics.CodeBreakOutsideLoop) {
		t.Fatalf("expected CodeBreakOutsideLoop, got %v", err)
	}
}

func TestCompileLoopEstablishesBreakTarget(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	loop := &ast.Loop{Body: &ast.Break{Expr: &ast.Number{Value: 0}}}
	instrs, err := g.compile(loop, 2, env.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Expect: label loop_N, mov rax imm, jmp loopend_M, jmp loop_N, label loopend_M
	endLabel := instrs[len(instrs)-1].Target
	foundJmpToLoopend := false
	for _, ins := range instrs {
		if ins.Op == instructions.Jmp && ins.Target == endLabel {
			foundJmpToLoopend = true
		}
	}
	if !foundJmpToLoopend {
		t.Fatalf("expected break to emit a jmp to the loop's end label, got %+v", instrs)
	}
}

func TestCompileCallArityMismatch(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1, "f": 2})
	_, err := g.compile(&ast.Call{Name: "f", Args: []ast.Expr{&ast.Number{Value: 1}}}, 2, env.New(), "")
	if !diagnostics.As(err, diagnostics.CodeArity) {
		t.Fatalf("expected CodeArity, got %v", err)
	}
}

func TestCompileCallUndefinedFunction(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	_, err := g.compile(&ast.Call{Name: "nope", Args: nil}, 2, env.New(), "")
	if !diagnostics.As(err, diagnostics.CodeUnbound) {
		t.Fatalf("expected CodeUnbound, got %v", err)
	}
}

func TestCompileTupleEmitsHeaderAndElements(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	tup := &ast.Tuple{Elems: []ast.Expr{&ast.Number{Value: 1}, &ast.Number{Value: 2}}}
	instrs, err := g.compile(tup, 2, env.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	header := instrs[0]
	mem, ok := header.Dst.(instructions.Mem)
	if !ok || mem.Base != instructions.R15 || mem.Disp != 0 {
		t.Fatalf("expected the header write at [r15+0], got %#v", header.Dst)
	}
	imm, ok := header.Src.(instructions.Imm)
	if !ok || imm.Value != 4 {
		t.Fatalf("expected encoded length 4 (2<<1), got %#v", header.Src)
	}

	for k, want := range []int64{8, 16} {
		found := false
		for _, ins := range instrs {
			if m, ok := ins.Dst.(instructions.Mem); ok && m.Base == instructions.R15 && m.Disp == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected element %d stored at [r15+%d], got %+v", k, want, instrs)
		}
	}
}

func TestCompileIndexEmitsBothRuntimeChecks(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	idx := &ast.Index{Tuple: &ast.Id{Name: "t"}, Index: &ast.Number{Value: 0}}
	scope := env.New().Extend("t", 2)
	instrs, err := g.compile(idx, 3, scope, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsJumpTo(instrs, instructions.Jne, "not_tuple") {
		t.Fatalf("expected a not_tuple trampoline, got %+v", instrs)
	}
	if !containsJumpTo(instrs, instructions.Jge, "index_out_of_bound") {
		t.Fatalf("expected an index_out_of_bound trampoline, got %+v", instrs)
	}
}

func TestCompileEqualSkipsSecondaryCheckForIntegers(t *testing.T) {
	g := NewGenerator(FuncTable{"print": 1})
	eq := &ast.BinaryOp{Op: ast.Equal, Left: &ast.Number{Value: 1}, Right: &ast.Number{Value: 1}}
	instrs, err := g.compile(eq, 2, env.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsJumpOp(instrs, instructions.Je) {
		t.Fatalf("expected a je skipping the secondary tag check, got %+v", instrs)
	}
}

func containsJumpTo(instrs []instructions.Instruction, op instructions.Op, target string) bool {
	for _, ins := range instrs {
		if ins.Op == op && ins.Target == target {
			return true
		}
	}
	return false
}

func containsJumpOp(instrs []instructions.Instruction, op instructions.Op) bool {
	for _, ins := range instrs {
		if ins.Op == op {
			return true
		}
	}
	return false
}
