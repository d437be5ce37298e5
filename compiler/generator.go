// generator.go lowers an *ast.Program to a flat list of abstract
// instructions. It is the hardest part of the compiler: every
// expression form has a fixed, spec-mandated lowering, and several of
// them (tuple indexing, equality, call framing) depend on getting a
// byte-offset arithmetic detail exactly right.
package compiler

import (
	"fmt"

	"github.com/skx/snek-compiler/ast"
	"github.com/skx/snek-compiler/instructions"
	"github.com/skx/snek-compiler/internal/diagnostics"
	"github.com/skx/snek-compiler/internal/env"
)

// Tagged boolean literals. Nothing else in the generator hard-codes
// these numbers.
const (
	falseVal int64 = 3
	trueVal  int64 = 7
)

// inputShadowKey is the environment key used to mark that "input" has
// been shadowed inside the current function body. Its bound slot value
// is never read as an address; presence is all that matters.
const inputShadowKey = "input"

// Generator lowers AST expressions to instructions.Instruction. The
// label counter is a field rather than a package-level variable so that
// nothing needs hidden process-wide state: every recursive compile call
// reaches it through the receiver.
type Generator struct {
	funcs  FuncTable
	labels int
}

// NewGenerator builds a Generator against a previously computed
// function table.
func NewGenerator(funcs FuncTable) *Generator {
	return &Generator{funcs: funcs}
}

// freshLabel returns a label unique within this Generator's lifetime,
// built from a short role name so emitted assembly stays readable.
func (g *Generator) freshLabel(role string) string {
	g.labels++
	return fmt.Sprintf("%s_%d", role, g.labels)
}

// CompileFunc lowers one function definition to its label, body and
// return.
func (g *Generator) CompileFunc(fn *ast.Func) ([]instructions.Instruction, error) {
	n := len(fn.Params)

	scope := env.New().Extend(inputShadowKey, 0)
	for i, p := range fn.Params {
		scope = scope.Extend(p, -(n - i))
	}

	body, err := g.compile(fn.Body, 2, scope, "")
	if err != nil {
		return nil, fmt.Errorf("in function %q: %w", fn.Name, err)
	}

	out := []instructions.Instruction{instructions.Lbl(fn.Name)}
	out = append(out, body...)
	out = append(out, instructions.RetInstr())
	return out, nil
}

// CompileBody lowers the program's trailing expression, the one
// evaluated directly by our_code_starts_here.
func (g *Generator) CompileBody(trail ast.Expr) ([]instructions.Instruction, error) {
	return g.compile(trail, 2, env.New(), "")
}

// compile dispatches on the concrete expression type. si is the next
// free stack slot, scope resolves bound names to slots, and breakLabel
// is the target a Break inside the nearest enclosing Loop jumps to (empty
// outside any loop).
func (g *Generator) compile(e ast.Expr, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	switch n := e.(type) {
	case *ast.Number:
		return g.compileNumber(n)
	case *ast.Boolean:
		return g.compileBoolean(n)
	case *ast.Id:
		return g.compileID(n, scope)
	case *ast.UnaryOp:
		return g.compileUnaryOp(n, si, scope, breakLabel)
	case *ast.BinaryOp:
		return g.compileBinaryOp(n, si, scope, breakLabel)
	case *ast.If:
		return g.compileIf(n, si, scope, breakLabel)
	case *ast.Block:
		return g.compileBlock(n, si, scope, breakLabel)
	case *ast.Set:
		return g.compileSet(n, si, scope, breakLabel)
	case *ast.Loop:
		return g.compileLoop(n, si, scope)
	case *ast.Break:
		return g.compileBreak(n, si, scope, breakLabel)
	case *ast.Let:
		return g.compileLet(n, si, scope, breakLabel)
	case *ast.Call:
		return g.compileCall(n, si, scope, breakLabel)
	case *ast.Tuple:
		return g.compileTuple(n, si, scope, breakLabel)
	case *ast.Index:
		return g.compileIndex(n, si, scope, breakLabel)
	default:
		return nil, diagnostics.Errorf(diagnostics.CodeParse, "unhandled expression node %T", e)
	}
}

func (g *Generator) compileNumber(n *ast.Number) ([]instructions.Instruction, error) {
	return []instructions.Instruction{
		mov(rax(), imm(n.Value<<1)),
	}, nil
}

func (g *Generator) compileBoolean(n *ast.Boolean) ([]instructions.Instruction, error) {
	v := falseVal
	if n.Value {
		v = trueVal
	}
	return []instructions.Instruction{
		mov(rax(), imm(v)),
	}, nil
}

// idReservedAsBareName holds the syntactic-form keywords that are
// rejected as a bare identifier reference regardless of scope, matching
// the ground truth's Expr::Id arm. They're deliberately not part of
// token.Keywords: that table governs binding positions (let/parameter
// names), while this one governs reference positions, and the two sets
// differ ("loop" is a legal binding name but never a legal reference;
// "break" is reserved in both positions).
var idReservedAsBareName = map[string]bool{
	"let":   true,
	"if":    true,
	"block": true,
	"loop":  true,
	"break": true,
}

func (g *Generator) compileID(n *ast.Id, scope *env.Env) ([]instructions.Instruction, error) {
	if n.Name == "input" {
		if _, shadowed := scope.Lookup(inputShadowKey); shadowed {
			return nil, diagnostics.Errorf(diagnostics.CodeInputShadowed,
				"input is not available inside a function body")
		}
		return []instructions.Instruction{mov(rax(), rdi())}, nil
	}

	if idReservedAsBareName[n.Name] {
		return nil, diagnostics.Errorf(diagnostics.CodeKeyword, "illegal name, %q is a keyword", n.Name)
	}

	slot, ok := scope.Lookup(n.Name)
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.CodeUnbound, "unbound identifier %q", n.Name)
	}
	return []instructions.Instruction{mov(rax(), instructions.Slot(slot))}, nil
}

// checkIsInt traps to invalid_argument unless RAX currently holds an
// integer (tag bit 0 clear).
func checkIsInt() []instructions.Instruction {
	return []instructions.Instruction{
		instructions.I(instructions.Test, rax(), imm(1)),
		instructions.Jump(instructions.Jne, "invalid_argument"),
	}
}

func (g *Generator) compileUnaryOp(n *ast.UnaryOp, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	operand, err := g.compile(n.Operand, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}

	out := append([]instructions.Instruction{}, operand...)

	switch n.Op {
	case ast.Add1, ast.Sub1:
		out = append(out, checkIsInt()...)
		if n.Op == ast.Add1 {
			out = append(out, instructions.I(instructions.Add, rax(), imm(2)))
		} else {
			out = append(out, instructions.I(instructions.Sub, rax(), imm(2)))
		}
		out = append(out, instructions.Jump(instructions.Jo, "overflow"))
		return out, nil

	case ast.IsNum:
		out = append(out,
			instructions.I(instructions.Test, rax(), imm(1)),
			mov(rax(), imm(falseVal)),
			mov(rbx(), imm(trueVal)),
			instructions.I(instructions.Cmove, rax(), rbx()),
		)
		return out, nil

	case ast.IsBool:
		out = append(out,
			instructions.I(instructions.And, rax(), imm(3)),
			instructions.I(instructions.Cmp, rax(), imm(3)),
			mov(rax(), imm(falseVal)),
			mov(rbx(), imm(trueVal)),
			instructions.I(instructions.Cmove, rax(), rbx()),
		)
		return out, nil
	}

	return out, nil
}

func (g *Generator) compileBinaryOp(n *ast.BinaryOp, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	switch n.Op {
	case ast.Plus, ast.Minus, ast.Times:
		return g.compileArith(n, si, scope, breakLabel)
	case ast.Equal:
		return g.compileEqual(n, si, scope, breakLabel)
	default:
		return g.compileOrdering(n, si, scope, breakLabel)
	}
}

// compileArith handles +, - and *. Operands are evaluated right to
// left: the right operand is computed and spilled first, then the left
// is computed with the right already safely on the stack.
func (g *Generator) compileArith(n *ast.BinaryOp, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	right, err := g.compile(n.Right, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}
	left, err := g.compile(n.Left, si+1, scope, breakLabel)
	if err != nil {
		return nil, err
	}

	var out []instructions.Instruction
	out = append(out, right...)
	out = append(out, checkIsInt()...)
	out = append(out, mov(instructions.Slot(si), rax()))
	out = append(out, left...)
	out = append(out, checkIsInt()...)

	switch n.Op {
	case ast.Plus:
		out = append(out, instructions.I(instructions.Add, rax(), instructions.Slot(si)))
	case ast.Minus:
		out = append(out, instructions.I(instructions.Sub, rax(), instructions.Slot(si)))
	case ast.Times:
		// The left operand is still tagged (shifted left by one); undo
		// that before multiplying so the product isn't doubly scaled.
		out = append(out, instructions.I(instructions.Sar, rax(), imm(1)))
		out = append(out, instructions.I(instructions.Imul, rax(), instructions.Slot(si)))
	}
	out = append(out, instructions.Jump(instructions.Jo, "overflow"))
	return out, nil
}

// compileEqual handles "=". Two operands of differing tag-parity trap
// as invalid_argument; two odd-tagged operands (booleans vs a tuple
// pointer) are additionally required to share the same 2-bit tag before
// the bit pattern comparison is trusted.
func (g *Generator) compileEqual(n *ast.BinaryOp, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	right, err := g.compile(n.Right, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}
	left, err := g.compile(n.Left, si+1, scope, breakLabel)
	if err != nil {
		return nil, err
	}

	cmpLabel := g.freshLabel("eqcmp")

	var out []instructions.Instruction
	out = append(out, right...)
	out = append(out, mov(instructions.Slot(si), rax()))
	out = append(out, left...)
	out = append(out,
		mov(rbx(), rax()),
		instructions.I(instructions.Xor, rbx(), instructions.Slot(si)),
		instructions.I(instructions.Test, rbx(), imm(1)),
		instructions.Jump(instructions.Jne, "invalid_argument"),

		instructions.I(instructions.Test, rax(), imm(1)),
		instructions.Jump(instructions.Je, cmpLabel),

		mov(rbx(), rax()),
		instructions.I(instructions.And, rbx(), imm(3)),
		mov(instructions.Slot(si+1), rbx()),
		mov(rbx(), instructions.Slot(si)),
		instructions.I(instructions.And, rbx(), imm(3)),
		instructions.I(instructions.Cmp, rbx(), instructions.Slot(si+1)),
		instructions.Jump(instructions.Jne, "invalid_argument"),

		instructions.Lbl(cmpLabel),
		instructions.I(instructions.Cmp, rax(), instructions.Slot(si)),
		mov(rax(), imm(falseVal)),
		mov(rbx(), imm(trueVal)),
		instructions.I(instructions.Cmove, rax(), rbx()),
	)
	return out, nil
}

// compileOrdering handles >, <, >= and <=, each requiring both operands
// to be integers.
func (g *Generator) compileOrdering(n *ast.BinaryOp, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	right, err := g.compile(n.Right, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}
	left, err := g.compile(n.Left, si+1, scope, breakLabel)
	if err != nil {
		return nil, err
	}

	var jumpOp instructions.Op
	var role string
	switch n.Op {
	case ast.Greater:
		jumpOp, role = instructions.Jg, "greater"
	case ast.Less:
		jumpOp, role = instructions.Jl, "less"
	case ast.GreaterEqual:
		jumpOp, role = instructions.Jge, "greaterequal"
	case ast.LessEqual:
		jumpOp, role = instructions.Jle, "lessequal"
	}
	trueLabel := g.freshLabel(role)
	endLabel := g.freshLabel(role + "end")

	var out []instructions.Instruction
	out = append(out, right...)
	out = append(out, checkIsInt()...)
	out = append(out, mov(instructions.Slot(si), rax()))
	out = append(out, left...)
	out = append(out, checkIsInt()...)
	out = append(out,
		instructions.I(instructions.Cmp, rax(), instructions.Slot(si)),
		instructions.Jump(jumpOp, trueLabel),
		mov(rax(), imm(falseVal)),
		instructions.Jump(instructions.Jmp, endLabel),
		instructions.Lbl(trueLabel),
		mov(rax(), imm(trueVal)),
		instructions.Lbl(endLabel),
	)
	return out, nil
}

func (g *Generator) compileIf(n *ast.If, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	cond, err := g.compile(n.Cond, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}
	thenInstrs, err := g.compile(n.Then, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}
	elseInstrs, err := g.compile(n.Else, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}

	elseLabel := g.freshLabel("ifelse")
	endLabel := g.freshLabel("ifend")

	var out []instructions.Instruction
	out = append(out, cond...)
	out = append(out,
		instructions.I(instructions.Cmp, rax(), imm(falseVal)),
		instructions.Jump(instructions.Je, elseLabel),
	)
	out = append(out, thenInstrs...)
	out = append(out, instructions.Jump(instructions.Jmp, endLabel))
	out = append(out, instructions.Lbl(elseLabel))
	out = append(out, elseInstrs...)
	out = append(out, instructions.Lbl(endLabel))
	return out, nil
}

func (g *Generator) compileBlock(n *ast.Block, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	var out []instructions.Instruction
	for _, e := range n.Exprs {
		instrs, err := g.compile(e, si, scope, breakLabel)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}
	return out, nil
}

func (g *Generator) compileSet(n *ast.Set, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	slot, ok := scope.Lookup(n.Name)
	if !ok || n.Name == inputShadowKey {
		return nil, diagnostics.Errorf(diagnostics.CodeUnbound, "unbound identifier %q in set!", n.Name)
	}
	val, err := g.compile(n.Expr, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}
	out := append([]instructions.Instruction{}, val...)
	out = append(out, mov(instructions.Slot(slot), rax()))
	return out, nil
}

func (g *Generator) compileLoop(n *ast.Loop, si int, scope *env.Env) ([]instructions.Instruction, error) {
	startLabel := g.freshLabel("loop")
	endLabel := g.freshLabel("loopend")

	body, err := g.compile(n.Body, si, scope, endLabel)
	if err != nil {
		return nil, err
	}

	var out []instructions.Instruction
	out = append(out, instructions.Lbl(startLabel))
	out = append(out, body...)
	out = append(out, instructions.Jump(instructions.Jmp, startLabel))
	out = append(out, instructions.Lbl(endLabel))
	return out, nil
}

func (g *Generator) compileBreak(n *ast.Break, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	if breakLabel == "" {
		return nil, diagnostics.Errorf(diagnostics.CodeBreakOutsideLoop, "break used outside of any enclosing loop")
	}
	val, err := g.compile(n.Expr, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}
	out := append([]instructions.Instruction{}, val...)
	out = append(out, instructions.Jump(instructions.Jmp, breakLabel))
	return out, nil
}

func (g *Generator) compileLet(n *ast.Let, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	var out []instructions.Instruction
	cur := scope
	for i, b := range n.Bindings {
		slot := si + i
		val, err := g.compile(b.Expr, slot, cur, breakLabel)
		if err != nil {
			return nil, err
		}
		out = append(out, val...)
		out = append(out, mov(instructions.Slot(slot), rax()))
		cur = cur.Extend(b.Name, slot)
	}

	body, err := g.compile(n.Body, si+len(n.Bindings), cur, breakLabel)
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	return out, nil
}

// compileCall implements the stack-alignment scheme the calling
// convention depends on: the caller must present a 16-byte aligned RSP
// at the `call` instruction, accounting for the 8 bytes the `call`
// itself pushes.
func (g *Generator) compileCall(n *ast.Call, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	arity, ok := g.funcs.Lookup(n.Name)
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.CodeUnbound, "call to undefined function %q", n.Name)
	}
	if arity != len(n.Args) {
		return nil, diagnostics.Errorf(diagnostics.CodeArity,
			"%s expects %d argument(s), got %d", n.Name, arity, len(n.Args))
	}

	argc := len(n.Args)
	align := int64(0)
	alignSlots := 0
	if (si+argc)%2 == 0 {
		align = 8
		alignSlots = 1
	}

	var out []instructions.Instruction
	out = append(out, mov(instructions.Slot(si), rdi()))

	for k, arg := range n.Args {
		argSlot := si + k + 1 + alignSlots
		val, err := g.compile(arg, argSlot, scope, breakLabel)
		if err != nil {
			return nil, err
		}
		out = append(out, val...)
		out = append(out, mov(instructions.Slot(argSlot), rax()))
	}

	frame := 8*int64(si+argc) + align
	out = append(out,
		instructions.I(instructions.Sub, rsp(), imm(frame)),
		instructions.Jump(instructions.Call, n.Name),
		instructions.I(instructions.Add, rsp(), imm(frame)),
		mov(rdi(), instructions.Slot(si)),
	)
	return out, nil
}

// compileTuple lays out a contiguous header-plus-elements block at the
// current heap pointer, then tags and bumps it. Elements are evaluated
// left to right, reusing si as scratch for each; the heap pointer itself
// is never touched until every element has landed.
func (g *Generator) compileTuple(n *ast.Tuple, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	count := int64(len(n.Elems))

	var out []instructions.Instruction
	out = append(out, mov(instructions.Heap(0), imm(count<<1)))

	for k, e := range n.Elems {
		val, err := g.compile(e, si, scope, breakLabel)
		if err != nil {
			return nil, err
		}
		out = append(out, val...)
		out = append(out, mov(instructions.Heap(8*int64(k+1)), rax()))
	}

	out = append(out,
		mov(rax(), r15()),
		instructions.I(instructions.Add, rax(), imm(1)),
		instructions.I(instructions.Add, r15(), imm(8*(count+1))),
	)
	return out, nil
}

// compileIndex traps not_tuple if the base isn't a tagged heap pointer,
// and index_out_of_bound if the (tagged, still-encoded) index compares
// at or past the tuple's encoded length. The final load folds the
// pointer's tag-bit subtraction into the memory operand's displacement
// rather than untagging the base in a separate instruction.
func (g *Generator) compileIndex(n *ast.Index, si int, scope *env.Env, breakLabel string) ([]instructions.Instruction, error) {
	tup, err := g.compile(n.Tuple, si, scope, breakLabel)
	if err != nil {
		return nil, err
	}
	idx, err := g.compile(n.Index, si+2, scope, breakLabel)
	if err != nil {
		return nil, err
	}

	var out []instructions.Instruction
	out = append(out, tup...)
	out = append(out, mov(instructions.Slot(si), rax()))
	out = append(out,
		mov(rbx(), rax()),
		instructions.I(instructions.And, rbx(), imm(3)),
		instructions.I(instructions.Cmp, rbx(), imm(1)),
		instructions.Jump(instructions.Jne, "not_tuple"),
		mov(rax(), instructions.Mem{Base: instructions.RAX, Disp: -1}),
		mov(instructions.Slot(si+1), rax()),
	)

	out = append(out, idx...)
	out = append(out,
		instructions.I(instructions.Cmp, rax(), instructions.Slot(si+1)),
		instructions.Jump(instructions.Jge, "index_out_of_bound"),
		instructions.I(instructions.Sar, rax(), imm(1)),
		instructions.I(instructions.Imul, rax(), imm(8)),
		instructions.I(instructions.Add, rax(), imm(8)),
		instructions.I(instructions.Add, rax(), instructions.Slot(si)),
		mov(rax(), instructions.Mem{Base: instructions.RAX, Disp: -1}),
	)
	return out, nil
}

// Small operand constructors, kept terse since they appear on nearly
// every line above.
func rax() instructions.Reg { return instructions.Reg{Register: instructions.RAX} }
func rbx() instructions.Reg { return instructions.Reg{Register: instructions.RBX} }
func rdi() instructions.Reg { return instructions.Reg{Register: instructions.RDI} }
func rsp() instructions.Reg { return instructions.Reg{Register: instructions.RSP} }
func r15() instructions.Reg { return instructions.Reg{Register: instructions.R15} }

func imm(v int64) instructions.Imm { return instructions.Imm{Value: v} }

func mov(dst, src instructions.Operand) instructions.Instruction {
	return instructions.I(instructions.Mov, dst, src)
}
