// Package instructions contains a series of types.
//
// The code generator never emits text directly: it builds a flat list of
// these abstract instructions, which the compiler package's printer later turns,
// one for one, into NASM syntax. Keeping the two steps apart means the
// generator can be tested against the instruction list alone, without
// ever comparing strings of assembly.
package instructions

import "fmt"

// Op names one of the abstract operations the generator can emit.
type Op int

const (
	Mov Op = iota
	Add
	Sub
	Imul
	Test
	Cmp
	Sar
	Xor
	And
	Cmove
	Jmp
	Je
	Jne
	Jg
	Jl
	Jge
	Jle
	Jo
	Label
	Call
	Ret
)

// Register names one of the fixed machine registers the generator
// addresses directly.
type Register string

// The registers the generator is aware of. Every other register NASM
// offers is unused by this compiler.
const (
	RAX Register = "rax"
	RBX Register = "rbx"
	RSP Register = "rsp"
	RDI Register = "rdi"
	R15 Register = "r15"

	// RSI is not addressed by generated expression code; it carries the
	// heap base the runtime hands to our_code_starts_here, and is only
	// ever read once, at entry, to seed R15.
	RSI Register = "rsi"
)

// Operand is anything an instruction can read from or write to.
type Operand interface {
	// operand is unexported so Operand can only be implemented inside
	// this package.
	operand()
}

// Reg is a bare register operand.
type Reg struct {
	Register Register
}

func (Reg) operand() {}

// Imm is an integer immediate, already shifted/tagged as the caller
// wants it to appear in the emitted assembly.
type Imm struct {
	Value int64
}

func (Imm) operand() {}

// Mem is a register-plus-displacement memory operand, printed as
// "[reg + Disp]" for a non-negative Disp and "[reg - n]", with n = -Disp,
// otherwise.
// A positive Disp is how heap addressing (relative to R15) is built; a
// negative Disp is how stack slots (relative to RSP) are built, since
// the stack grows down and a local's slot therefore lives below RSP.
type Mem struct {
	Base Register
	Disp int64
}

func (Mem) operand() {}

// Slot returns the memory operand for local/parameter stack slot n,
// i.e. "[rsp - 8*n]". Negative n (parameters) therefore lands above
// RSP, as the calling convention requires.
func Slot(n int) Mem {
	return Mem{Base: RSP, Disp: -8 * int64(n)}
}

// Heap returns the memory operand for byte offset off from the heap
// pointer held in R15.
func Heap(off int64) Mem {
	return Mem{Base: R15, Disp: off}
}

// Instruction is a single abstract machine instruction. Not every field
// is meaningful for every Op: Mov/Add/Sub/Imul/Test/Cmp/Sar/Xor/And/Cmove
// use Dst (and Src where the operation is binary); the jumps, Label and
// Call use Target; Ret uses neither.
type Instruction struct {
	Op     Op
	Dst    Operand
	Src    Operand
	Target string
}

// I builds a two-operand instruction (mov, add, sub, imul, test, cmp,
// sar, xor, and, cmove).
func I(op Op, dst, src Operand) Instruction {
	return Instruction{Op: op, Dst: dst, Src: src}
}

// Jump builds a control-transfer instruction (jmp/je/jne/jg/jl/jge/jle/jo)
// or a call, targeting the given label or function name.
func Jump(op Op, target string) Instruction {
	return Instruction{Op: op, Target: target}
}

// Lbl builds a label-definition pseudo-instruction.
func Lbl(name string) Instruction {
	return Instruction{Op: Label, Target: name}
}

// RetInstr builds a bare return instruction.
func RetInstr() Instruction {
	return Instruction{Op: Ret}
}

// String renders op's mnemonic, for debug output and error messages.
func (op Op) String() string {
	switch op {
	case Mov:
		return "mov"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Imul:
		return "imul"
	case Test:
		return "test"
	case Cmp:
		return "cmp"
	case Sar:
		return "sar"
	case Xor:
		return "xor"
	case And:
		return "and"
	case Cmove:
		return "cmove"
	case Jmp:
		return "jmp"
	case Je:
		return "je"
	case Jne:
		return "jne"
	case Jg:
		return "jg"
	case Jl:
		return "jl"
	case Jge:
		return "jge"
	case Jle:
		return "jle"
	case Jo:
		return "jo"
	case Label:
		return "label"
	case Call:
		return "call"
	case Ret:
		return "ret"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}
