package compiler

import (
	"fmt"
	"strings"

	"github.com/skx/snek-compiler/instructions"
)

// printOperand renders a single operand. sizeHint is set when the
// operand is a bare memory location paired with an immediate on the
// other side of the instruction, which NASM needs a size directive to
// disambiguate ("qword [rsp - 8], 3" rather than the ambiguous
// "[rsp - 8], 3").
func printOperand(op instructions.Operand, sizeHint bool) string {
	switch v := op.(type) {
	case instructions.Reg:
		return string(v.Register)
	case instructions.Imm:
		return fmt.Sprintf("%d", v.Value)
	case instructions.Mem:
		prefix := ""
		if sizeHint {
			prefix = "qword "
		}
		if v.Disp >= 0 {
			return fmt.Sprintf("%s[%s + %d]", prefix, v.Base, v.Disp)
		}
		return fmt.Sprintf("%s[%s - %d]", prefix, v.Base, -v.Disp)
	default:
		return fmt.Sprintf("<bad operand %#v>", op)
	}
}

// printInstruction renders one abstract instruction as a line of NASM.
func printInstruction(instr instructions.Instruction) string {
	switch instr.Op {
	case instructions.Label:
		return instr.Target + ":"

	case instructions.Call:
		return fmt.Sprintf("        call %s", instr.Target)

	case instructions.Ret:
		return "        ret"

	case instructions.Jmp, instructions.Je, instructions.Jne,
		instructions.Jg, instructions.Jl, instructions.Jge, instructions.Jle,
		instructions.Jo:
		return fmt.Sprintf("        %s %s", instr.Op, instr.Target)

	default:
		_, dstIsMem := instr.Dst.(instructions.Mem)
		_, srcIsImm := instr.Src.(instructions.Imm)
		needsSize := dstIsMem && srcIsImm

		return fmt.Sprintf("        %s %s, %s",
			instr.Op,
			printOperand(instr.Dst, needsSize),
			printOperand(instr.Src, false))
	}
}

// Print renders a whole instruction list, one line per instruction.
func Print(instrs []instructions.Instruction) string {
	lines := make([]string, len(instrs))
	for i, instr := range instrs {
		lines[i] = printInstruction(instr)
	}
	return strings.Join(lines, "\n")
}

// Render assembles the complete NASM source for a program: the fixed
// prologue, every compiled function, the our_code_starts_here entry
// wrapper, and the compiled trailing expression.
func Render(funcs, body []instructions.Instruction, debug bool) string {
	var out strings.Builder
	out.WriteString(header)
	if len(funcs) > 0 {
		out.WriteString(Print(funcs))
		out.WriteString("\n\n")
	}
	out.WriteString(entryLabel(debug))
	out.WriteString(Print(body))
	out.WriteString(footer)
	return out.String()
}
