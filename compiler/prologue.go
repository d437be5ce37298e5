package compiler

// prologue.go holds the fixed assembly text wrapped around every
// compiled program: section/extern/global declarations, the four error
// trampolines, and the print shim. None of it depends on the program
// being compiled, so it is never built instruction-by-instruction the
// way the rest of the output is.
//
// print is reached through the ordinary call path, which leaves RSP 8
// mod 16 at its entry; the push/pop rsp pair around the call to
// snek_print restores 16-byte alignment for that call into C.

const header = `section .text
extern snek_error
extern snek_print
global our_code_starts_here

invalid_argument:
        mov rdi, 99
        jmp snek_error

not_tuple:
        mov rdi, 100
        jmp snek_error

overflow:
        mov rdi, 101
        jmp snek_error

index_out_of_bound:
        mov rdi, 102
        jmp snek_error

print:
        mov rdi, [rsp + 8]
        push rsp
        call snek_print
        pop rsp
        ret

`

const debugBreak = "        int3\n"

// entryLabel opens our_code_starts_here, seeding the heap pointer from
// the base the runtime handed us in RSI.
func entryLabel(debug bool) string {
	s := "our_code_starts_here:\n        mov r15, rsi\n"
	if debug {
		s += debugBreak
	}
	return s
}

const footer = "\n        ret\n"
