// Package compiler contains the core of the compiler: function-table
// construction, code generation and assembly printing. Orchestration
// lives here; the heavy lifting is split across funcs.go, generator.go
// and printer.go.
package compiler

import (
	"github.com/sirupsen/logrus"

	"github.com/skx/snek-compiler/ast"
	"github.com/skx/snek-compiler/instructions"
	"github.com/skx/snek-compiler/internal/config"
	"github.com/skx/snek-compiler/sexpr"
	"github.com/skx/snek-compiler/splitter"
)

// Compiler holds our object-state.
type Compiler struct {

	// source holds the program text we're compiling.
	source string

	// debug controls whether a breakpoint is inserted into the
	// generated entry point.
	debug bool

	// cfg holds the heap size and assembler/linker settings a caller
	// may override; it has no bearing on the emitted assembly text.
	// Compile never reads it; it is only stored and handed back by
	// Config.
	cfg config.Config

	// log receives one entry per pipeline stage when debug logging is
	// enabled by the caller.
	log *logrus.Logger
}

// New creates a new compiler for the given program source.
func New(source string) *Compiler {
	return &Compiler{
		source: source,
		cfg:    config.Default(),
		log:    logrus.StandardLogger(),
	}
}

// SetDebug changes the debug-flag for our output.
func (c *Compiler) SetDebug(val bool) {
	c.debug = val
}

// SetConfig overrides the heap-size/assembler/linker configuration.
func (c *Compiler) SetConfig(cfg config.Config) {
	c.cfg = cfg
}

// Config returns the compiler's current configuration, for callers that
// need the heap size or external tool paths after compilation.
func (c *Compiler) Config() config.Config {
	return c.cfg
}

// Compile converts the input program into NASM assembly text.
func (c *Compiler) Compile() (string, error) {
	c.log.WithField("stage", "split").Debug("splitting source into top-level forms")
	forms, err := splitter.Split(c.source)
	if err != nil {
		return "", err
	}

	var nodes []*sexpr.Node
	for _, f := range forms {
		parsed, err := sexpr.ReadAll(f)
		if err != nil {
			return "", err
		}
		nodes = append(nodes, parsed...)
	}

	c.log.WithField("stage", "ast").Debug("building abstract syntax tree")
	prog, err := ast.Build(nodes)
	if err != nil {
		return "", err
	}

	c.log.WithField("stage", "funcs").Debug("building function table")
	funcs, err := BuildFuncTable(prog)
	if err != nil {
		return "", err
	}

	c.log.WithField("stage", "codegen").Debug("generating instructions")
	gen := NewGenerator(funcs)

	var funcInstrs []instructions.Instruction
	for _, fn := range prog.Funcs {
		instrs, err := gen.CompileFunc(fn)
		if err != nil {
			return "", err
		}
		funcInstrs = append(funcInstrs, instrs...)
	}

	bodyInstrs, err := gen.CompileBody(prog.Trail)
	if err != nil {
		return "", err
	}

	c.log.WithField("stage", "print").Debug("rendering NASM output")
	return Render(funcInstrs, bodyInstrs, c.debug), nil
}
