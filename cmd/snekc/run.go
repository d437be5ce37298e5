package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/skx/snek-compiler/compiler"
	"github.com/skx/snek-compiler/internal/config"
	"github.com/skx/snek-compiler/internal/diagnostics"
	runtimeshim "github.com/skx/snek-compiler/runtime"
)

// runOptions collects every flag newRootCmd binds, plus the two
// positional arguments.
type runOptions struct {
	source     string
	output     string
	debug      bool
	heapSize   int64
	assemble   bool
	runBinary  bool
	configPath string
	verbose    bool
}

var errorColor = color.New(color.FgRed, color.Bold)

func run(opts *runOptions) error {
	log := logrus.StandardLogger()
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return reportf("reading config: %s", err)
	}
	if opts.heapSize > 0 {
		cfg.HeapSize = opts.heapSize
	}

	src, err := os.ReadFile(opts.source)
	if err != nil {
		return reportf("reading %s: %s", opts.source, err)
	}

	c := compiler.New(string(src))
	c.SetDebug(opts.debug)
	c.SetConfig(cfg)

	asm, err := c.Compile()
	if err != nil {
		if de, ok := err.(*diagnostics.Error); ok {
			return reportf("%s: %s", de.Code, de.Message)
		}
		return reportf("%s", err)
	}

	if err := os.WriteFile(opts.output, []byte(asm), 0o644); err != nil {
		return reportf("writing %s: %s", opts.output, err)
	}

	if !opts.assemble && !opts.runBinary {
		return nil
	}

	binary, err := assembleAndLink(opts.output, cfg)
	if err != nil {
		return reportf("%s", err)
	}

	if !opts.runBinary {
		fmt.Println(binary)
		return nil
	}

	runCmd := exec.Command(binary)
	runCmd.Stdout = os.Stdout
	runCmd.Stderr = os.Stderr
	runCmd.Stdin = os.Stdin
	return runCmd.Run()
}

// assembleAndLink shells out to nasm, then the configured C compiler,
// linking the freshly embedded runtime shim. A random id keeps
// concurrent invocations in the same directory from colliding over the
// object file name, the same problem skx/math-compiler's -compile flag
// never had to think about because it only ever produced one file.
func assembleAndLink(asmPath string, cfg config.Config) (string, error) {
	dir := filepath.Dir(asmPath)
	id := uuid.NewString()

	objPath := filepath.Join(dir, "snek-"+id+".o")
	runtimePath := filepath.Join(dir, "snek-runtime-"+id+".c")
	binPath := filepath.Join(dir, "snek-"+id)

	if err := os.WriteFile(runtimePath, []byte(runtimeshim.Source()), 0o644); err != nil {
		return "", fmt.Errorf("writing embedded runtime: %w", err)
	}
	defer os.Remove(runtimePath)

	nasm := exec.Command(cfg.Assembler, "-f", "elf64", "-o", objPath, asmPath)
	nasm.Stdout = os.Stdout
	nasm.Stderr = os.Stderr
	if err := nasm.Run(); err != nil {
		return "", fmt.Errorf("assembling %s: %w", asmPath, err)
	}
	defer os.Remove(objPath)

	heapFlag := fmt.Sprintf("-DSNEK_HEAP_SIZE=%d", cfg.HeapSize)
	cc := exec.Command(cfg.Linker, heapFlag, "-o", binPath, objPath, runtimePath)
	cc.Stdout = os.Stdout
	cc.Stderr = os.Stderr
	if err := cc.Run(); err != nil {
		return "", fmt.Errorf("linking %s: %w", binPath, err)
	}

	return binPath, nil
}

// reportf prints a colourised "error:" line, the CLI's one presentation
// concern beyond the free-form diagnostic text the compiler package
// itself produces, and returns a plain error so cobra doesn't print a
// second, uncoloured copy.
func reportf(format string, args ...any) error {
	errorColor.Fprint(os.Stderr, "error: ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return errSilent
}

// errSilent is returned by run once the diagnostic has already been
// printed, so main's generic error handler doesn't print it again.
var errSilent = silentError{}

type silentError struct{}

func (silentError) Error() string { return "" }
