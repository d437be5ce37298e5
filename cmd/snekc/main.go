// Command snekc compiles a snek source file to NASM assembly, and
// optionally assembles and links (or assembles, links and runs) the
// result via the external "nasm"/"cc" toolchain, the way
// skx/math-compiler's main.go shells out to gcc.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:           "snekc <source> <output.asm>",
		Short:         "Compile a snek program to x86-64 NASM assembly",
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.source = args[0]
			opts.output = args[1]
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.debug, "debug", false, "insert an int3 breakpoint into the generated entry point")
	flags.Int64Var(&opts.heapSize, "heap-size", 0, "override the configured heap size, in bytes")
	flags.BoolVar(&opts.assemble, "assemble", false, "assemble and link the output via nasm/cc")
	flags.BoolVar(&opts.runBinary, "run", false, "assemble, link and run the compiled program (implies --assemble)")
	flags.StringVar(&opts.configPath, "config", "", "path to a snekc.yaml configuration file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "raise log verbosity to debug level")

	return cmd
}
