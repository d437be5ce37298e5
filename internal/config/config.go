// Package config loads the optional settings a snekc invocation can be
// tuned with: the heap arena size, and the external assembler/linker
// binaries used by the "--assemble"/"--run" convenience path.
//
// None of this is part of the source-language specification; it is the
// ambient configuration layer every non-trivial compiler driver carries
// alongside it.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultHeapSize is the heap arena size, in bytes, the runtime
// allocates when no override is given. The language definition asks for
// "a fixed arena" of at least 8192 bytes; this is that constant, made
// configurable rather than buried in the runtime shim.
const DefaultHeapSize = 8192

// DefaultAssembler and DefaultLinker are the external tools invoked by
// the "--assemble"/"--run" flags. They're never shelled out to except
// when the caller opts in.
const (
	DefaultAssembler = "nasm"
	DefaultLinker    = "cc"
)

// Config holds every tunable knob a snekc run can be configured with.
type Config struct {
	HeapSize  int64  `yaml:"heap_size"`
	Assembler string `yaml:"assembler"`
	Linker    string `yaml:"linker"`
}

// Default returns the built-in configuration, matching the language
// definition's defaults exactly.
func Default() Config {
	return Config{
		HeapSize:  DefaultHeapSize,
		Assembler: DefaultAssembler,
		Linker:    DefaultLinker,
	}
}

// Load reads a YAML configuration file, overlaying it on top of the
// built-in defaults. A missing field in the file keeps its default
// value; a missing file is not an error — Load simply returns the
// defaults, since every flag this configures is optional.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	// Unmarshal onto the defaults so omitted keys in the file keep their
	// default value rather than zeroing out.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
