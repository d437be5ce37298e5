package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.HeapSize != DefaultHeapSize {
		t.Errorf("expected heap size %d, got %d", DefaultHeapSize, cfg.HeapSize)
	}
	if cfg.Assembler != DefaultAssembler {
		t.Errorf("expected assembler %q, got %q", DefaultAssembler, cfg.Assembler)
	}
	if cfg.Linker != DefaultLinker {
		t.Errorf("expected linker %q, got %q", DefaultLinker, cfg.Linker)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults for a missing file, got %+v", cfg)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults for an empty path, got %+v", cfg)
	}
}

func TestLoadOverridesHeapSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snekc.yaml")
	if err := os.WriteFile(path, []byte("heap_size: 65536\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HeapSize != 65536 {
		t.Errorf("expected overridden heap size 65536, got %d", cfg.HeapSize)
	}
	if cfg.Assembler != DefaultAssembler {
		t.Errorf("expected untouched field to keep its default, got %q", cfg.Assembler)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snekc.yaml")
	if err := os.WriteFile(path, []byte("heap_size: [this is not a number\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Errorf("expected an error for malformed YAML")
	}
}
