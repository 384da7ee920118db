package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"wikiconfig/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config pointing at install with history stored in a
// per-test temp directory.
func NewConfig(t testing.TB, install *Install, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	if install != nil {
		cfgVal.Paths.InstallRoot = install.Root
	}
	cfgVal.History.Path = filepath.Join(base, "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRetention sets the backup retention on the test config.
func WithRetention(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Save.BackupRetention = n
	}
}

// WithPolicy sets the undefined-reference policy on the test config.
func WithPolicy(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Load.UndefinedPolicy = name
	}
}

// WithoutHistory disables the save ledger.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// replaces PATH with a directory holding only those stubs.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		StubBinaries(b.t, filepath.Join(b.baseDir, "stubs"), names...)
	}
}

// StubBinaries writes no-op executables into dir and makes it the only PATH
// entry for the rest of the test.
func StubBinaries(t testing.TB, dir string, names ...string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range names {
		target := filepath.Join(dir, name)
		if err := os.WriteFile(target, script, 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}
