package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wikiconfig/internal/testsupport"
)

type cliTestEnv struct {
	install     *testsupport.Install
	configPath  string
	historyPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.InstallOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("NO_COLOR", "1")
	testsupport.StubBinaries(t, filepath.Join(base, "stubs"), "grep", "ci", "co", "rlog")

	env := &cliTestEnv{
		install:     testsupport.NewInstall(t, opts...),
		configPath:  filepath.Join(homeDir, ".config", "wikiconfig", "config.toml"),
		historyPath: filepath.Join(base, "history.db"),
	}
	writeTestConfig(t, env.configPath, env.install.Root, env.historyPath)
	return env
}

func writeTestConfig(t *testing.T, path, root, historyPath string) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ninstall_root = %q\n\n[save]\nbackup_retention = 3\n\n[history]\nenabled = true\npath = %q\n\n[logging]\nlevel = \"error\"\n",
		root,
		historyPath,
	)
	testsupport.WriteFile(t, path, content)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (env *cliTestEnv) run(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("wikiconfig %s: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
