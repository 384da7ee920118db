package bootstrap_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wikiconfig/internal/bootstrap"
	"wikiconfig/internal/deps"
	"wikiconfig/internal/keypath"
	"wikiconfig/internal/logging"
	"wikiconfig/internal/testsupport"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

func binaries(available ...string) func([]deps.Requirement) []deps.Status {
	set := map[string]bool{}
	for _, name := range available {
		set[name] = true
	}
	return func(reqs []deps.Requirement) []deps.Status {
		out := make([]deps.Status, 0, len(reqs))
		for _, r := range reqs {
			out = append(out, deps.Status{Requirement: r, Available: set[r.Command]})
		}
		return out
	}
}

func newProber(root string, opts ...bootstrap.Option) *bootstrap.Prober {
	base := []bootstrap.Option{
		bootstrap.WithGOOS("linux"),
		bootstrap.WithLookupEnv(env(map[string]string{"LANG": "de_DE.UTF-8"})),
		bootstrap.WithBinaryCheck(binaries("grep")),
	}
	return bootstrap.NewProber(root, logging.NewNop(), append(base, opts...)...)
}

func realRoot(t *testing.T, root string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("resolve root: %v", err)
	}
	return resolved
}

func TestProbeGuessesEveryRole(t *testing.T) {
	inst := testsupport.NewInstall(t)
	root := realRoot(t, inst.Root)

	res, err := newProber(inst.Root).Probe()
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Root != root {
		t.Fatalf("root = %q, want %q", res.Root, root)
	}
	for _, role := range bootstrap.Roles {
		v, ok := res.Value(role.Key)
		if !ok {
			t.Fatalf("%s not guessed", role.Key)
		}
		if v != filepath.Join(root, role.Dir) {
			t.Fatalf("%s = %v", role.Key, v)
		}
	}
	checks := map[string]any{
		"{Site}{Locale}":           "de_DE.utf-8",
		"{Store}{Encoding}":        "utf-8",
		"{Store}{SearchAlgorithm}": bootstrap.SearchForking,
		"{Store}{Implementation}":  bootstrap.StoreRcsLite,
		"{NFCNormalizeFilenames}":  false,
	}
	for raw, want := range checks {
		got, ok := res.Value(keypath.MustParse(raw))
		if !ok || got != want {
			t.Fatalf("%s = %v, want %v", raw, got, want)
		}
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", res.Warnings)
	}

	entries, err := os.ReadDir(inst.Dir("data"))
	if err != nil {
		t.Fatalf("read data dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "nfc-probe-") {
			t.Fatalf("probe file left behind: %s", e.Name())
		}
	}
}

func TestProbeIsDeterministic(t *testing.T) {
	inst := testsupport.NewInstall(t)
	first, err := newProber(inst.Root).Probe()
	if err != nil {
		t.Fatalf("first probe: %v", err)
	}
	second, err := newProber(inst.Root).Probe()
	if err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if len(first.Assignments) != len(second.Assignments) {
		t.Fatalf("assignment counts differ: %d vs %d", len(first.Assignments), len(second.Assignments))
	}
	for i := range first.Assignments {
		a, b := first.Assignments[i], second.Assignments[i]
		if !a.Path.Equal(b.Path) || a.Value != b.Value {
			t.Fatalf("assignment %d differs: %v=%v vs %v=%v", i, a.Path, a.Value, b.Path, b.Value)
		}
	}
}

func TestProbeMissingWorkingMarker(t *testing.T) {
	inst := testsupport.NewInstall(t, testsupport.WithoutMarker("working", "README"))

	_, err := newProber(inst.Root).Probe()
	if !errors.Is(err, bootstrap.ErrBootstrap) {
		t.Fatalf("expected bootstrap failure, got %v", err)
	}
	var failure *bootstrap.BootstrapFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *BootstrapFailure, got %T", err)
	}
	keys := failure.Keys()
	if len(keys) != 1 || !keys[0].Equal(keypath.New("WorkingDir")) {
		t.Fatalf("keys = %v", keys)
	}
	if !strings.Contains(err.Error(), "{WorkingDir}") || !strings.Contains(err.Error(), "README") {
		t.Fatalf("diagnostic does not name the key and marker: %v", err)
	}
}

func TestProbeReportsEveryMissingDirectory(t *testing.T) {
	inst := testsupport.NewInstall(t,
		testsupport.WithoutDir("data"),
		testsupport.WithoutDir("templates"),
		testsupport.WithoutMarker("pub", "System"),
	)

	_, err := newProber(inst.Root).Probe()
	var failure *bootstrap.BootstrapFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *BootstrapFailure, got %v", err)
	}
	var got []string
	for _, p := range failure.Problems {
		got = append(got, p.Key.String())
		if p.Path == "" || p.Reason == "" {
			t.Fatalf("problem lacks detail: %+v", p)
		}
	}
	want := []string{"{DataDir}", "{PubDir}", "{TemplateDir}"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("problems = %v, want %v", got, want)
	}
}

func TestProbeOptionalDirectoriesWarn(t *testing.T) {
	inst := testsupport.NewInstall(t,
		testsupport.WithoutDir("locale"),
		testsupport.WithoutDir("tools"),
	)

	res, err := newProber(inst.Root).Probe()
	if err != nil {
		t.Fatalf("optional directories must not be fatal: %v", err)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if _, ok := res.Value(keypath.New("LocalesDir")); ok {
		t.Fatal("missing optional directory must not be guessed")
	}
}

func TestProbeFollowsSymlinkedDirectories(t *testing.T) {
	inst := testsupport.NewInstall(t)
	elsewhere := filepath.Join(t.TempDir(), "pub-real")
	if err := os.Rename(inst.Dir("pub"), elsewhere); err != nil {
		t.Fatalf("move pub: %v", err)
	}
	if err := os.Symlink(elsewhere, inst.Dir("pub")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	res, err := newProber(inst.Root).Probe()
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	got, _ := res.Value(keypath.New("PubDir"))
	if got != realRoot(t, elsewhere) {
		t.Fatalf("PubDir = %v, want resolved %s", got, elsewhere)
	}
}

func TestProbePlatformChoices(t *testing.T) {
	inst := testsupport.NewInstall(t)
	cases := []struct {
		name   string
		goos   string
		bins   []string
		search string
		impl   string
	}{
		{"all tools", "linux", []string{"grep", "ci", "co", "rlog"}, bootstrap.SearchForking, bootstrap.StoreRcsWrap},
		{"no grep", "linux", []string{"ci", "co", "rlog"}, bootstrap.SearchPurePerl, bootstrap.StoreRcsWrap},
		{"partial rcs", "darwin", []string{"grep", "ci"}, bootstrap.SearchForking, bootstrap.StoreRcsLite},
		{"windows", "windows", []string{"grep", "ci", "co", "rlog"}, bootstrap.SearchPurePerl, bootstrap.StoreRcsLite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := newProber(inst.Root,
				bootstrap.WithGOOS(tc.goos),
				bootstrap.WithBinaryCheck(binaries(tc.bins...)),
			).Probe()
			if err != nil {
				t.Fatalf("Probe: %v", err)
			}
			if got, _ := res.Value(bootstrap.KeySearchAlgo); got != tc.search {
				t.Fatalf("search = %v, want %s", got, tc.search)
			}
			if got, _ := res.Value(bootstrap.KeyStoreImpl); got != tc.impl {
				t.Fatalf("impl = %v, want %s", got, tc.impl)
			}
		})
	}
}

func TestFindInstallRootResolvesSymlinks(t *testing.T) {
	inst := testsupport.NewInstall(t)
	testsupport.WriteFile(t, inst.Executable(), "#!/bin/sh\n")
	link := filepath.Join(t.TempDir(), "wikiconfig")
	if err := os.Symlink(inst.Executable(), link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	root, err := bootstrap.FindInstallRoot(link)
	if err != nil {
		t.Fatalf("FindInstallRoot: %v", err)
	}
	if root != realRoot(t, inst.Root) {
		t.Fatalf("root = %q, want %q", root, inst.Root)
	}

	if _, err := bootstrap.FindInstallRoot(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing executable")
	}
}
