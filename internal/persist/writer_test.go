package persist_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wikiconfig/internal/keypath"
	"wikiconfig/internal/logging"
	"wikiconfig/internal/persist"
	"wikiconfig/internal/store"
	"wikiconfig/internal/testsupport"
	"wikiconfig/internal/units"
)

func newWriter(inst *testsupport.Install) *persist.Writer {
	layout := units.Layout{
		DefaultSpec:   inst.DefaultSpec,
		LocalOverride: inst.LocalOverride,
		SearchPath:    []string{inst.Lib},
	}
	loader := units.NewLoader(layout, logging.NewNop())
	return persist.NewWriter(inst.LocalOverride, loader, logging.NewNop())
}

// bootstrappingStore mimics the engine state after a probe: expanded values
// plus the guessed keys.
func bootstrappingStore(t *testing.T, inst *testsupport.Install) *store.Store {
	t.Helper()
	s := store.New()
	guesses := []store.Assignment{
		{Path: keypath.New("DataDir"), Value: inst.Dir("data")},
		{Path: keypath.New("WorkingDir"), Value: inst.Dir("working")},
	}
	if err := s.Apply(guesses); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(keypath.MustParse("{Log}{Dir}"), inst.Dir("working")+"/logs"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(keypath.New("DefaultUrlHost"), "http://changed.example"); err != nil {
		t.Fatal(err)
	}
	s.SetBootstrapKeys([]keypath.Path{keypath.New("DataDir"), keypath.New("WorkingDir")})
	s.SetBootstrapping(true)
	s.MarkFinished()
	return s
}

// configuredStore is the live store once a local override exists.
func configuredStore() *store.Store {
	s := store.New()
	s.MarkFinished()
	return s
}

func set(path string, value any) store.Assignment {
	return store.Assignment{Path: keypath.MustParse(path), Value: value}
}

func TestSaveWhileBootstrapping(t *testing.T) {
	inst := testsupport.NewInstall(t)
	w := newWriter(inst)

	out, err := w.Save(persist.Request{Current: bootstrappingStore(t, inst), Retention: 10})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !out.Written || out.BackupPath != "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	var changed []string
	for _, p := range out.Changed {
		changed = append(changed, p.String())
	}
	if strings.Join(changed, ",") != "{DataDir},{WorkingDir}" {
		t.Fatalf("changed = %v", changed)
	}

	body := testsupport.ReadFile(t, inst.LocalOverride)
	for _, want := range []string{
		fmt.Sprintf("DataDir = %q\n", inst.Dir("data")),
		fmt.Sprintf("WorkingDir = %q\n", inst.Dir("working")),
		`Log.Dir = "$cfg{WorkingDir}/logs"` + "\n",
		`DefaultUrlHost = "http://localhost"` + "\n",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("override lacks %q:\n%s", want, body)
		}
	}
	if !strings.HasPrefix(body, "# ") {
		t.Fatalf("override lacks header:\n%s", body)
	}
	if !strings.HasSuffix(body, "\n__complete__ = true\n") {
		t.Fatalf("override lacks terminator:\n%s", body)
	}

	info, err := os.Stat(inst.LocalOverride)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != persist.FileMode {
		t.Fatalf("mode = %v, want %v", info.Mode().Perm(), persist.FileMode)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	inst := testsupport.NewInstall(t)
	w := newWriter(inst)
	if _, err := w.Save(persist.Request{Current: bootstrappingStore(t, inst), Retention: 10}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	before := testsupport.ReadFile(t, inst.LocalOverride)

	out, err := w.Save(persist.Request{Current: configuredStore(), Retention: 10})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if out.Written || len(out.Changed) != 0 {
		t.Fatalf("second save wrote: %+v", out)
	}
	if after := testsupport.ReadFile(t, inst.LocalOverride); after != before {
		t.Fatal("file changed on a no-op save")
	}
	backups, err := persist.ListBackups(inst.LocalOverride)
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 0 {
		t.Fatalf("no-op save made backups: %v", backups)
	}
}

func TestSaveAppliesPendingAndBacksUp(t *testing.T) {
	inst := testsupport.NewInstall(t, testsupport.WithLocalOverride(`
DataDir = "/srv/wiki/data"
Extra = "drop me"
`))
	if err := os.Chmod(inst.LocalOverride, 0o640); err != nil {
		t.Fatal(err)
	}
	original := testsupport.ReadFile(t, inst.LocalOverride)
	w := newWriter(inst)

	out, err := w.Save(persist.Request{
		Current: configuredStore(),
		Pending: []store.Assignment{
			set("{Site}{Locale}", "de_DE.utf-8"),
			set("{Plugins}{'My Plugin'}{Enabled}", true),
			set("{Extra}", store.Absent),
		},
		Retention: 10,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !out.Written {
		t.Fatal("expected a write")
	}
	if out.BackupPath != inst.LocalOverride+".1" {
		t.Fatalf("backup = %q", out.BackupPath)
	}
	if got := testsupport.ReadFile(t, out.BackupPath); got != original {
		t.Fatalf("backup content differs:\n%s", got)
	}
	info, err := os.Stat(out.BackupPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("backup mode = %v, want 0640", info.Mode().Perm())
	}

	body := testsupport.ReadFile(t, inst.LocalOverride)
	if !strings.Contains(body, `Site.Locale = "de_DE.utf-8"`) ||
		!strings.Contains(body, `Plugins."My Plugin".Enabled = true`) ||
		!strings.Contains(body, `DataDir = "/srv/wiki/data"`) {
		t.Fatalf("pending values missing:\n%s", body)
	}
	if strings.Contains(body, "Extra") {
		t.Fatalf("removed key still written:\n%s", body)
	}
	var changed []string
	for _, p := range out.Changed {
		changed = append(changed, p.String())
	}
	if got := strings.Join(changed, ","); got != "{Extra},{Plugins}{'My Plugin'}{Enabled},{Site}{Locale}" {
		t.Fatalf("changed = %s", got)
	}
}

func TestSaveReportsOnlyEditedKeysAgainstSparseOverride(t *testing.T) {
	inst := testsupport.NewInstall(t, testsupport.WithLocalOverride(`
DataDir = "/srv/wiki/data"
`))
	w := newWriter(inst)

	out, err := w.Save(persist.Request{
		Current:   configuredStore(),
		Pending:   []store.Assignment{set("{MaxRevisionsInADiff}", int64(50))},
		Retention: 10,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !out.Written {
		t.Fatal("expected a write")
	}
	if len(out.Changed) != 1 || out.Changed[0].String() != "{MaxRevisionsInADiff}" {
		t.Fatalf("changed = %v", out.Changed)
	}
	body := testsupport.ReadFile(t, inst.LocalOverride)
	if !strings.Contains(body, `ScriptUrlPath = "/foswiki/bin"`) {
		t.Fatalf("default values missing from rewritten override:\n%s", body)
	}
}

func TestBackupIsNeverWorldReadable(t *testing.T) {
	inst := testsupport.NewInstall(t, testsupport.WithLocalOverride(`
DataDir = "/srv/wiki/data"
Password = "secret"
`))
	if err := os.Chmod(inst.LocalOverride, 0o644); err != nil {
		t.Fatal(err)
	}
	w := newWriter(inst)

	out, err := w.Save(persist.Request{
		Current:   configuredStore(),
		Pending:   []store.Assignment{set("{Site}{Locale}", "de_DE.utf-8")},
		Retention: 10,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(out.BackupPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0o640 {
		t.Fatalf("backup mode = %v, want 0640", got)
	}
	info, err = os.Stat(inst.LocalOverride)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o007 != 0 {
		t.Fatalf("override mode = %v is world accessible", info.Mode().Perm())
	}
}

func TestSaveRemapsLegacyKeys(t *testing.T) {
	inst := testsupport.NewInstall(t, testsupport.WithLocalOverride(`
StoreImpl = "RcsWrap"
`))
	w := newWriter(inst)

	out, err := w.Save(persist.Request{Current: configuredStore(), Retention: 10})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	body := testsupport.ReadFile(t, inst.LocalOverride)
	if strings.Contains(body, "StoreImpl =") {
		t.Fatalf("deprecated key written back:\n%s", body)
	}
	if !out.Written {
		t.Fatal("expected a rewrite without the deprecated key")
	}
}

func TestSaveRefusesInvalidOverride(t *testing.T) {
	inst := testsupport.NewInstall(t)
	testsupport.WriteFile(t, inst.LocalOverride, "DataDir = \"/srv\"\n")
	w := newWriter(inst)

	_, err := w.Save(persist.Request{Current: configuredStore(), Retention: 10})
	if !errors.Is(err, persist.ErrPersistence) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	var failure *persist.PersistenceFailure
	if !errors.As(err, &failure) || failure.Op != "reload" {
		t.Fatalf("unexpected failure %v", err)
	}
	if got := testsupport.ReadFile(t, inst.LocalOverride); got != "DataDir = \"/srv\"\n" {
		t.Fatalf("invalid override was touched:\n%s", got)
	}
}

func TestSaveReplacesIncompleteOverrideWhileBootstrapping(t *testing.T) {
	inst := testsupport.NewInstall(t)
	testsupport.WriteFile(t, inst.LocalOverride, "half written = \n")
	w := newWriter(inst)

	out, err := w.Save(persist.Request{Current: bootstrappingStore(t, inst), Retention: 10})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !out.Written || out.BackupPath == "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(out.Changed) == 0 {
		t.Fatal("bootstrap guesses must count as changed")
	}
}

func TestSaveRetention(t *testing.T) {
	cases := []struct {
		retention int
		saves     int
		want      []int
	}{
		{retention: 2, saves: 5, want: []int{3, 4}},
		{retention: 10, saves: 4, want: []int{1, 2, 3}},
		{retention: 0, saves: 3, want: nil},
		{retention: -1, saves: 4, want: []int{1, 2, 3}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("keep %d after %d", tc.retention, tc.saves), func(t *testing.T) {
			inst := testsupport.NewInstall(t)
			w := newWriter(inst)
			if _, err := w.Save(persist.Request{Current: bootstrappingStore(t, inst), Retention: tc.retention}); err != nil {
				t.Fatalf("save 1: %v", err)
			}
			var last persist.Outcome
			for i := 2; i <= tc.saves; i++ {
				out, err := w.Save(persist.Request{
					Current:   configuredStore(),
					Pending:   []store.Assignment{set("{Counter}", int64(i))},
					Retention: tc.retention,
				})
				if err != nil {
					t.Fatalf("save %d: %v", i, err)
				}
				if !out.Written {
					t.Fatalf("save %d did not write", i)
				}
				last = out
			}

			backups, err := persist.ListBackups(inst.LocalOverride)
			if err != nil {
				t.Fatal(err)
			}
			var got []int
			for _, b := range backups {
				got = append(got, b.Number)
			}
			if fmt.Sprint(got) != fmt.Sprint(tc.want) {
				t.Fatalf("backups = %v, want %v", got, tc.want)
			}
			if tc.retention == 0 && last.BackupPath != "" {
				t.Fatalf("pruned backup still reported: %q", last.BackupPath)
			}
		})
	}
}

func TestBackupSkipsTakenNumbers(t *testing.T) {
	inst := testsupport.NewInstall(t, testsupport.WithLocalOverride(`DataDir = "/srv"`))
	testsupport.WriteFile(t, inst.LocalOverride+".7", "old\n")
	testsupport.WriteFile(t, inst.LocalOverride+".bak", "not a backup\n")
	w := newWriter(inst)

	out, err := w.Save(persist.Request{
		Current:   configuredStore(),
		Pending:   []store.Assignment{set("{DataDir}", "/srv/other")},
		Retention: -1,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if out.BackupPath != inst.LocalOverride+".8" {
		t.Fatalf("backup = %q, want .8", out.BackupPath)
	}
	if _, err := os.Stat(inst.LocalOverride + ".bak"); err != nil {
		t.Fatalf("unrelated file touched: %v", err)
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "LocalSite.cfg")
	for _, n := range []int{1, 2, 10, 3} {
		testsupport.WriteFile(t, fmt.Sprintf("%s.%d", path, n), "x\n")
	}

	removed, err := persist.Prune(path, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(removed) != 2 || removed[0] != path+".1" || removed[1] != path+".2" {
		t.Fatalf("removed = %v", removed)
	}
	backups, err := persist.ListBackups(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 || backups[0].Number != 3 || backups[1].Number != 10 {
		t.Fatalf("remaining = %+v", backups)
	}

	if removed, err := persist.Prune(path, -1); err != nil || removed != nil {
		t.Fatalf("negative retention removed %v (%v)", removed, err)
	}
}

func TestListBackupsMissingDir(t *testing.T) {
	backups, err := persist.ListBackups(filepath.Join(t.TempDir(), "missing", "LocalSite.cfg"))
	if err != nil || backups != nil {
		t.Fatalf("ListBackups = %v, %v", backups, err)
	}
}
