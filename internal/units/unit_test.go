package units_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wikiconfig/internal/keypath"
	"wikiconfig/internal/testsupport"
	"wikiconfig/internal/units"
)

func TestDecodeFlattensLeavesInPathOrder(t *testing.T) {
	res, err := units.Decode([]byte(`
Zeta = 1
Alpha.Beta = "b"
Alpha.Gamma = [1, 2]
"odd key".x = true
Empty = {}
__complete__ = true
`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !res.Complete {
		t.Fatal("expected complete unit")
	}
	var got []string
	for _, a := range res.Assignments {
		got = append(got, a.Path.Key())
	}
	want := []string{"{Alpha}{Beta}", "{Alpha}{Gamma}", "{Empty}", "{Zeta}", "{'odd key'}{x}"}
	if len(got) != len(want) {
		t.Fatalf("assignments = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("assignment %d = %s, want %s (all %v)", i, got[i], want[i], got)
		}
	}
	for _, a := range res.Assignments {
		if a.Path.Key() == "{Zeta}" && a.Value != int64(1) {
			t.Fatalf("Zeta = %#v", a.Value)
		}
	}
}

func TestDecodeTerminatorMustBeTrue(t *testing.T) {
	for name, body := range map[string]string{
		"absent": "A = 1\n",
		"false":  "A = 1\n__complete__ = false\n",
		"string": "A = 1\n__complete__ = \"yes\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			res, err := units.Decode([]byte(body))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if res.Complete {
				t.Fatal("expected incomplete")
			}
		})
	}
}

func TestFileUnitFailureReasons(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.cfg")
	testsupport.WriteUnit(t, valid, `Site.Locale = "de_DE.utf-8"`)
	invalid := filepath.Join(dir, "invalid.cfg")
	testsupport.WriteFile(t, invalid, "Site.Locale = \n")
	truncated := filepath.Join(dir, "truncated.cfg")
	testsupport.WriteFile(t, truncated, "Site.Locale = \"x\"\n")
	unreadable := filepath.Join(dir, "dir.cfg")
	if err := os.Mkdir(unreadable, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	res, err := units.NewFileUnit("", units.KindLocalOverride, valid).Load()
	if err != nil {
		t.Fatalf("valid unit: %v", err)
	}
	if len(res.Assignments) != 1 || !res.Assignments[0].Path.Equal(keypath.New("Site", "Locale")) {
		t.Fatalf("unexpected assignments %+v", res.Assignments)
	}

	cases := []struct {
		path   string
		reason units.Reason
	}{
		{filepath.Join(dir, "missing.cfg"), units.ReasonMissing},
		{invalid, units.ReasonInvalid},
		{truncated, units.ReasonIncomplete},
		{unreadable, units.ReasonUnreadable},
	}
	for _, tc := range cases {
		t.Run(tc.reason.String(), func(t *testing.T) {
			_, err := units.NewFileUnit("", units.KindLocalOverride, tc.path).Load()
			if !errors.Is(err, units.ErrUnitRead) {
				t.Fatalf("expected ErrUnitRead, got %v", err)
			}
			var failure *units.UnitReadFailure
			if !errors.As(err, &failure) {
				t.Fatalf("expected *UnitReadFailure, got %T", err)
			}
			if failure.Reason != tc.reason {
				t.Fatalf("reason = %s, want %s", failure.Reason, tc.reason)
			}
			if failure.Path != tc.path || failure.Unit != filepath.Base(tc.path) {
				t.Fatalf("failure does not identify the unit: %+v", failure)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LocalSite.cfg")
	testsupport.WriteUnit(t, path, "DataDir = \"/srv/data\"\nLog.Dir = \"$cfg{WorkingDir}/logs\"\n")

	s, err := units.ParseFile(path, units.KindLocalOverride)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if got, _ := s.String(keypath.New("Log", "Dir")); got != "$cfg{WorkingDir}/logs" {
		t.Fatalf("references must stay unexpanded, got %q", got)
	}
	if s.Finished() {
		t.Fatal("ParseFile must not finish the store")
	}
}
