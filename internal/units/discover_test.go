package units_test

import (
	"os"
	"path/filepath"
	"testing"

	"wikiconfig/internal/testsupport"
	"wikiconfig/internal/units"
)

func TestDiscoverExtensionsDedupesAndSorts(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	spec := func(root, category, name string) string {
		return filepath.Join(root, "Foswiki", category, name, units.ExtensionSpecName)
	}
	testsupport.WriteUnit(t, spec(first, "Plugins", "ZebraPlugin"), "")
	testsupport.WriteUnit(t, spec(first, "Contrib", "JQueryContrib"), "")
	testsupport.WriteUnit(t, spec(second, "Plugins", "ZebraPlugin"), "")
	testsupport.WriteUnit(t, spec(second, "Plugins", "AlphaPlugin"), "")
	// Directory without a spec unit is not an extension.
	if err := os.MkdirAll(filepath.Join(first, "Foswiki", "Plugins", "EmptyPlugin"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Plain files in the category directory are ignored.
	testsupport.WriteFile(t, filepath.Join(first, "Foswiki", "Plugins", "README"), "x")

	found := units.DiscoverExtensions([]string{first, "", second, filepath.Join(first, "missing")})
	var names []string
	for _, ext := range found {
		names = append(names, ext.Name)
	}
	want := []string{"AlphaPlugin", "JQueryContrib", "ZebraPlugin"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	for _, ext := range found {
		if ext.Name == "ZebraPlugin" && ext.Root != first {
			t.Fatalf("first root must win, got %s", ext.Root)
		}
		if ext.Name == "JQueryContrib" && ext.Category != "Contrib" {
			t.Fatalf("category = %s", ext.Category)
		}
	}
}

func TestDiscoverExtensionsIsDeterministic(t *testing.T) {
	inst := testsupport.NewInstall(t,
		testsupport.WithExtension("Plugins", "B", ""),
		testsupport.WithExtension("Plugins", "A", ""),
		testsupport.WithExtension("Contrib", "C", ""),
	)
	a := units.DiscoverExtensions([]string{inst.Lib})
	b := units.DiscoverExtensions([]string{inst.Lib})
	if len(a) != 3 || len(a) != len(b) {
		t.Fatalf("unexpected discovery %v / %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("discovery differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
