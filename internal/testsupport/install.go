package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// DefaultSpec is a small but representative default specification unit.
const DefaultSpec = `# Default specification used by tests
DefaultUrlHost = "http://localhost"
ScriptUrlPath = "/foswiki/bin"
PubUrlPath = "/foswiki/pub"
ScriptSuffix = ""
MaxRevisionsInADiff = 25
Site.Locale = "en_US.utf-8"
Store.Encoding = "utf-8"
Store.Implementation = "Foswiki::Store::PlainFile"
Store.SearchAlgorithm = "Foswiki::Store::SearchAlgorithms::PurePerl"
Log.Dir = "$cfg{WorkingDir}/logs"
TempfileDir = "$cfg{WorkingDir}/tmp"
Htpasswd.FileName = "$cfg{DataDir}/.htpasswd"
`

// Install is a fake installation tree rooted in a temp directory.
type Install struct {
	Root          string
	Bin           string
	Lib           string
	DefaultSpec   string
	LocalOverride string
}

// InstallOption customizes NewInstall.
type InstallOption func(testing.TB, *Install)

// markers mirrors the directory roles the bootstrap prober validates.
var markers = map[string]string{
	"data":      "System/WebPreferences.txt",
	"pub":       "System/",
	"working":   "README",
	"templates": "foswiki.tmpl",
	"locale":    "Foswiki.pot",
	"tools":     "",
	"bin":       "",
}

// NewInstall creates a complete installation layout with the default spec and
// every directory marker in place. No local override is written unless an
// option asks for one.
func NewInstall(t testing.TB, opts ...InstallOption) *Install {
	t.Helper()

	root := t.TempDir()
	inst := &Install{
		Root:          root,
		Bin:           filepath.Join(root, "bin"),
		Lib:           filepath.Join(root, "lib"),
		DefaultSpec:   filepath.Join(root, "lib", "Foswiki.spec"),
		LocalOverride: filepath.Join(root, "lib", "LocalSite.cfg"),
	}
	for dir, marker := range markers {
		base := filepath.Join(root, dir)
		if err := os.MkdirAll(base, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", base, err)
		}
		switch {
		case marker == "":
		case marker[len(marker)-1] == '/':
			if err := os.MkdirAll(filepath.Join(base, marker), 0o755); err != nil {
				t.Fatalf("mkdir marker %s: %v", marker, err)
			}
		default:
			WriteFile(t, filepath.Join(base, marker), "marker\n")
		}
	}
	WriteUnit(t, inst.DefaultSpec, DefaultSpec)

	for _, opt := range opts {
		opt(t, inst)
	}
	return inst
}

// WithDefaultSpec replaces the default spec body.
func WithDefaultSpec(body string) InstallOption {
	return func(t testing.TB, inst *Install) {
		WriteUnit(t, inst.DefaultSpec, body)
	}
}

// WithLocalOverride writes a local override unit.
func WithLocalOverride(body string) InstallOption {
	return func(t testing.TB, inst *Install) {
		WriteUnit(t, inst.LocalOverride, body)
	}
}

// WithExtension installs an extension spec under lib/Foswiki/<category>/<name>.
func WithExtension(category, name, body string) InstallOption {
	return func(t testing.TB, inst *Install) {
		WriteUnit(t, inst.ExtensionSpec(category, name), body)
	}
}

// WithoutMarker removes a marker file or directory from a role directory.
func WithoutMarker(dir, marker string) InstallOption {
	return func(t testing.TB, inst *Install) {
		if err := os.RemoveAll(filepath.Join(inst.Root, dir, marker)); err != nil {
			t.Fatalf("remove marker: %v", err)
		}
	}
}

// WithoutDir removes a role directory entirely.
func WithoutDir(dir string) InstallOption {
	return func(t testing.TB, inst *Install) {
		if err := os.RemoveAll(filepath.Join(inst.Root, dir)); err != nil {
			t.Fatalf("remove dir: %v", err)
		}
	}
}

// ExtensionSpec returns the spec path for an extension in this install.
func (i *Install) ExtensionSpec(category, name string) string {
	return filepath.Join(i.Lib, "Foswiki", category, name, "Config.spec")
}

// Executable returns a path inside bin/ usable as the running program.
func (i *Install) Executable() string {
	return filepath.Join(i.Bin, "wikiconfig")
}

// Dir returns the absolute path of a role directory.
func (i *Install) Dir(name string) string {
	return filepath.Join(i.Root, name)
}
