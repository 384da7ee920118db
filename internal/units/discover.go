package units

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ExtensionSpecName is the fixed unit filename inside an extension directory.
const ExtensionSpecName = "Config.spec"

// Categories are the subdirectories of <root>/Foswiki scanned for extensions,
// plugin-like first.
var Categories = []string{"Plugins", "Contrib"}

// Extension is an installed extension that ships a spec unit.
type Extension struct {
	Name     string
	Category string
	Root     string
	SpecPath string
}

// DiscoverExtensions scans every search root for extension spec units. The
// first root providing a name wins; the result is sorted by name.
func DiscoverExtensions(searchPath []string) []Extension {
	seen := map[string]struct{}{}
	var found []Extension
	for _, root := range searchPath {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		for _, category := range Categories {
			dir := filepath.Join(root, "Foswiki", category)
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				name := entry.Name()
				if _, ok := seen[name]; ok {
					continue
				}
				spec := filepath.Join(dir, name, ExtensionSpecName)
				info, err := os.Stat(spec)
				if err != nil || !info.Mode().IsRegular() {
					continue
				}
				seen[name] = struct{}{}
				found = append(found, Extension{Name: name, Category: category, Root: root, SpecPath: spec})
			}
		}
	}
	slices.SortFunc(found, func(a, b Extension) int { return strings.Compare(a.Name, b.Name) })
	return found
}
