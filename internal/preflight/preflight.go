package preflight

import (
	"path/filepath"

	"wikiconfig/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks that the unit locations in paths are usable: the install
// root is a directory, the default spec is readable, and the directory
// holding the local override accepts new files. The history database
// directory is checked when history is enabled.
func RunAll(paths config.Paths, history config.History) []Result {
	var results []Result

	if paths.InstallRoot != "" {
		results = append(results, CheckDirectoryAccess("Install root", paths.InstallRoot))
	}
	if paths.DefaultSpec != "" {
		results = append(results, CheckReadableFile("Default spec", paths.DefaultSpec))
	}
	if paths.LocalOverride != "" {
		results = append(results, CheckDirectoryAccess("Local override directory", filepath.Dir(paths.LocalOverride)))
	}
	for _, root := range paths.SearchPath {
		results = append(results, CheckSearchRoot(root))
	}
	if history.Enabled && history.Path != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(history.Path)))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
