package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"wikiconfig/internal/deps"
	"wikiconfig/internal/keypath"
	"wikiconfig/internal/logging"
	"wikiconfig/internal/preflight"
	"wikiconfig/internal/store"
)

// Result is the outcome of a successful probe.
type Result struct {
	Root        string
	Assignments []store.Assignment
	Warnings    []string
}

// Keys returns the paths the probe assigned, in assignment order.
func (r *Result) Keys() []keypath.Path {
	keys := make([]keypath.Path, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		keys = append(keys, a.Path)
	}
	return keys
}

// Value returns the guessed value for path.
func (r *Result) Value(path keypath.Path) (any, bool) {
	for _, a := range r.Assignments {
		if a.Path.Equal(path) {
			return a.Value, true
		}
	}
	return nil, false
}

// Prober derives bootstrap settings for an installation root.
type Prober struct {
	root      string
	logger    *slog.Logger
	goos      string
	lookupEnv func(string) (string, bool)
	check     func([]deps.Requirement) []deps.Status
}

// Option customizes a Prober.
type Option func(*Prober)

// WithGOOS overrides the operating system name used for platform decisions.
func WithGOOS(goos string) Option {
	return func(p *Prober) { p.goos = goos }
}

// WithLookupEnv replaces the environment lookup used for locale detection.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(p *Prober) { p.lookupEnv = fn }
}

// WithBinaryCheck replaces the external program probe.
func WithBinaryCheck(fn func([]deps.Requirement) []deps.Status) Option {
	return func(p *Prober) { p.check = fn }
}

// NewProber returns a prober for the installation rooted at root.
func NewProber(root string, logger *slog.Logger, opts ...Option) *Prober {
	p := &Prober{
		root:      root,
		logger:    logging.NewComponentLogger(logger, "bootstrap"),
		goos:      runtime.GOOS,
		lookupEnv: os.LookupEnv,
		check:     deps.CheckBinaries,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindInstallRoot returns the parent of the directory holding exe, with
// symbolic links resolved.
func FindInstallRoot(exe string) (string, error) {
	abs, err := filepath.Abs(exe)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", exe, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", exe, err)
	}
	return filepath.Dir(filepath.Dir(resolved)), nil
}

// ExecutableRoot applies FindInstallRoot to the running program.
func ExecutableRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return FindInstallRoot(exe)
}

// Probe validates every directory role and derives the remaining settings.
// All required-directory problems are reported together in a
// *BootstrapFailure; optional directories only produce warnings.
func (p *Prober) Probe() (*Result, error) {
	root, err := filepath.Abs(p.root)
	if err != nil {
		return nil, fmt.Errorf("resolve install root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	res := &Result{Root: root}
	var problems []Problem

	dirs := map[string]string{}
	for _, role := range Roles {
		dir, reason := p.checkRole(root, role)
		if reason != "" {
			if role.Required {
				problems = append(problems, Problem{Key: role.Key, Path: dir, Reason: reason})
				continue
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s = %s (%s)", role.Key, dir, reason))
			continue
		}
		dirs[role.Key.Key()] = dir
		res.Assignments = append(res.Assignments, store.Assignment{Path: role.Key, Value: dir})
	}
	if len(problems) > 0 {
		failure := &BootstrapFailure{Root: root, Problems: problems}
		p.logger.Error("bootstrap failed",
			logging.String("root", root),
			logging.Int("problems", len(problems)),
			logging.Error(failure))
		return nil, failure
	}

	locale, encoding := DetectLocale(p.lookupEnv)
	res.Assignments = append(res.Assignments,
		store.Assignment{Path: KeySiteLocale, Value: locale},
		store.Assignment{Path: KeyStoreEncoding, Value: encoding},
		store.Assignment{Path: KeySearchAlgo, Value: p.searchAlgorithm()},
		store.Assignment{Path: KeyStoreImpl, Value: p.storeImplementation()},
	)

	nfd, err := ProbeNormalization(dirs[keypath.New("DataDir").Key()])
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s not probed: %v", KeyNFCNormalize, err))
	}
	res.Assignments = append(res.Assignments, store.Assignment{Path: KeyNFCNormalize, Value: nfd})

	for _, w := range res.Warnings {
		logging.WarnWithContext(p.logger, "bootstrap guess incomplete", "bootstrap_warning",
			logging.String("detail", w),
			logging.String(logging.FieldImpact, "optional feature left unconfigured"))
	}
	p.logger.Info("bootstrap guessed configuration",
		logging.String("root", root),
		logging.Int("keys", len(res.Assignments)),
		logging.Int("warnings", len(res.Warnings)))
	return res, nil
}

// checkRole resolves the role directory and returns a non-empty reason when
// it cannot be used.
func (p *Prober) checkRole(root string, role Role) (string, string) {
	dir := filepath.Join(root, role.Dir)
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dir, "directory does not exist"
		}
		return dir, err.Error()
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return resolved, err.Error()
	}
	if !info.IsDir() {
		return resolved, "not a directory"
	}
	if role.Marker != "" {
		if _, err := os.Stat(filepath.Join(resolved, role.Marker)); err != nil {
			return resolved, fmt.Sprintf("missing %s", role.Marker)
		}
	}
	if role.Required {
		if check := preflight.CheckDirectoryAccess(role.Key.String(), resolved); !check.Passed {
			return resolved, "insufficient permissions"
		}
	}
	return resolved, ""
}

func (p *Prober) searchAlgorithm() string {
	if p.goos == "windows" {
		return SearchPurePerl
	}
	if deps.AllAvailable(p.check([]deps.Requirement{deps.Grep})) {
		return SearchForking
	}
	return SearchPurePerl
}

func (p *Prober) storeImplementation() string {
	if p.goos == "windows" {
		return StoreRcsLite
	}
	if deps.AllAvailable(p.check(deps.RCS)) {
		return StoreRcsWrap
	}
	return StoreRcsLite
}
