package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"wikiconfig/internal/expand"
)

//go:embed sample_config.toml
var sampleConfig string

// InstallRootEnv overrides an empty paths.install_root.
const InstallRootEnv = "WIKICONFIG_INSTALL_ROOT"

// Paths locates the installation and its configuration units.
type Paths struct {
	InstallRoot   string   `toml:"install_root"`
	DefaultSpec   string   `toml:"default_spec"`
	LocalOverride string   `toml:"local_override"`
	SearchPath    []string `toml:"search_path"`
}

// LoadSettings controls how units are merged and expanded.
type LoadSettings struct {
	UndefinedPolicy string `toml:"undefined_policy"`
	DebugExtensions bool   `toml:"debug_extensions"`
}

// Save controls persistence of the local override.
type Save struct {
	// BackupRetention is the number of backups kept after a save. Negative
	// keeps every backup, zero keeps none.
	BackupRetention int `toml:"backup_retention"`
}

// History configures the save ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates the settings of the wikiconfig tool itself.
//
// Configuration sections:
//   - Paths: installation root and unit locations
//   - Load: undefined-reference policy and extension diagnostics
//   - Save: backup retention
//   - History: sqlite save ledger
//   - Logging: log format and level
type Config struct {
	Paths   Paths        `toml:"paths"`
	Load    LoadSettings `toml:"load"`
	Save    Save         `toml:"save"`
	History History      `toml:"history"`
	Logging Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Policy returns the parsed undefined-reference policy.
func (c *Config) Policy() expand.Policy {
	policy, err := expand.ParsePolicy(c.Load.UndefinedPolicy)
	if err != nil {
		return expand.PolicyLiteral
	}
	return policy
}

// WithInstallRoot fills the unit locations that were left empty from root.
// Explicitly configured locations are kept.
func (c *Config) WithInstallRoot(root string) Paths {
	p := c.Paths
	p.SearchPath = append([]string(nil), c.Paths.SearchPath...)
	if p.InstallRoot == "" {
		p.InstallRoot = root
	}
	if p.InstallRoot == "" {
		return p
	}
	lib := filepath.Join(p.InstallRoot, "lib")
	if p.DefaultSpec == "" {
		p.DefaultSpec = filepath.Join(lib, "Foswiki.spec")
	}
	if p.LocalOverride == "" {
		p.LocalOverride = filepath.Join(lib, "LocalSite.cfg")
	}
	if len(p.SearchPath) == 0 {
		p.SearchPath = []string{lib}
	}
	return p
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
