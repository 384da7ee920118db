package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLoad()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.InstallRoot) == "" {
		if value, ok := os.LookupEnv(InstallRootEnv); ok {
			c.Paths.InstallRoot = value
		}
	}
	var err error
	if c.Paths.InstallRoot, err = expandPath(strings.TrimSpace(c.Paths.InstallRoot)); err != nil {
		return fmt.Errorf("paths.install_root: %w", err)
	}
	if c.Paths.DefaultSpec, err = expandPath(strings.TrimSpace(c.Paths.DefaultSpec)); err != nil {
		return fmt.Errorf("paths.default_spec: %w", err)
	}
	if c.Paths.LocalOverride, err = expandPath(strings.TrimSpace(c.Paths.LocalOverride)); err != nil {
		return fmt.Errorf("paths.local_override: %w", err)
	}
	roots := c.Paths.SearchPath[:0]
	for _, root := range c.Paths.SearchPath {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		expanded, err := expandPath(root)
		if err != nil {
			return fmt.Errorf("paths.search_path: %w", err)
		}
		roots = append(roots, expanded)
	}
	c.Paths.SearchPath = roots
	return nil
}

func (c *Config) normalizeLoad() {
	c.Load.UndefinedPolicy = strings.ToLower(strings.TrimSpace(c.Load.UndefinedPolicy))
	if c.Load.UndefinedPolicy == "" {
		c.Load.UndefinedPolicy = defaultUndefinedPolicy
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	var err error
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
