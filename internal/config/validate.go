package config

import (
	"errors"
	"fmt"

	"wikiconfig/internal/expand"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLoad(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLoad() error {
	if _, err := expand.ParsePolicy(c.Load.UndefinedPolicy); err != nil {
		return fmt.Errorf("load.undefined_policy: %w", err)
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path must be set when history is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
