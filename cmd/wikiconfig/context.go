package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"wikiconfig/internal/config"
	"wikiconfig/internal/engine"
	"wikiconfig/internal/history"
	"wikiconfig/internal/logging"
)

type commandContext struct {
	configFlag *string
	rootFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, rootFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		rootFlag:   rootFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.rootFlag != nil {
			if root := strings.TrimSpace(*c.rootFlag); root != "" {
				expanded, err := config.ExpandPath(root)
				if err != nil {
					c.configErr = fmt.Errorf("resolve --root: %w", err)
					return
				}
				cfg.Paths.InstallRoot = expanded
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, cmd.ErrOrStderr())
}

// withHistory opens the save ledger when it is enabled. fn receives nil
// otherwise.
func (c *commandContext) withHistory(cmd *cobra.Command, fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fn(nil)
	}
	store, err := history.Open(commandCtx(cmd), cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withEngine builds an engine, attaching the save ledger when enabled.
func (c *commandContext) withEngine(cmd *cobra.Command, fn func(*engine.Engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return err
	}
	return c.withHistory(cmd, func(store *history.Store) error {
		var opts []engine.Option
		if store != nil {
			opts = append(opts, engine.WithHistory(store))
		}
		e, err := engine.New(cfg, logger, opts...)
		if err != nil {
			return err
		}
		return fn(e)
	})
}

// withLoadedEngine is withEngine followed by a load.
func (c *commandContext) withLoadedEngine(cmd *cobra.Command, fn func(*engine.Engine) error) error {
	return c.withEngine(cmd, func(e *engine.Engine) error {
		if _, err := e.Load(commandCtx(cmd)); err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		return fn(e)
	})
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
