package main

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wikiconfig/internal/engine"
	"wikiconfig/internal/keypath"
	"wikiconfig/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show [PATH]",
		Short: "Print the loaded configuration or one subtree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path keypath.Path
			if len(args) == 1 {
				parsed, err := keypath.Parse(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				path = parsed
			}
			return ctx.withLoadedEngine(cmd, func(e *engine.Engine) error {
				tree, err := subtree(e.Store(), path)
				if err != nil {
					return err
				}
				return printTree(cmd, tree, path, format)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, toml, yaml or json")
	return cmd
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get PATH",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := keypath.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return ctx.withLoadedEngine(cmd, func(e *engine.Engine) error {
				v, ok := e.Get(path)
				if !ok {
					return fmt.Errorf("%s is not set", path)
				}
				fmt.Fprintln(cmd.OutOrStdout(), displayValue(v))
				return nil
			})
		},
	}
}

// subtree returns a store holding only the values at and below path.
func subtree(s *store.Store, path keypath.Path) (*store.Store, error) {
	if len(path) == 0 {
		return s, nil
	}
	v, ok := s.Get(path)
	if !ok {
		return nil, fmt.Errorf("%s is not set", path)
	}
	out := store.New()
	if err := out.Set(path, v); err != nil {
		return nil, err
	}
	return out, nil
}

func printTree(cmd *cobra.Command, s *store.Store, path keypath.Path, format string) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		leaves := s.Leaves()
		rows := make([][]string, 0, len(leaves))
		for _, leaf := range leaves {
			rows = append(rows, []string{leaf.Path.String(), displayValue(leaf.Value)})
		}
		if len(rows) == 0 {
			fmt.Fprintln(out, "No configuration values")
			return nil
		}
		fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil))
		return nil
	case "toml":
		data, err := toml.Marshal(plainValue(s.Snapshot(), true))
		if err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "yaml":
		data, err := yaml.Marshal(plainValue(s.Snapshot(), false))
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "json":
		return writeJSON(cmd, plainValue(s.Snapshot(), false))
	default:
		return fmt.Errorf("unknown format %q (want table, toml, yaml or json)", format)
	}
}
