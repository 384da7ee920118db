package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wikiconfig/internal/engine"
	"wikiconfig/internal/keypath"
	"wikiconfig/internal/persist"
	"wikiconfig/internal/store"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	var unset []string

	cmd := &cobra.Command{
		Use:   "set PATH=VALUE...",
		Short: "Change configuration values and save the local override",
		Example: `  wikiconfig set '{Site}{Locale}=de_DE.utf-8'
  wikiconfig set '{MaxRevisionsInADiff}=50' --unset '{Plugins}{OldPlugin}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(unset) == 0 {
				return fmt.Errorf("nothing to set: pass PATH=VALUE arguments or --unset PATH")
			}
			pending := make([]store.Assignment, 0, len(args)+len(unset))
			for _, arg := range args {
				a, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				pending = append(pending, a)
			}
			for _, raw := range unset {
				path, err := keypath.Parse(strings.TrimSpace(raw))
				if err != nil {
					return err
				}
				pending = append(pending, store.Assignment{Path: path, Value: store.Absent})
			}
			return ctx.withLoadedEngine(cmd, func(e *engine.Engine) error {
				out, err := e.Save(commandCtx(cmd), pending)
				if err != nil {
					return err
				}
				printOutcome(cmd, e.Paths().LocalOverride, out)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&unset, "unset", nil, "Remove a key from the local override (repeatable)")
	return cmd
}

func newSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the loaded configuration back to the local override",
		Long: `Save re-renders the local override from the current configuration.
On a fresh installation it materializes the guessed bootstrap settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLoadedEngine(cmd, func(e *engine.Engine) error {
				out, err := e.Save(commandCtx(cmd), nil)
				if err != nil {
					return err
				}
				printOutcome(cmd, e.Paths().LocalOverride, out)
				return nil
			})
		},
	}
}

func printOutcome(cmd *cobra.Command, path string, out persist.Outcome) {
	w := cmd.OutOrStdout()
	if !out.Written {
		fmt.Fprintln(w, "No changes")
		return
	}
	fmt.Fprintf(w, "Saved %s\n", path)
	if out.BackupPath != "" {
		fmt.Fprintf(w, "Backup: %s\n", out.BackupPath)
	}
	if len(out.Pruned) > 0 {
		fmt.Fprintf(w, "Pruned %d old backup(s)\n", len(out.Pruned))
	}
	if len(out.Changed) == 0 {
		return
	}
	fmt.Fprintf(w, "Changed keys (%d):\n", len(out.Changed))
	for _, key := range out.Changed {
		fmt.Fprintf(w, "  %s\n", key)
	}
}
