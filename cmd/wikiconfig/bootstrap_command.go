package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wikiconfig/internal/engine"
)

type bootstrapJSON struct {
	Root        string         `json:"root"`
	Assignments map[string]any `json:"assignments"`
	Warnings    []string       `json:"warnings"`
}

func newBootstrapCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Show the settings guessed for an unconfigured installation",
		Long: `Bootstrap probes the installation directory and prints the settings it
would guess. Nothing is written; run "wikiconfig save" to keep them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(e *engine.Engine) error {
				res, err := e.Bootstrap(commandCtx(cmd))
				if err != nil {
					return err
				}
				if asJSON {
					payload := bootstrapJSON{
						Root:        res.Root,
						Assignments: make(map[string]any, len(res.Assignments)),
						Warnings:    res.Warnings,
					}
					if payload.Warnings == nil {
						payload.Warnings = []string{}
					}
					for _, a := range res.Assignments {
						payload.Assignments[a.Path.String()] = plainValue(a.Value, false)
					}
					return writeJSON(cmd, payload)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Installation root: %s\n", res.Root)
				rows := make([][]string, 0, len(res.Assignments))
				for _, a := range res.Assignments {
					rows = append(rows, []string{a.Path.String(), displayValue(a.Value)})
				}
				fmt.Fprintln(out, renderTable([]string{"Key", "Guessed value"}, rows, nil))
				for _, w := range res.Warnings {
					fmt.Fprintf(out, "WARN: %s\n", w)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
