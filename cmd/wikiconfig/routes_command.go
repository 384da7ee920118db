package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wikiconfig/internal/engine"
)

func newRoutesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the request switchboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLoadedEngine(cmd, func(e *engine.Engine) error {
				table := e.Routes()
				rows := make([][]string, 0, len(table))
				for _, name := range table.Names() {
					r := table[name]
					rows = append(rows, []string{
						name,
						r.Handler,
						r.Function,
						listCell(r.Context),
						listCell(r.Allow),
						listCell(r.Deny),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Action", "Handler", "Function", "Context", "Allow", "Deny"},
					rows, nil))
				return nil
			})
		},
	}
}

func listCell(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
