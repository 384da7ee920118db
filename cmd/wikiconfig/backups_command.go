package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wikiconfig/internal/engine"
)

func newBackupsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List numbered backups of the local override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(e *engine.Engine) error {
				backups, err := e.Backups()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(backups) == 0 {
					fmt.Fprintln(out, "No backups")
					return nil
				}
				rows := make([][]string, 0, len(backups))
				for i := len(backups) - 1; i >= 0; i-- {
					b := backups[i]
					rows = append(rows, []string{
						strconv.Itoa(b.Number),
						b.Path,
						humanize.IBytes(uint64(b.Size)),
						b.ModTime.Local().Format(time.DateTime) + " (" + humanize.Time(b.ModTime) + ")",
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Path", "Size", "Modified"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
				return nil
			})
		},
	}
}
