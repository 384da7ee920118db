package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wikiconfig/internal/engine"
	"wikiconfig/internal/history"
)

var errHistoryDisabled = errors.New("save history is disabled ([history] enabled = false)")

type historyJSON struct {
	ID            string    `json:"id"`
	SavedAt       time.Time `json:"saved_at"`
	OverridePath  string    `json:"override_path"`
	BackupPath    string    `json:"backup_path,omitempty"`
	Changed       []string  `json:"changed"`
	Bootstrapping bool      `json:"bootstrapping"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var all bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded saves of the local override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(e *engine.Engine) error {
				ledger := e.History()
				if ledger == nil {
					return errHistoryDisabled
				}
				var (
					records []history.Record
					err     error
				)
				if all {
					records, err = ledger.List(commandCtx(cmd), limit)
				} else {
					records, err = ledger.ListFor(commandCtx(cmd), e.Paths().LocalOverride, limit)
				}
				if err != nil {
					return err
				}
				if asJSON {
					payload := make([]historyJSON, 0, len(records))
					for _, r := range records {
						payload = append(payload, historyJSON{
							ID:            r.ID,
							SavedAt:       r.SavedAt,
							OverridePath:  r.OverridePath,
							BackupPath:    r.BackupPath,
							Changed:       r.Changed,
							Bootstrapping: r.Bootstrapping,
						})
					}
					return writeJSON(cmd, payload)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No saves recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					backup := r.BackupPath
					if backup == "" {
						backup = "-"
					}
					rows = append(rows, []string{
						r.SavedAt.Local().Format(time.DateTime),
						shortID(r.ID),
						yesNo(r.Bootstrapping),
						backup,
						changedSummary(r.Changed),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Saved", "ID", "Bootstrap", "Backup", "Changed"},
					rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of saves to show (0 for all)")
	cmd.Flags().BoolVar(&all, "all", false, "Include saves of every installation sharing the ledger")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func changedSummary(keys []string) string {
	const shown = 3
	if len(keys) <= shown {
		return strings.Join(keys, " ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(keys[:shown], " "), len(keys)-shown)
}
