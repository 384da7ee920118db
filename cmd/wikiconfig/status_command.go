package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wikiconfig/internal/config"
	"wikiconfig/internal/deps"
	"wikiconfig/internal/engine"
	"wikiconfig/internal/preflight"
	"wikiconfig/internal/units"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which configuration units loaded and whether the site is bootstrapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withEngine(cmd, func(e *engine.Engine) error {
				_, loadErr := e.Load(commandCtx(cmd))

				report := newStatusReport(cmd.OutOrStdout())
				addPreflight(report, e.Paths(), cfg.History)
				addLoadStatus(report, e, loadErr)
				addToolStatus(report, deps.CheckBinaries(toolRequirements()))
				report.writeTo(cmd.OutOrStdout())
				return loadErr
			})
		},
	}
}

func toolRequirements() []deps.Requirement {
	return append([]deps.Requirement{deps.Grep}, deps.RCS...)
}

func addPreflight(r *statusReport, paths config.Paths, history config.History) {
	r.section("Installation")
	for _, res := range preflight.RunAll(paths, history) {
		if res.Passed {
			r.add(res.Name, statusOK, res.Detail)
		} else {
			r.add(res.Name, statusError, res.Detail)
		}
	}
}

func addLoadStatus(r *statusReport, e *engine.Engine, loadErr error) {
	r.section("Configuration")
	report := e.Report()
	if loadErr != nil {
		r.add("Load", statusError, loadErr.Error())
	}

	switch {
	case report.OverrideMissing:
		r.add("Local override", statusWarn, "missing; using guessed settings")
	case !report.OK():
		r.add("Local override", statusError, "present but invalid; local settings ignored")
	case loadErr == nil:
		r.add("Local override", statusOK, e.Paths().LocalOverride)
	}

	for _, u := range report.Read {
		r.add(unitLabel(u), statusOK, "read")
	}
	for _, u := range report.Failed {
		kind := statusError
		if u.Kind == units.KindExtensionSpec {
			kind = statusWarn
		}
		r.add(unitLabel(u), kind, fmt.Sprint(u.Err))
	}
	if loadErr != nil {
		return
	}

	s := e.Store()
	r.add("Keys", statusInfo, fmt.Sprint(s.Len()))
	r.add("Bootstrapping", statusInfo, yesNo(s.Bootstrapping()))
	if probe := e.ProbeResult(); probe != nil {
		for _, key := range probe.Keys() {
			v, _ := s.Get(key)
			r.add("Guessed", statusInfo, key.String()+" = "+displayValue(v))
		}
		for _, w := range probe.Warnings {
			r.add("Bootstrap warning", statusWarn, w)
		}
	}
	if report.Undefined {
		r.add("References", statusWarn, "some $cfg references are undefined")
	}
}

func unitLabel(u units.UnitStatus) string {
	return u.Kind.String() + " " + u.Name
}

func addToolStatus(r *statusReport, statuses []deps.Status) {
	r.section("External tools")
	for _, s := range statuses {
		if s.Available {
			r.add(s.Name, statusOK, s.Path)
		} else {
			r.add(s.Name, statusWarn, s.Detail)
		}
	}
}
