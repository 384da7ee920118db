package units

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"wikiconfig/internal/expand"
	"wikiconfig/internal/logging"
	"wikiconfig/internal/remap"
	"wikiconfig/internal/store"
)

// Layout locates the unit files.
type Layout struct {
	DefaultSpec   string
	LocalOverride string
	SearchPath    []string
}

// Options selects which units a load reads and what happens after merging.
type Options struct {
	SkipDefaultSpec       bool
	SkipExtensionSpecs    bool
	IncludeExtensionSpecs bool
	SkipLocalOverride     bool
	NoExpand              bool
	// Pinned assignments are applied after remapping and before expansion,
	// so they win over every unit.
	Pinned []store.Assignment
	Policy expand.Policy
}

// UnitStatus records the outcome for one unit.
type UnitStatus struct {
	Name string
	Kind Kind
	Path string
	Err  error
}

// Report describes a completed load.
type Report struct {
	Skipped         bool
	Read            []UnitStatus
	Failed          []UnitStatus
	OverrideMissing bool
	OverrideInvalid bool
	Remapped        []remap.Applied
	Undefined       bool
}

// OK is false only when the local override exists but could not be used.
func (r Report) OK() bool {
	return !r.OverrideInvalid
}

// Loader merges units into a store.
type Loader struct {
	layout          Layout
	logger          *slog.Logger
	remap           remap.Table
	debugExtensions bool
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithDebugExtensions logs extension unit failures at warn instead of debug.
func WithDebugExtensions(enabled bool) LoaderOption {
	return func(l *Loader) { l.debugExtensions = enabled }
}

// WithRemapTable replaces the deprecated-key table.
func WithRemapTable(t remap.Table) LoaderOption {
	return func(l *Loader) { l.remap = t }
}

// NewLoader returns a loader for layout.
func NewLoader(layout Layout, logger *slog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		layout: layout,
		logger: logging.NewComponentLogger(logger, "loader"),
		remap:  remap.Default,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Layout returns the unit locations.
func (l *Loader) Layout() Layout { return l.layout }

// Units builds the ordered unit list for opts.
func (l *Loader) Units(opts Options) []Unit {
	var list []Unit
	if !opts.SkipDefaultSpec {
		list = append(list, NewFileUnit(filepath.Base(l.layout.DefaultSpec), KindDefaultSpec, l.layout.DefaultSpec))
		if opts.IncludeExtensionSpecs && !opts.SkipExtensionSpecs {
			for _, ext := range DiscoverExtensions(l.layout.SearchPath) {
				list = append(list, NewFileUnit(ext.Name, KindExtensionSpec, ext.SpecPath))
			}
		}
	}
	if !opts.SkipLocalOverride {
		list = append(list, NewFileUnit(filepath.Base(l.layout.LocalOverride), KindLocalOverride, l.layout.LocalOverride))
	}
	return list
}

// Load reads the selected units into s, then remaps deprecated keys, applies
// pinned values, expands references and marks s finished. A finished store
// is left untouched.
//
// A failing default spec, or a local override that exists but cannot be
// read, aborts the load. A missing local override is reported through
// Report.OverrideMissing; one that exists but does not parse is reported
// through Report.OverrideInvalid.
func (l *Loader) Load(s *store.Store, opts Options) (Report, error) {
	var report Report
	if s.Finished() {
		report.Skipped = true
		return report, nil
	}

	for _, unit := range l.Units(opts) {
		res, err := unit.Load()
		status := UnitStatus{Name: unit.Name(), Kind: unit.Kind(), Path: unit.Path(), Err: err}
		if err != nil {
			reason, _ := failureReason(err)
			switch unit.Kind() {
			case KindExtensionSpec:
				l.logExtensionFailure(unit, err)
				report.Failed = append(report.Failed, status)
				continue
			case KindLocalOverride:
				switch reason {
				case ReasonMissing:
					report.OverrideMissing = true
					l.logger.Debug("local override absent", logging.String("path", unit.Path()))
					continue
				case ReasonInvalid, ReasonIncomplete:
					report.OverrideInvalid = true
					report.Failed = append(report.Failed, status)
					logging.WarnWithContext(l.logger, "local override present but invalid", "override_invalid",
						logging.String("path", unit.Path()),
						logging.String("reason", reason.String()),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "fix the file or restore a backup"),
						logging.String(logging.FieldImpact, "local settings are not applied"))
					continue
				}
			}
			report.Failed = append(report.Failed, status)
			return report, fmt.Errorf("load configuration: %w", err)
		}
		if err := s.Apply(res.Assignments); err != nil {
			return report, fmt.Errorf("merge %s: %w", unit.Name(), err)
		}
		report.Read = append(report.Read, status)
		l.logger.Debug("unit read",
			logging.String("unit", unit.Name()),
			logging.String("kind", unit.Kind().String()),
			logging.Int("assignments", len(res.Assignments)))
	}

	report.Remapped = l.remap.Apply(s)
	for _, applied := range report.Remapped {
		l.logger.Info("deprecated key remapped",
			logging.String("old", applied.Old.String()),
			logging.String("new", applied.New.String()),
			logging.Bool("copied", applied.Copied))
	}

	if err := s.Apply(opts.Pinned); err != nil {
		return report, fmt.Errorf("apply pinned values: %w", err)
	}

	if !opts.NoExpand {
		engine := expand.New(s, expand.WithPolicy(opts.Policy))
		if err := engine.ExpandStore(); err != nil {
			return report, fmt.Errorf("expand configuration: %w", err)
		}
		report.Undefined = engine.Undefined()
	}

	s.MarkFinished()
	return report, nil
}

func (l *Loader) logExtensionFailure(unit Unit, err error) {
	attrs := logging.Args(
		logging.String("extension", unit.Name()),
		logging.String("path", unit.Path()),
		logging.Error(err),
	)
	if l.debugExtensions {
		l.logger.Warn("extension spec skipped", attrs...)
		return
	}
	l.logger.Debug("extension spec skipped", attrs...)
}
