package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"wikiconfig/internal/bootstrap"
	"wikiconfig/internal/config"
	"wikiconfig/internal/history"
	"wikiconfig/internal/keypath"
	"wikiconfig/internal/logging"
	"wikiconfig/internal/persist"
	"wikiconfig/internal/store"
	"wikiconfig/internal/switchboard"
	"wikiconfig/internal/units"
)

// ErrNotLoaded is returned by operations that need a finished store.
var ErrNotLoaded = errors.New("configuration not loaded")

// Engine coordinates loading, bootstrapping and saving one installation.
type Engine struct {
	cfg    *config.Config
	paths  config.Paths
	logger *slog.Logger

	loader  *units.Loader
	writer  *persist.Writer
	history *history.Store

	proberOpts []bootstrap.Option

	mu     sync.Mutex
	store  *store.Store
	report units.Report
	probe  *bootstrap.Result
	routes switchboard.Table
	hooks  map[string]func() error
}

// Option configures optional Engine behavior.
type Option func(*engineOptions)

type engineOptions struct {
	history    *history.Store
	proberOpts []bootstrap.Option
	findRoot   func() (string, error)
}

// WithHistory records every successful save in h.
func WithHistory(h *history.Store) Option {
	return func(o *engineOptions) { o.history = h }
}

// WithProberOptions passes options to the bootstrap prober.
func WithProberOptions(opts ...bootstrap.Option) Option {
	return func(o *engineOptions) { o.proberOpts = append(o.proberOpts, opts...) }
}

// WithRootFinder replaces executable-based install root discovery, used when
// the configuration names no root.
func WithRootFinder(fn func() (string, error)) Option {
	return func(o *engineOptions) { o.findRoot = fn }
}

// New builds an engine for cfg. The install root comes from the
// configuration or, when unset, from the location of the running program.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine: config is nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	options := &engineOptions{findRoot: bootstrap.ExecutableRoot}
	for _, opt := range opts {
		opt(options)
	}

	root := cfg.Paths.InstallRoot
	if root == "" {
		found, err := options.findRoot()
		if err != nil {
			return nil, fmt.Errorf("locate install root: %w", err)
		}
		root = found
	}
	paths := cfg.WithInstallRoot(root)

	logger = logging.NewComponentLogger(logger, "engine")
	layout := units.Layout{
		DefaultSpec:   paths.DefaultSpec,
		LocalOverride: paths.LocalOverride,
		SearchPath:    paths.SearchPath,
	}
	loader := units.NewLoader(layout, logger, units.WithDebugExtensions(cfg.Load.DebugExtensions))

	return &Engine{
		cfg:        cfg,
		paths:      paths,
		logger:     logger,
		loader:     loader,
		writer:     persist.NewWriter(paths.LocalOverride, loader, logger),
		history:    options.history,
		proberOpts: options.proberOpts,
		store:      store.New(),
		hooks:      map[string]func() error{},
	}, nil
}

// Paths returns the resolved unit locations.
func (e *Engine) Paths() config.Paths { return e.paths }

// Store returns the live store.
func (e *Engine) Store() *store.Store {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store
}

// Report returns the report of the last load.
func (e *Engine) Report() units.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}

// ProbeResult returns the bootstrap guesses of the last load, or nil when the
// local override was present.
func (e *Engine) ProbeResult() *bootstrap.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.probe
}

// Routes returns the switchboard table. It is nil until a load succeeds.
func (e *Engine) Routes() switchboard.Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.routes
}

// History returns the save ledger, or nil when none is attached.
func (e *Engine) History() *history.Store { return e.history }

// Get returns the loaded value at path.
func (e *Engine) Get(path keypath.Path) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(path)
}

// Reset discards the loaded configuration so the next Load starts over.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.store.Reset()
	e.report = units.Report{}
	e.probe = nil
	e.routes = nil
}

// Load brings the store to the finished state. A store that is already
// finished is left alone and the report says Skipped.
func (e *Engine) Load(ctx context.Context) (units.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(logging.WithOperation(ctx, "load"))
}

func (e *Engine) loadLocked(ctx context.Context) (units.Report, error) {
	logger := logging.WithContext(ctx, e.logger)
	if e.store.Finished() {
		return units.Report{Skipped: true}, nil
	}

	// Anything other than a missing file is left to the loader to classify.
	if _, err := os.Stat(e.paths.LocalOverride); errors.Is(err, fs.ErrNotExist) {
		return e.bootstrapLocked(ctx)
	}

	report, err := e.loader.Load(e.store, units.Options{
		IncludeExtensionSpecs: true,
		Policy:                e.cfg.Policy(),
	})
	if err != nil {
		e.store.Reset()
		return report, err
	}
	e.finishLoad(logger, report)
	return report, nil
}

func (e *Engine) bootstrapLocked(ctx context.Context) (units.Report, error) {
	logger := logging.WithContext(logging.WithOperation(ctx, "bootstrap"), e.logger)
	logger.Info("local override missing; guessing configuration",
		logging.String("path", e.paths.LocalOverride))

	res, err := e.newProber(logger).Probe()
	if err != nil {
		return units.Report{OverrideMissing: true}, err
	}

	e.store.Reset()
	e.store.SetBootstrapKeys(res.Keys())
	e.store.SetBootstrapping(true)
	report, err := e.loader.Load(e.store, units.Options{
		IncludeExtensionSpecs: true,
		SkipLocalOverride:     true,
		Pinned:                res.Assignments,
		Policy:                e.cfg.Policy(),
	})
	report.OverrideMissing = true
	if err != nil {
		e.store.Reset()
		return report, err
	}
	e.probe = res
	e.runExtensionBootstraps(logger)
	e.finishLoad(logger, report)
	return report, nil
}

func (e *Engine) finishLoad(logger *slog.Logger, report units.Report) {
	e.report = report
	e.routes = switchboard.Default()
	if report.Undefined {
		logging.WarnWithContext(logger, "configuration references undefined keys", "undefined_reference",
			logging.String("policy", e.cfg.Policy().String()),
			logging.String(logging.FieldImpact, "affected values were replaced"))
	}
	logger.Info("configuration loaded",
		logging.Int("units_read", len(report.Read)),
		logging.Int("units_failed", len(report.Failed)),
		logging.Int("keys", e.store.Len()),
		logging.Bool("bootstrapping", e.store.Bootstrapping()),
		logging.Bool("override_valid", report.OK()))
}

// Bootstrap runs the prober without touching the store.
func (e *Engine) Bootstrap(ctx context.Context) (*bootstrap.Result, error) {
	logger := logging.WithContext(logging.WithOperation(ctx, "bootstrap"), e.logger)
	return e.newProber(logger).Probe()
}

func (e *Engine) newProber(logger *slog.Logger) *bootstrap.Prober {
	return bootstrap.NewProber(e.paths.InstallRoot, logger, e.proberOpts...)
}

// Save writes the local override with pending applied on top of the loaded
// configuration, then reloads from disk. Nothing is written when the result
// matches the file.
func (e *Engine) Save(ctx context.Context, pending []store.Assignment) (persist.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.store.Finished() {
		return persist.Outcome{}, ErrNotLoaded
	}
	id := uuid.NewString()
	ctx = logging.WithSaveID(logging.WithOperation(ctx, "save"), id)
	logger := logging.WithContext(ctx, e.logger)

	wasBootstrapping := e.store.Bootstrapping()
	out, err := e.writer.Save(persist.Request{
		Current:   e.store,
		Pending:   pending,
		Retention: e.cfg.Save.BackupRetention,
	})
	if err != nil {
		logging.ErrorWithContext(logger, "save failed", "save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the lib directory"))
		return out, err
	}
	if !out.Written {
		logger.Info("configuration unchanged; nothing saved")
		return out, nil
	}

	e.record(ctx, logger, id, out, wasBootstrapping)

	e.resetLocked()
	if _, err := e.loadLocked(ctx); err != nil {
		return out, fmt.Errorf("reload after save: %w", err)
	}
	return out, nil
}

func (e *Engine) record(ctx context.Context, logger *slog.Logger, id string, out persist.Outcome, bootstrapping bool) {
	if e.history == nil {
		return
	}
	changed := make([]string, 0, len(out.Changed))
	for _, p := range out.Changed {
		changed = append(changed, p.String())
	}
	_, err := e.history.Append(ctx, history.Record{
		ID:            id,
		OverridePath:  e.writer.Path(),
		BackupPath:    out.BackupPath,
		Changed:       changed,
		Bootstrapping: bootstrapping,
	})
	if err != nil {
		logging.WarnWithContext(logger, "save not recorded in history", "history_append_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the save succeeded but is missing from the ledger"))
	}
}

// Backups lists the backups of the local override.
func (e *Engine) Backups() ([]persist.Backup, error) {
	return persist.ListBackups(e.paths.LocalOverride)
}
