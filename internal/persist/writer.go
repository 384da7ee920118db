package persist

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"wikiconfig/internal/fileutil"
	"wikiconfig/internal/keypath"
	"wikiconfig/internal/logging"
	"wikiconfig/internal/remap"
	"wikiconfig/internal/store"
	"wikiconfig/internal/units"
)

// FileMode is applied to every written local override.
const FileMode os.FileMode = 0o660

// Reloader rebuilds a store from the configuration units. *units.Loader
// satisfies it.
type Reloader interface {
	Load(s *store.Store, opts units.Options) (units.Report, error)
}

// Request describes one save.
type Request struct {
	// Current is the live store. Only its bootstrap keys and flags are read.
	Current *store.Store
	// Pending assignments are applied last. An Absent value removes the key.
	Pending []store.Assignment
	// Retention is the number of backups kept after the save; negative keeps
	// all of them.
	Retention int
}

// Outcome reports what a save did.
type Outcome struct {
	Written    bool
	BackupPath string
	Changed    []keypath.Path
	Pruned     []string
}

// Writer persists the local override unit at one path.
type Writer struct {
	path     string
	reloader Reloader
	logger   *slog.Logger
	remap    remap.Table
}

// WriterOption customizes a Writer.
type WriterOption func(*Writer)

// WithRemapTable replaces the deprecated-key table applied to the baseline.
func WithRemapTable(t remap.Table) WriterOption {
	return func(w *Writer) { w.remap = t }
}

// NewWriter returns a writer for the local override at path.
func NewWriter(path string, reloader Reloader, logger *slog.Logger, opts ...WriterOption) *Writer {
	w := &Writer{
		path:     path,
		reloader: reloader,
		logger:   logging.NewComponentLogger(logger, "persist"),
		remap:    remap.Default,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the local override location.
func (w *Writer) Path() string { return w.path }

type baseline struct {
	exists   bool
	rendered []byte
}

// Save renders the new local override and writes it when it differs from
// what is on disk.
func (w *Writer) Save(req Request) (Outcome, error) {
	var out Outcome
	if req.Current == nil {
		return out, failure("prepare", w.path, errors.New("no current store"))
	}

	base, err := w.baseline()
	if err != nil {
		return out, err
	}
	before, final, err := w.finalStore(req)
	if err != nil {
		return out, err
	}

	data := Render(final)
	if bytes.Equal(data, base.rendered) {
		w.logger.Debug("local override unchanged", logging.String("path", w.path))
		return out, nil
	}
	out.Changed = changedKeys(lineMap(renderLines(before)), renderLines(final))

	if base.exists {
		backup, err := backupFile(w.path)
		if err != nil {
			return out, failure("backup", w.path, err)
		}
		out.BackupPath = backup
	}
	if err := fileutil.WriteFileAtomic(w.path, data, FileMode); err != nil {
		return out, failure("write", w.path, err)
	}
	out.Written = true

	pruned, err := Prune(w.path, req.Retention)
	if err != nil {
		logging.WarnWithContext(w.logger, "backup pruning failed", "backup_prune_failed",
			logging.String("path", w.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "old backups remain on disk"))
	}
	out.Pruned = pruned
	for _, p := range pruned {
		if p == out.BackupPath {
			out.BackupPath = ""
		}
	}

	w.logger.Debug("changed keys", logging.Keys("keys", out.Changed))
	w.logger.Info("local override saved",
		logging.String("path", w.path),
		logging.String("backup", out.BackupPath),
		logging.Int("changed", len(out.Changed)),
		logging.Int("pruned", len(out.Pruned)),
		logging.Bool("bootstrapping", req.Current.Bootstrapping()))
	return out, nil
}

// baseline renders what is currently on disk. A missing override is compared
// against the default spec alone.
func (w *Writer) baseline() (baseline, error) {
	raw, err := os.ReadFile(w.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s := store.New()
		opts := units.Options{SkipExtensionSpecs: true, SkipLocalOverride: true, NoExpand: true}
		if _, err := w.reloader.Load(s, opts); err != nil {
			return baseline{}, failure("read defaults", w.path, err)
		}
		return baseline{rendered: Render(s)}, nil
	case err != nil:
		return baseline{}, failure("read", w.path, err)
	}

	res, err := units.Decode(raw)
	if err != nil || !res.Complete {
		return baseline{exists: true, rendered: raw}, nil
	}
	s := store.New()
	if err := s.Apply(res.Assignments); err != nil {
		return baseline{exists: true, rendered: raw}, nil
	}
	w.remap.Apply(s)
	return baseline{exists: true, rendered: Render(s)}, nil
}

// finalStore reloads the unexpanded unit chain so stored values keep their
// $cfg references, then layers the bootstrap guesses and pending edits. The
// reloaded store as it stood before that layering is returned alongside.
func (w *Writer) finalStore(req Request) (before, final *store.Store, err error) {
	bootstrapping := req.Current.Bootstrapping()
	before = store.New()
	report, err := w.reloader.Load(before, units.Options{
		IncludeExtensionSpecs: true,
		SkipLocalOverride:     bootstrapping,
		NoExpand:              true,
	})
	if err != nil {
		return nil, nil, failure("reload", w.path, err)
	}
	if !report.OK() {
		return nil, nil, failure("reload", w.path, errors.New("existing local override is invalid; refusing to overwrite it"))
	}

	final = before.Clone()
	if bootstrapping {
		for _, key := range req.Current.BootstrapKeys() {
			v, ok := req.Current.Get(key)
			if !ok {
				continue
			}
			if err := final.Set(key, v); err != nil {
				return nil, nil, failure("apply", w.path, err)
			}
		}
	}
	for _, a := range req.Pending {
		if store.IsAbsent(a.Value) {
			final.Delete(a.Path)
			continue
		}
		if err := final.Set(a.Path, a.Value); err != nil {
			return nil, nil, failure("apply", w.path, err)
		}
	}
	return before, final, nil
}

func lineMap(lines []renderedLine) map[string]renderedLine {
	m := make(map[string]renderedLine, len(lines))
	for _, l := range lines {
		m[l.path.Key()] = l
	}
	return m
}

// changedKeys lists added, modified and removed keys in key-path order.
func changedKeys(before map[string]renderedLine, after []renderedLine) []keypath.Path {
	var changed []keypath.Path
	seen := make(map[string]bool, len(after))
	for _, l := range after {
		key := l.path.Key()
		seen[key] = true
		prev, ok := before[key]
		if !ok || prev.text != l.text {
			changed = append(changed, l.path)
		}
	}
	for key, l := range before {
		if !seen[key] {
			changed = append(changed, l.path)
		}
	}
	slices.SortFunc(changed, keypath.Compare)
	return changed
}
