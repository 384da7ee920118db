package engine

import (
	"fmt"
	"log/slog"

	"wikiconfig/internal/logging"
	"wikiconfig/internal/units"
)

// RegisterExtensionBootstrap installs fn as the bootstrap hook of the named
// extension. Hooks run after the prober, once per discovered extension that
// has one. A later registration under the same name replaces the earlier one.
func (e *Engine) RegisterExtensionBootstrap(name string, fn func() error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn == nil {
		delete(e.hooks, name)
		return
	}
	e.hooks[name] = fn
}

func (e *Engine) runExtensionBootstraps(logger *slog.Logger) {
	if len(e.hooks) == 0 {
		return
	}
	for _, ext := range units.DiscoverExtensions(e.paths.SearchPath) {
		fn, ok := e.hooks[ext.Name]
		if !ok {
			continue
		}
		if err := callHook(fn); err != nil {
			logging.WarnWithContext(logger, "extension bootstrap failed", "extension_bootstrap_failed",
				logging.String("extension", ext.Name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "extension settings keep their defaults"))
			continue
		}
		logger.Debug("extension bootstrap ran", logging.String("extension", ext.Name))
	}
}

func callHook(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
