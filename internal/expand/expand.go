package expand

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wikiconfig/internal/keypath"
	"wikiconfig/internal/store"
)

const (
	// RefPrefix introduces a reference; a key path follows immediately.
	RefPrefix = "$cfg"

	defaultMaxPasses = 32
	defaultMaxLength = 1 << 20

	undefLiteral = "undef"
)

var (
	// ErrExpansion marks every expansion fault.
	ErrExpansion = errors.New("expansion fault")
	// ErrUndefined is wrapped when the fatal policy meets an undefined reference.
	ErrUndefined = errors.New("undefined reference")
)

// ExpansionFault carries the reference text that could not be expanded.
type ExpansionFault struct {
	Expr   string
	Reason string
	Err    error
}

func (e *ExpansionFault) Error() string {
	msg := fmt.Sprintf("expand %q: %s", e.Expr, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExpansionFault) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExpansion}
	}
	return []error{ErrExpansion, e.Err}
}

// Engine rewrites $cfg{...} references against a store. References are plain
// lookups; nothing is evaluated.
type Engine struct {
	store     *store.Store
	policy    Policy
	maxPasses int
	maxLength int
	undefined bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithPolicy selects the undefined-reference behavior.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithMaxPasses bounds how many rewrite passes a single string may take.
func WithMaxPasses(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPasses = n
		}
	}
}

// WithMaxLength bounds the length of an expanded string.
func WithMaxLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLength = n
		}
	}
}

// New returns an engine reading references from s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		policy:    PolicyLiteral,
		maxPasses: defaultMaxPasses,
		maxLength: defaultMaxLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Undefined reports whether the nil-signal policy fired since the engine was
// created.
func (e *Engine) Undefined() bool { return e.undefined }

// ExpandStore expands every leaf in place, in key-path order. Later leaves see
// the already expanded values of earlier ones.
func (e *Engine) ExpandStore() error {
	for _, leaf := range e.store.Leaves() {
		current, ok := e.store.Get(leaf.Path)
		if !ok || !containsRef(current) {
			continue
		}
		expanded, err := e.Expand(current)
		if err != nil {
			return fmt.Errorf("%s: %w", leaf.Path, err)
		}
		if err := e.store.Set(leaf.Path, expanded); err != nil {
			return err
		}
	}
	return nil
}

// Expand returns value with references resolved. Maps and lists are copied;
// a string that hit an undefined reference under PolicyNil becomes
// store.Absent.
func (e *Engine) Expand(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return e.expandString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			expanded, err := e.Expand(item)
			if err != nil {
				return nil, err
			}
			out[key] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			expanded, err := e.Expand(item)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return value, nil
	}
}

func (e *Engine) expandString(s string) (any, error) {
	undefined := false
	current := s
	for pass := 0; strings.Contains(current, RefPrefix+"{"); pass++ {
		if pass >= e.maxPasses {
			return nil, &ExpansionFault{Expr: firstRef(current), Reason: fmt.Sprintf("did not converge after %d passes", e.maxPasses)}
		}
		next, undef, err := e.rewrite(current)
		if err != nil {
			return nil, err
		}
		if undef {
			undefined = true
		}
		if len(next) > e.maxLength {
			return nil, &ExpansionFault{Expr: firstRef(current), Reason: fmt.Sprintf("expanded value exceeds %d bytes", e.maxLength)}
		}
		current = next
	}
	if undefined {
		e.undefined = true
		return store.Absent, nil
	}
	return current, nil
}

// rewrite replaces every reference in s once.
func (e *Engine) rewrite(s string) (string, bool, error) {
	var b strings.Builder
	undefined := false
	pos := 0
	for {
		idx := strings.Index(s[pos:], RefPrefix+"{")
		if idx < 0 {
			b.WriteString(s[pos:])
			break
		}
		start := pos + idx
		b.WriteString(s[pos:start])
		pathStart := start + len(RefPrefix)
		path, n, err := keypath.ParsePrefix(s[pathStart:])
		if err != nil {
			return "", false, &ExpansionFault{Expr: clip(s[start:]), Reason: "malformed reference", Err: err}
		}
		expr := s[start : pathStart+n]
		replacement, undef, err := e.resolve(path, expr)
		if err != nil {
			return "", false, err
		}
		if undef {
			undefined = true
		}
		b.WriteString(replacement)
		pos = pathStart + n
	}
	return b.String(), undefined, nil
}

func (e *Engine) resolve(path keypath.Path, expr string) (string, bool, error) {
	for i := 1; i < len(path); i++ {
		if parent, ok := e.store.Get(path[:i]); ok && store.IsScalar(parent) && !store.IsAbsent(parent) {
			return "", false, &ExpansionFault{Expr: expr, Reason: fmt.Sprintf("%s is not a map", path[:i])}
		}
	}
	value, ok := e.store.Get(path)
	if !ok || store.IsAbsent(value) {
		return e.undefinedValue(expr)
	}
	switch v := value.(type) {
	case string:
		return v, false, nil
	case int64:
		return strconv.FormatInt(v, 10), false, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), false, nil
	case bool:
		return strconv.FormatBool(v), false, nil
	case map[string]any:
		return "", false, &ExpansionFault{Expr: expr, Reason: "reference resolves to a map"}
	case []any:
		return "", false, &ExpansionFault{Expr: expr, Reason: "reference resolves to a list"}
	default:
		return fmt.Sprint(v), false, nil
	}
}

func (e *Engine) undefinedValue(expr string) (string, bool, error) {
	switch e.policy {
	case PolicyNil:
		return "", true, nil
	case PolicyEmpty:
		return "", false, nil
	case PolicyFatal:
		return "", false, &ExpansionFault{Expr: expr, Reason: "undefined", Err: ErrUndefined}
	default:
		return undefLiteral, false, nil
	}
}

func containsRef(value any) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(v, RefPrefix+"{")
	case map[string]any:
		for _, item := range v {
			if containsRef(item) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if containsRef(item) {
				return true
			}
		}
	}
	return false
}

// Unresolved reports whether value still contains reference syntax.
func Unresolved(value any) bool {
	return containsRef(value)
}

func firstRef(s string) string {
	idx := strings.Index(s, RefPrefix+"{")
	if idx < 0 {
		return clip(s)
	}
	rest := s[idx:]
	if _, n, err := keypath.ParsePrefix(rest[len(RefPrefix):]); err == nil {
		return rest[:len(RefPrefix)+n]
	}
	return clip(rest)
}

func clip(s string) string {
	const limit = 80
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
