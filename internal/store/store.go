package store

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"wikiconfig/internal/keypath"
)

// AbsentValue marks a slot that exists but holds no value. Expansion writes it
// when an undefined reference is hit under the nil-signal policy.
type AbsentValue struct{}

func (AbsentValue) String() string { return "<absent>" }

// Absent is the single AbsentValue instance.
var Absent = AbsentValue{}

// IsAbsent reports whether v is the absent marker.
func IsAbsent(v any) bool {
	_, ok := v.(AbsentValue)
	return ok
}

// Assignment sets one value at one path.
type Assignment struct {
	Path  keypath.Path
	Value any
}

// Leaf is a path that holds a non-map value, or an empty map.
type Leaf struct {
	Path  keypath.Path
	Value any
}

// Store is the nested key/value configuration. It is not safe for concurrent
// mutation; the engine owning it is the only writer.
type Store struct {
	root          map[string]any
	finished      bool
	bootstrapping bool
	bootstrapKeys []keypath.Path
}

// New returns an empty store.
func New() *Store {
	return &Store{root: map[string]any{}}
}

// Reset clears values and all lifecycle flags.
func (s *Store) Reset() {
	s.root = map[string]any{}
	s.finished = false
	s.bootstrapping = false
	s.bootstrapKeys = nil
}

// Finished reports whether a load has completed into this store.
func (s *Store) Finished() bool { return s.finished }

// MarkFinished flags the store as fully loaded.
func (s *Store) MarkFinished() { s.finished = true }

// Bootstrapping reports whether the values came from probing rather than a
// persisted local override.
func (s *Store) Bootstrapping() bool { return s.bootstrapping }

// SetBootstrapping updates the bootstrapping flag.
func (s *Store) SetBootstrapping(v bool) { s.bootstrapping = v }

// BootstrapKeys returns the paths whose values were derived by probing.
func (s *Store) BootstrapKeys() []keypath.Path {
	return slices.Clone(s.bootstrapKeys)
}

// SetBootstrapKeys records the probed paths.
func (s *Store) SetBootstrapKeys(paths []keypath.Path) {
	s.bootstrapKeys = slices.Clone(paths)
}

// Get returns the value at path.
func (s *Store) Get(path keypath.Path) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	node := s.root
	for i, seg := range path {
		value, ok := node[seg.Name]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return value, true
		}
		child, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		node = child
	}
	return nil, false
}

// Exists reports whether path holds any value, including the absent marker.
func (s *Store) Exists(path keypath.Path) bool {
	_, ok := s.Get(path)
	return ok
}

// String returns the value at path when it is a string.
func (s *Store) String(path keypath.Path) (string, bool) {
	value, ok := s.Get(path)
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// Set stores a copy of value at path, creating intermediate maps. A scalar in
// the way of an intermediate segment is replaced by a map.
func (s *Store) Set(path keypath.Path, value any) error {
	if len(path) == 0 {
		return errors.New("store: empty key path")
	}
	node := s.root
	for _, seg := range path[:len(path)-1] {
		child, ok := node[seg.Name].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg.Name] = child
		}
		node = child
	}
	node[path[len(path)-1].Name] = CloneValue(Normalize(value))
	return nil
}

// Apply performs the assignments in order.
func (s *Store) Apply(assignments []Assignment) error {
	for _, a := range assignments {
		if err := s.Set(a.Path, a.Value); err != nil {
			return fmt.Errorf("assign %s: %w", a.Path, err)
		}
	}
	return nil
}

// Delete removes the value at path and prunes ancestors left empty.
func (s *Store) Delete(path keypath.Path) bool {
	if len(path) == 0 {
		return false
	}
	chain := make([]map[string]any, 0, len(path))
	node := s.root
	for _, seg := range path[:len(path)-1] {
		chain = append(chain, node)
		child, ok := node[seg.Name].(map[string]any)
		if !ok {
			return false
		}
		node = child
	}
	last := path[len(path)-1].Name
	if _, ok := node[last]; !ok {
		return false
	}
	delete(node, last)
	for i := len(chain) - 1; i >= 0 && len(node) == 0; i-- {
		delete(chain[i], path[i].Name)
		node = chain[i]
	}
	return true
}

// Leaves lists every leaf sorted by path. Maps are descended into; empty maps
// are reported as leaves so they survive a render.
func (s *Store) Leaves() []Leaf {
	var out []Leaf
	collectLeaves(&out, nil, s.root)
	slices.SortFunc(out, func(a, b Leaf) int { return keypath.Compare(a.Path, b.Path) })
	return out
}

func collectLeaves(out *[]Leaf, prefix keypath.Path, node map[string]any) {
	for _, name := range slices.Sorted(maps.Keys(node)) {
		path := prefix.Append(name)
		value := node[name]
		if child, ok := value.(map[string]any); ok && len(child) > 0 {
			collectLeaves(out, path, child)
			continue
		}
		*out = append(*out, Leaf{Path: path, Value: value})
	}
}

// Snapshot returns a deep copy of the nested values.
func (s *Store) Snapshot() map[string]any {
	return CloneValue(s.root).(map[string]any)
}

// Clone deep-copies values and flags.
func (s *Store) Clone() *Store {
	return &Store{
		root:          s.Snapshot(),
		finished:      s.finished,
		bootstrapping: s.bootstrapping,
		bootstrapKeys: slices.Clone(s.bootstrapKeys),
	}
}

// Len returns the number of leaves.
func (s *Store) Len() int {
	return len(s.Leaves())
}
