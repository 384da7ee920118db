package units

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"wikiconfig/internal/keypath"
	"wikiconfig/internal/store"
)

// TerminatorKey must be assigned true by every unit; a unit without it is
// treated as truncated.
const TerminatorKey = "__complete__"

// Kind identifies the role a unit plays in the load order.
type Kind int

const (
	KindDefaultSpec Kind = iota
	KindExtensionSpec
	KindLocalOverride
)

func (k Kind) String() string {
	switch k {
	case KindDefaultSpec:
		return "default-spec"
	case KindExtensionSpec:
		return "extension-spec"
	case KindLocalOverride:
		return "local-override"
	default:
		return "unknown"
	}
}

// Result is what evaluating a unit produced.
type Result struct {
	Assignments []store.Assignment
	Complete    bool
}

// Unit is one loadable configuration source.
type Unit interface {
	Name() string
	Kind() Kind
	Path() string
	Load() (Result, error)
}

// FileUnit is a TOML document on disk.
type FileUnit struct {
	name string
	kind Kind
	path string
}

// NewFileUnit describes a unit file. Nothing is read until Load.
func NewFileUnit(name string, kind Kind, path string) *FileUnit {
	if name == "" {
		name = filepath.Base(path)
	}
	return &FileUnit{name: name, kind: kind, path: path}
}

func (u *FileUnit) Name() string { return u.name }
func (u *FileUnit) Kind() Kind   { return u.kind }
func (u *FileUnit) Path() string { return u.path }

// Load reads and decodes the file. Failures are *UnitReadFailure values whose
// Reason separates a missing file from an unreadable or invalid one.
func (u *FileUnit) Load() (Result, error) {
	data, err := os.ReadFile(u.path)
	if err != nil {
		reason := ReasonUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			reason = ReasonMissing
		}
		return Result{}, u.failure(reason, err)
	}
	res, err := Decode(data)
	if err != nil {
		return Result{}, u.failure(ReasonInvalid, err)
	}
	if !res.Complete {
		return Result{}, u.failure(ReasonIncomplete, fmt.Errorf("%s is not set to true", TerminatorKey))
	}
	return res, nil
}

func (u *FileUnit) failure(reason Reason, err error) error {
	return &UnitReadFailure{Unit: u.name, Kind: u.kind, Path: u.path, Reason: reason, Err: err}
}

// Decode parses TOML unit content into leaf assignments in key-path order.
func Decode(data []byte) (Result, error) {
	doc := map[string]any{}
	decoder := toml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Result{}, fmt.Errorf("parse toml at line %d column %d: %w", row, col, err)
		}
		return Result{}, fmt.Errorf("parse toml: %w", err)
	}

	complete := false
	if v, ok := doc[TerminatorKey]; ok {
		complete = v == true
		delete(doc, TerminatorKey)
	}

	tmp := store.New()
	for name, value := range doc {
		if err := tmp.Set(keypath.New(name), value); err != nil {
			return Result{}, err
		}
	}
	leaves := tmp.Leaves()
	assignments := make([]store.Assignment, 0, len(leaves))
	for _, leaf := range leaves {
		assignments = append(assignments, store.Assignment{Path: leaf.Path, Value: leaf.Value})
	}
	return Result{Assignments: assignments, Complete: complete}, nil
}

// ParseFile loads a single unit file into a fresh store.
func ParseFile(path string, kind Kind) (*store.Store, error) {
	res, err := NewFileUnit("", kind, path).Load()
	if err != nil {
		return nil, err
	}
	s := store.New()
	if err := s.Apply(res.Assignments); err != nil {
		return nil, err
	}
	return s, nil
}
