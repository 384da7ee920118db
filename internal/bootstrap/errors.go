package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"wikiconfig/internal/keypath"
)

// ErrBootstrap marks every bootstrap failure.
var ErrBootstrap = errors.New("bootstrap failure")

// Problem is one guessed directory that could not be accepted.
type Problem struct {
	Key    keypath.Path
	Path   string
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s = %s (%s)", p.Key, p.Path, p.Reason)
}

// BootstrapFailure lists every required directory that is missing or invalid.
type BootstrapFailure struct {
	Root     string
	Problems []Problem
}

func (e *BootstrapFailure) Error() string {
	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		lines = append(lines, p.String())
	}
	return fmt.Sprintf("cannot guess configuration under %s; set these keys in the local override: %s",
		e.Root, strings.Join(lines, "; "))
}

func (e *BootstrapFailure) Unwrap() error { return ErrBootstrap }

// Keys returns the key of every problem.
func (e *BootstrapFailure) Keys() []keypath.Path {
	keys := make([]keypath.Path, 0, len(e.Problems))
	for _, p := range e.Problems {
		keys = append(keys, p.Key)
	}
	return keys
}
