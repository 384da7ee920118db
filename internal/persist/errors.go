package persist

import (
	"errors"
	"fmt"
)

// ErrPersistence marks every save failure.
var ErrPersistence = errors.New("persistence failure")

// PersistenceFailure identifies the file operation that failed.
type PersistenceFailure struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("save %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *PersistenceFailure) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func failure(op, path string, err error) error {
	return &PersistenceFailure{Op: op, Path: path, Err: err}
}
