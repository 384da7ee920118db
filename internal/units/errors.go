package units

import (
	"errors"
	"fmt"
)

// ErrUnitRead marks every unit failure.
var ErrUnitRead = errors.New("unit read failure")

// Reason classifies why a unit could not be used.
type Reason int

const (
	// ReasonMissing means the file does not exist.
	ReasonMissing Reason = iota
	// ReasonUnreadable covers open/read errors other than absence.
	ReasonUnreadable
	// ReasonInvalid means the content did not parse.
	ReasonInvalid
	// ReasonIncomplete means the terminator assignment is absent.
	ReasonIncomplete
)

func (r Reason) String() string {
	switch r {
	case ReasonMissing:
		return "missing"
	case ReasonUnreadable:
		return "unreadable"
	case ReasonInvalid:
		return "invalid"
	case ReasonIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// UnitReadFailure identifies the failing unit and why it failed.
type UnitReadFailure struct {
	Unit   string
	Kind   Kind
	Path   string
	Reason Reason
	Err    error
}

func (e *UnitReadFailure) Error() string {
	return fmt.Sprintf("%s unit %s (%s) %s: %v", e.Kind, e.Unit, e.Path, e.Reason, e.Err)
}

func (e *UnitReadFailure) Unwrap() []error {
	return []error{ErrUnitRead, e.Err}
}

func failureReason(err error) (Reason, bool) {
	var failure *UnitReadFailure
	if errors.As(err, &failure) {
		return failure.Reason, true
	}
	return ReasonUnreadable, false
}
