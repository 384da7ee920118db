package expand

import (
	"fmt"
	"strings"
)

// Policy decides what an undefined reference expands to.
type Policy int

const (
	// PolicyLiteral substitutes the text "undef".
	PolicyLiteral Policy = iota
	// PolicyNil substitutes "" and turns the whole string into store.Absent.
	PolicyNil
	// PolicyEmpty substitutes "".
	PolicyEmpty
	// PolicyFatal aborts expansion.
	PolicyFatal
)

func (p Policy) String() string {
	switch p {
	case PolicyNil:
		return "nil"
	case PolicyEmpty:
		return "empty"
	case PolicyFatal:
		return "fatal"
	default:
		return "literal"
	}
}

// ParsePolicy accepts the names printed by Policy.String.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "literal":
		return PolicyLiteral, nil
	case "nil":
		return PolicyNil, nil
	case "empty":
		return PolicyEmpty, nil
	case "fatal":
		return PolicyFatal, nil
	default:
		return PolicyLiteral, fmt.Errorf("unknown undefined policy %q", name)
	}
}
