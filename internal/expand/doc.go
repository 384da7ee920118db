// Package expand resolves $cfg{...} references embedded in string values.
//
// A reference is a key path looked up directly in the store; there is no
// expression language. Strings are rewritten pass by pass until no reference
// is left, with a pass limit and a length cap so cyclic references fail with
// an ExpansionFault instead of spinning.
package expand
