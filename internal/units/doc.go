// Package units reads configuration source units and merges them into a
// store.
//
// A load reads, in order, the default spec, the spec unit of every installed
// extension (when requested), and the local override. Units are TOML
// documents that must end by assigning __complete__ = true; a unit without
// that assignment is treated as truncated.
//
// Failure policy follows the role of the unit: extension failures are logged
// and skipped, a broken default spec aborts the load, and the local override
// distinguishes "never configured" (missing) from "configured but broken"
// (present and invalid) from "cannot be read at all" (fatal).
package units
