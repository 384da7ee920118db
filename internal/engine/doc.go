// Package engine owns the live configuration store and runs the load,
// bootstrap and save lifecycle against it.
//
// An Engine is built from the tool configuration. Load merges the units,
// remaps deprecated keys, expands references and marks the store finished.
// When no local override exists yet, the bootstrap prober guesses the
// installation directories first and the load re-runs with those guesses
// pinned. Save hands the store to the persistence writer, records the write
// in the history ledger when one is attached, and reloads from disk.
//
// The engine is the single writer of its store. Accessors return the store
// itself; callers must not mutate it.
package engine
