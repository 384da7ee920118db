// Package history keeps a SQLite ledger of local override saves.
//
// Each successful write appends one Record: when it happened, which file was
// written, where the previous content was backed up, which keys changed, and
// whether the save materialised bootstrap guesses. The ledger is an audit aid;
// nothing in the load path reads it.
//
// Schema changes bump schemaVersion in schema.go; an old database must be
// deleted to adopt the new schema.
package history
