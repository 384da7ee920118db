// Package persist writes the local override unit.
//
// A save renders the store to a canonical, key-sorted TOML document and
// compares it with the rendering of what is on disk. Identical output means
// nothing is written. Otherwise the previous file is copied aside as a
// numbered backup, the new content replaces the file atomically, and old
// backups beyond the retention count are pruned.
package persist
