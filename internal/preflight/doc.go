// Package preflight provides readiness checks for the filesystem locations
// wikiconfig reads and writes.
//
// The bootstrap prober uses CheckDirectoryAccess to validate guessed
// directories, and "wikiconfig status" runs RunAll to show whether the
// default spec can be read and a local override could be written.
package preflight
