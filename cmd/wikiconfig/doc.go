// Package main hosts the wikiconfig CLI entrypoint and command graph.
//
// The Cobra-based command tree loads a wiki installation's configuration
// through the engine, prints it in several formats, edits and saves the
// local override, runs the bootstrap prober on demand and lists backups and
// the save ledger. Configuration of the tool itself, logger construction and
// engine wiring live in context.go so subcommands stay short.
//
// Keep this package lean: add behavior to the internal packages first, then
// surface it here.
package main
